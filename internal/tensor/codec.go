package tensor

import (
	"fmt"

	"github.com/SyedDaiam9101/enhance-service/internal/imaging"
)

// Normalization holds the per-channel mean and standard deviation applied
// to [0,1] intensities before they reach the model.
type Normalization struct {
	Mean [3]float32
	Std  [3]float32
}

// ImageNet is the usual torchvision normalization.
var ImageNet = Normalization{
	Mean: [3]float32{0.485, 0.456, 0.406},
	Std:  [3]float32{0.229, 0.224, 0.225},
}

// Identity leaves [0,1] intensities untouched.
var Identity = Normalization{
	Mean: [3]float32{0, 0, 0},
	Std:  [3]float32{1, 1, 1},
}

// Validate rejects zero standard deviations.
func (n Normalization) Validate() error {
	for c, s := range n.Std {
		if s == 0 {
			return fmt.Errorf("tensor: std[%d] must be non-zero", c)
		}
	}
	return nil
}

// Codec turns images into model input tensors of shape [1,3,Size,Size].
type Codec struct {
	Size   int
	Norm   Normalization
	Scaler imaging.Scaler
}

// Resize scales img to Size x Size with the codec's filter.
func (c Codec) Resize(img *imaging.Image) (*imaging.Image, error) {
	if c.Size <= 0 {
		return nil, fmt.Errorf("tensor: invalid input size %d", c.Size)
	}
	return c.scaler().Scale(img, c.Size, c.Size)
}

// Encode resizes img to Size x Size (a no-op when it already is) and packs
// it channel-major, normalizing each channel as (v/255 - mean) / std.
func (c Codec) Encode(img *imaging.Image) (Tensor, error) {
	if err := c.Norm.Validate(); err != nil {
		return Tensor{}, err
	}
	resized, err := c.Resize(img)
	if err != nil {
		return Tensor{}, err
	}

	s := c.Size
	plane := s * s
	data := make([]float32, 3*plane)
	for y := 0; y < s; y++ {
		for x := 0; x < s; x++ {
			p := resized.Pixel(x, y)
			i := y*s + x
			data[0*plane+i] = (float32(p.R)/255 - c.Norm.Mean[0]) / c.Norm.Std[0]
			data[1*plane+i] = (float32(p.G)/255 - c.Norm.Mean[1]) / c.Norm.Std[1]
			data[2*plane+i] = (float32(p.B)/255 - c.Norm.Mean[2]) / c.Norm.Std[2]
		}
	}

	return Tensor{data: data, shape: []int64{1, 3, int64(s), int64(s)}}, nil
}

func (c Codec) scaler() imaging.Scaler {
	if c.Scaler == nil {
		return imaging.BilinearScaler{}
	}
	return c.Scaler
}
