package tensor

import (
	"fmt"

	"github.com/SyedDaiam9101/enhance-service/internal/imaging"
)

// Layout describes how a model output tensor is turned back into pixels.
type Layout int

const (
	// LayoutUnusable: empty data or rank below 3.
	LayoutUnusable Layout = iota

	// LayoutImage: a [N,C,H,W] (or [N,C,H]) channel-major image, decoded
	// pixel by pixel by Decode.
	LayoutImage

	// LayoutChannelScalar: one value per channel (H*W == 1). The values are
	// applied as gains to every pixel of the model input by
	// ApplyChannelScalars.
	LayoutChannelScalar
)

func (l Layout) String() string {
	switch l {
	case LayoutImage:
		return "image"
	case LayoutChannelScalar:
		return "channel_scalar"
	default:
		return "unusable"
	}
}

// Classify picks the decode path for a model output.
func Classify(t Tensor) Layout {
	if t.Len() == 0 || t.Rank() < 3 {
		return LayoutUnusable
	}
	h, w := planeDims(t.shape)
	if h*w == 1 {
		return LayoutChannelScalar
	}
	return LayoutImage
}

// planeDims returns (height, width); width is 1 for rank-3 tensors.
func planeDims(shape []int64) (int64, int64) {
	h := shape[2]
	w := int64(1)
	if len(shape) > 3 {
		w = shape[3]
	}
	return h, w
}

// Decode reads t as channel-major planes: channel c of pixel (x, y) lives at
// c*H*W + y*W + x. Red, green and blue come from planes 0, 1 and 2; an index
// past the end of the data reads as 0. Values are scaled by 255 and clamped,
// alpha is opaque. The result is W x H, whatever size the model was fed.
func Decode(t Tensor) (*imaging.Image, error) {
	if t.Rank() < 3 {
		return nil, fmt.Errorf("%w: rank %d, need at least 3", ErrUnusableOutput, t.Rank())
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("%w: empty output %v", ErrUnusableOutput, t.shape)
	}

	outHeight, outWidth := planeDims(t.shape)
	if outHeight <= 0 || outWidth <= 0 {
		return nil, fmt.Errorf("%w: plane %dx%d", ErrUnusableOutput, outWidth, outHeight)
	}

	w, h := int(outWidth), int(outHeight)
	plane := w * h
	img, err := imaging.New(w, h, func(x, y int) imaging.Pixel {
		i := y*w + x
		return imaging.Pixel{
			A: 255,
			R: toChannel(t.at(0*plane + i)),
			G: toChannel(t.at(1*plane + i)),
			B: toChannel(t.at(2*plane + i)),
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnusableOutput, err)
	}
	return img, nil
}

// ApplyChannelScalars multiplies every pixel of img by the first three
// values of t (red, green, blue gains). Missing values count as 0. Alpha is
// preserved. This is the degraded path for outputs that carry one number per
// channel instead of an image.
func ApplyChannelScalars(img *imaging.Image, t Tensor) (*imaging.Image, error) {
	if t.Len() == 0 {
		return nil, fmt.Errorf("%w: empty output %v", ErrUnusableOutput, t.shape)
	}

	gr, gg, gb := float64(t.at(0)), float64(t.at(1)), float64(t.at(2))
	return img.Map(func(p imaging.Pixel) imaging.Pixel {
		return imaging.Pixel{
			A: p.A,
			R: imaging.Clamp8(float64(p.R) * gr),
			G: imaging.Clamp8(float64(p.G) * gg),
			B: imaging.Clamp8(float64(p.B) * gb),
		}
	}), nil
}

func toChannel(v float32) uint8 {
	return imaging.Clamp8(float64(v * 255))
}
