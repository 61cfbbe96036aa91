package imaging

import (
	"fmt"
	"image"
	"strings"

	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"
)

// Scaler resamples an image to a new size. Implementations must be
// deterministic and must return src itself when the size does not change.
// String names the filter as accepted by ScalerByName.
type Scaler interface {
	Scale(src *Image, width, height int) (*Image, error)
	String() string
}

// BilinearScaler resamples with golang.org/x/image/draw's bilinear kernel.
// It is the default filter for every rescale in the pipeline.
type BilinearScaler struct{}

// Scale implements Scaler.
func (BilinearScaler) Scale(src *Image, width, height int) (*Image, error) {
	if err := checkTarget(src, width, height); err != nil {
		return nil, err
	}
	if src.Width() == width && src.Height() == height {
		return src, nil
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), src.pix, src.pix.Bounds(), xdraw.Src, nil)
	return &Image{pix: dst}, nil
}

func (BilinearScaler) String() string { return "bilinear" }

// NfntScaler resamples with one of github.com/nfnt/resize's interpolation
// functions.
type NfntScaler struct {
	Interp resize.InterpolationFunction
}

// Scale implements Scaler.
func (s NfntScaler) Scale(src *Image, width, height int) (*Image, error) {
	if err := checkTarget(src, width, height); err != nil {
		return nil, err
	}
	if src.Width() == width && src.Height() == height {
		return src, nil
	}

	return FromImage(resize.Resize(uint(width), uint(height), src.pix, s.Interp))
}

func (s NfntScaler) String() string {
	switch s.Interp {
	case resize.Bilinear:
		return "nfnt-bilinear"
	case resize.Bicubic:
		return "bicubic"
	case resize.Lanczos3:
		return "lanczos3"
	default:
		return fmt.Sprintf("nfnt-%d", int(s.Interp))
	}
}

// ScalerByName resolves a configured filter name.
//
//	bilinear  x/image/draw bilinear (default)
//	nfnt-bilinear, lanczos3, bicubic  nfnt/resize kernels
func ScalerByName(name string) (Scaler, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "bilinear":
		return BilinearScaler{}, nil
	case "nfnt-bilinear":
		return NfntScaler{Interp: resize.Bilinear}, nil
	case "bicubic":
		return NfntScaler{Interp: resize.Bicubic}, nil
	case "lanczos3":
		return NfntScaler{Interp: resize.Lanczos3}, nil
	default:
		return nil, fmt.Errorf("imaging: unknown resize filter %q", name)
	}
}

func checkTarget(src *Image, width, height int) error {
	if src == nil {
		return fmt.Errorf("%w: nil source", ErrInvalidDimensions)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: target %dx%d", ErrInvalidDimensions, width, height)
	}
	return nil
}
