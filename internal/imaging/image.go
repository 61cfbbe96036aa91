// Package imaging holds the immutable raster type used by the enhancement
// pipeline together with the rescale filters and the local fallback transform.
package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// ErrInvalidDimensions is returned when an image would have a non-positive
// width or height.
var ErrInvalidDimensions = errors.New("imaging: width and height must be positive")

// Pixel is a single ARGB sample with 8 bits per channel.
type Pixel struct {
	A, R, G, B uint8
}

// Image is a width x height grid of non-premultiplied ARGB pixels.
// It is never modified after construction; every operation returns a new Image.
type Image struct {
	pix *image.NRGBA
}

// New builds an image of the given size, asking fill for every pixel.
// A nil fill produces a fully transparent image.
func New(width, height int, fill func(x, y int) Pixel) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, width, height)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	if fill != nil {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				p := fill(x, y)
				i := dst.PixOffset(x, y)
				dst.Pix[i+0] = p.R
				dst.Pix[i+1] = p.G
				dst.Pix[i+2] = p.B
				dst.Pix[i+3] = p.A
			}
		}
	}

	return &Image{pix: dst}, nil
}

// FromImage copies any image.Image into a new Image anchored at the origin.
func FromImage(src image.Image) (*Image, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidDimensions)
	}
	if own, ok := src.(*Image); ok {
		return own, nil
	}

	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, b.Dx(), b.Dy())
	}

	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return &Image{pix: dst}, nil
}

// Width returns the number of columns.
func (img *Image) Width() int { return img.pix.Rect.Dx() }

// Height returns the number of rows.
func (img *Image) Height() int { return img.pix.Rect.Dy() }

// SameSize reports whether both images have identical dimensions.
func (img *Image) SameSize(other *Image) bool {
	return img.Width() == other.Width() && img.Height() == other.Height()
}

// Pixel returns the sample at (x, y). Coordinates outside the image yield
// the zero Pixel.
func (img *Image) Pixel(x, y int) Pixel {
	if !(image.Point{X: x, Y: y}).In(img.pix.Rect) {
		return Pixel{}
	}
	i := img.pix.PixOffset(x, y)
	s := img.pix.Pix[i : i+4 : i+4]
	return Pixel{A: s[3], R: s[0], G: s[1], B: s[2]}
}

// Map returns a new image of the same size with fn applied to every pixel.
func (img *Image) Map(fn func(Pixel) Pixel) *Image {
	out, _ := New(img.Width(), img.Height(), func(x, y int) Pixel {
		return fn(img.Pixel(x, y))
	})
	return out
}

// Equal reports whether both images have the same size and pixels.
func (img *Image) Equal(other *Image) bool {
	if other == nil || !img.SameSize(other) {
		return false
	}
	for y := 0; y < img.Height(); y++ {
		for x := 0; x < img.Width(); x++ {
			if img.Pixel(x, y) != other.Pixel(x, y) {
				return false
			}
		}
	}
	return true
}

// ColorModel implements image.Image.
func (img *Image) ColorModel() color.Model { return color.NRGBAModel }

// Bounds implements image.Image.
func (img *Image) Bounds() image.Rectangle { return img.pix.Rect }

// At implements image.Image.
func (img *Image) At(x, y int) color.Color { return img.pix.NRGBAAt(x, y) }
