package imaging

// FallbackGain is the per-channel multiplier applied by Fallback.
const FallbackGain = 1.2

// Fallback is the deterministic local transform used whenever the model
// cannot produce a usable result. Red, green and blue are multiplied by
// FallbackGain and clamped to [0,255]; alpha is preserved.
func Fallback(img *Image) *Image {
	return img.Map(func(p Pixel) Pixel {
		return Pixel{
			A: p.A,
			R: Clamp8(float64(p.R) * FallbackGain),
			G: Clamp8(float64(p.G) * FallbackGain),
			B: Clamp8(float64(p.B) * FallbackGain),
		}
	})
}

// Clamp8 clamps v to [0,255] and truncates toward zero. NaN maps to 0.
func Clamp8(v float64) uint8 {
	switch {
	case v != v, v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}
