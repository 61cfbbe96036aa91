package pipeline

import (
	"fmt"

	"github.com/SyedDaiam9101/enhance-service/internal/imaging"
)

// Reconcile brings decoded back to original's size. When decoded matches the
// model input size it is scaled once; otherwise it is scaled to preEncode's
// size first and then to original's size.
func Reconcile(original, preEncode, decoded *imaging.Image, scaler imaging.Scaler) (*imaging.Image, error) {
	if decoded.SameSize(preEncode) {
		return scaler.Scale(decoded, original.Width(), original.Height())
	}

	mid, err := scaler.Scale(decoded, preEncode.Width(), preEncode.Height())
	if err != nil {
		return nil, fmt.Errorf("rescale to model input size: %w", err)
	}
	return scaler.Scale(mid, original.Width(), original.Height())
}
