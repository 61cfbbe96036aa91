package pipeline

import (
	"testing"

	"github.com/SyedDaiam9101/enhance-service/internal/imaging"
)

func checkerboard(t *testing.T, w, h int) *imaging.Image {
	t.Helper()
	img, err := imaging.New(w, h, func(x, y int) imaging.Pixel {
		if (x+y)%2 == 0 {
			return imaging.Pixel{A: 255, R: 255, G: 255, B: 255}
		}
		return imaging.Pixel{A: 255}
	})
	if err != nil {
		t.Fatalf("imaging.New failed: %v", err)
	}
	return img
}

func scale(t *testing.T, s imaging.Scaler, img *imaging.Image, w, h int) *imaging.Image {
	t.Helper()
	out, err := s.Scale(img, w, h)
	if err != nil {
		t.Fatalf("Scale failed: %v", err)
	}
	return out
}

func TestReconcile_TwoStageWhenSizesDiffer(t *testing.T) {
	s := imaging.BilinearScaler{}
	original := checkerboard(t, 100, 100)
	preEncode := checkerboard(t, 50, 50)
	decoded := checkerboard(t, 40, 60)

	got, err := Reconcile(original, preEncode, decoded, s)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if got.Width() != 100 || got.Height() != 100 {
		t.Fatalf("Expected 100x100, got %dx%d", got.Width(), got.Height())
	}

	twoHop := scale(t, s, scale(t, s, decoded, 50, 50), 100, 100)
	direct := scale(t, s, decoded, 100, 100)

	if !got.Equal(twoHop) {
		t.Error("Result must equal decoded -> 50x50 -> 100x100")
	}
	if got.Equal(direct) {
		t.Error("Result must not equal a direct decoded -> 100x100 rescale")
	}
}

func TestReconcile_SingleStageWhenSizesMatch(t *testing.T) {
	s := imaging.BilinearScaler{}
	original := checkerboard(t, 30, 20)
	preEncode := checkerboard(t, 8, 8)
	decoded := checkerboard(t, 8, 8)

	got, err := Reconcile(original, preEncode, decoded, s)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !got.Equal(scale(t, s, decoded, 30, 20)) {
		t.Error("Expected a single direct rescale")
	}
}

func TestReconcile_NoopWhenAllSizesMatch(t *testing.T) {
	img := checkerboard(t, 5, 5)
	got, err := Reconcile(img, img, img, imaging.BilinearScaler{})
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if got != img {
		t.Error("Expected decoded to be returned unchanged")
	}
}
