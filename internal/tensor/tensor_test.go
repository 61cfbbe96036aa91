package tensor

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/SyedDaiam9101/enhance-service/internal/imaging"
)

func mustTensor(t *testing.T, shape []int64, data []float32) Tensor {
	t.Helper()
	tt, err := New(shape, data)
	if err != nil {
		t.Fatalf("New(%v) failed: %v", shape, err)
	}
	return tt
}

func TestNew_ShapeValidation(t *testing.T) {
	cases := []struct {
		name  string
		shape []int64
		n     int
		ok    bool
	}{
		{"matches", []int64{1, 3, 2, 2}, 12, true},
		{"too short", []int64{1, 3, 2, 2}, 11, false},
		{"negative", []int64{1, -3}, 3, false},
		{"no shape", nil, 0, false},
		{"zero dim", []int64{1, 0, 4}, 0, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := New(c.shape, make([]float32, c.n))
			if c.ok && err != nil {
				t.Errorf("Expected success, got %v", err)
			}
			if !c.ok && !errors.Is(err, ErrShapeMismatch) {
				t.Errorf("Expected ErrShapeMismatch, got %v", err)
			}
		})
	}
}

func TestNew_CopiesInput(t *testing.T) {
	data := []float32{1, 2, 3}
	tt := mustTensor(t, []int64{3}, data)
	data[0] = 99

	if got := tt.Data(); got[0] != 1 {
		t.Errorf("Tensor aliases caller data: %v", got)
	}
	out := tt.Data()
	out[1] = 42
	if tt.Data()[1] != 2 {
		t.Error("Data() exposes internal storage")
	}
}

func TestEncode_ShapeAndNormalization(t *testing.T) {
	img, _ := imaging.New(2, 2, func(x, y int) imaging.Pixel {
		return imaging.Pixel{A: 255, R: 255, G: 0, B: 51}
	})
	c := Codec{Size: 2, Norm: ImageNet}

	tt, err := c.Encode(img)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if diff := cmp.Diff([]int64{1, 3, 2, 2}, tt.Shape()); diff != "" {
		t.Fatalf("shape mismatch (-want +got):\n%s", diff)
	}

	data := tt.Data()
	want := []float32{
		(1 - 0.485) / 0.229,
		(0 - 0.456) / 0.224,
		(0.2 - 0.406) / 0.225,
	}
	for c := 0; c < 3; c++ {
		for i := 0; i < 4; i++ {
			if got := data[c*4+i]; math.Abs(float64(got-want[c])) > 1e-5 {
				t.Errorf("channel %d index %d = %f, expected %f", c, i, got, want[c])
			}
		}
	}
}

func TestEncode_ResizesToTarget(t *testing.T) {
	img, _ := imaging.New(10, 7, func(x, y int) imaging.Pixel { return imaging.Pixel{A: 255, R: 10} })
	tt, err := Codec{Size: 4, Norm: Identity}.Encode(img)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if diff := cmp.Diff([]int64{1, 3, 4, 4}, tt.Shape()); diff != "" {
		t.Errorf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_RejectsZeroStd(t *testing.T) {
	img, _ := imaging.New(1, 1, nil)
	c := Codec{Size: 1, Norm: Normalization{Std: [3]float32{1, 0, 1}}}
	if _, err := c.Encode(img); err == nil {
		t.Fatal("Expected error for zero std")
	}
}

func TestDecode_ChannelMajorIndex(t *testing.T) {
	tt := mustTensor(t, []int64{1, 3, 2, 2}, []float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
	})

	img, err := Decode(tt)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Width() != 2 || img.Height() != 2 {
		t.Fatalf("Expected 2x2, got %dx%d", img.Width(), img.Height())
	}

	expected := map[[2]int]imaging.Pixel{
		{0, 0}: {A: 255, R: 255},
		{1, 0}: {A: 255, G: 255},
		{0, 1}: {A: 255, B: 255},
		{1, 1}: {A: 255},
	}
	for xy, want := range expected {
		if got := img.Pixel(xy[0], xy[1]); got != want {
			t.Errorf("Pixel%v = %+v, expected %+v", xy, got, want)
		}
	}
}

func TestDecode_NonSquareOutput(t *testing.T) {
	// H=2, W=3: pixel (2,1) red lives at 0*6 + 1*3 + 2 = 5.
	data := make([]float32, 18)
	data[5] = 0.5
	img, err := Decode(mustTensor(t, []int64{1, 3, 2, 3}, data))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Width() != 3 || img.Height() != 2 {
		t.Fatalf("Expected 3x2, got %dx%d", img.Width(), img.Height())
	}
	if got := img.Pixel(2, 1).R; got != 127 {
		t.Errorf("Expected red 127, got %d", got)
	}
}

func TestDecode_MissingChannelsReadZero(t *testing.T) {
	// One channel only: green and blue planes are past the end.
	img, err := Decode(mustTensor(t, []int64{1, 1, 2, 2}, []float32{1, 1, 1, 1}))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if got := img.Pixel(x, y); got != (imaging.Pixel{A: 255, R: 255}) {
				t.Errorf("(%d,%d) = %+v", x, y, got)
			}
		}
	}
}

func TestDecode_ClampsAndRank3(t *testing.T) {
	img, err := Decode(mustTensor(t, []int64{1, 3, 2}, []float32{-1, 2, 0.5, 0.25, 1, 0}))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Width() != 1 || img.Height() != 2 {
		t.Fatalf("Expected 1x2, got %dx%d", img.Width(), img.Height())
	}
	if got := img.Pixel(0, 0); got != (imaging.Pixel{A: 255, R: 0, G: 127, B: 255}) {
		t.Errorf("(0,0) = %+v", got)
	}
	if got := img.Pixel(0, 1); got != (imaging.Pixel{A: 255, R: 255, G: 63, B: 0}) {
		t.Errorf("(0,1) = %+v", got)
	}
}

func TestDecode_Unusable(t *testing.T) {
	cases := []Tensor{
		mustTensor(t, []int64{1, 3}, []float32{1, 2, 3}),
		mustTensor(t, []int64{6}, make([]float32, 6)),
		mustTensor(t, []int64{1, 3, 0, 4}, nil),
	}
	for _, tt := range cases {
		if _, err := Decode(tt); !errors.Is(err, ErrUnusableOutput) {
			t.Errorf("Decode(%v): expected ErrUnusableOutput, got %v", tt, err)
		}
		if Classify(tt) != LayoutUnusable {
			t.Errorf("Classify(%v) = %v, expected unusable", tt, Classify(tt))
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		shape []int64
		want  Layout
	}{
		{[]int64{1, 3, 4, 4}, LayoutImage},
		{[]int64{1, 3, 4}, LayoutImage},
		{[]int64{1, 3, 1, 1}, LayoutChannelScalar},
		{[]int64{1, 3, 1}, LayoutChannelScalar},
		{[]int64{1, 1000}, LayoutUnusable},
	}
	for _, c := range cases {
		n := int64(1)
		for _, d := range c.shape {
			n *= d
		}
		tt := mustTensor(t, c.shape, make([]float32, n))
		if got := Classify(tt); got != c.want {
			t.Errorf("Classify(%v) = %v, expected %v", c.shape, got, c.want)
		}
	}
}

func TestApplyChannelScalars(t *testing.T) {
	img, _ := imaging.New(2, 1, func(x, y int) imaging.Pixel {
		return imaging.Pixel{A: uint8(100 + x), R: 100, G: 200, B: 50}
	})

	out, err := ApplyChannelScalars(img, mustTensor(t, []int64{1, 3, 1, 1}, []float32{0.5, 2, 1}))
	if err != nil {
		t.Fatalf("ApplyChannelScalars failed: %v", err)
	}
	for x := 0; x < 2; x++ {
		want := imaging.Pixel{A: uint8(100 + x), R: 50, G: 255, B: 50}
		if got := out.Pixel(x, 0); got != want {
			t.Errorf("Pixel(%d) = %+v, expected %+v", x, got, want)
		}
	}

	// Two values only: blue gain is missing and reads as 0.
	out, err = ApplyChannelScalars(img, mustTensor(t, []int64{1, 2, 1}, []float32{1, 1}))
	if err != nil {
		t.Fatalf("ApplyChannelScalars failed: %v", err)
	}
	if got := out.Pixel(0, 0); got.B != 0 || got.R != 100 {
		t.Errorf("Pixel(0) = %+v", got)
	}
}

func TestRoundTrip_IdentityModel(t *testing.T) {
	img, _ := imaging.New(8, 8, func(x, y int) imaging.Pixel {
		return imaging.Pixel{A: 255, R: uint8(x * 31), G: uint8(y * 29), B: uint8((x + y) * 15)}
	})
	c := Codec{Size: 8, Norm: Identity}

	in, err := c.Encode(img)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	out, err := Decode(mustTensor(t, in.Shape(), in.Data()))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			a, b := img.Pixel(x, y), out.Pixel(x, y)
			if absDiff(a.R, b.R) > 1 || absDiff(a.G, b.G) > 1 || absDiff(a.B, b.B) > 1 {
				t.Errorf("(%d,%d): %+v -> %+v", x, y, a, b)
			}
		}
	}
}

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}
