package app

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/SyedDaiam9101/enhance-service/internal/config"
	"github.com/SyedDaiam9101/enhance-service/internal/imaging"
	"github.com/SyedDaiam9101/enhance-service/internal/pipeline"
)

func solid(t *testing.T, w, h int) *imaging.Image {
	t.Helper()
	img, err := imaging.New(w, h, func(x, y int) imaging.Pixel {
		return imaging.Pixel{A: 255, R: 80, G: 120, B: 160}
	})
	if err != nil {
		t.Fatalf("imaging.New failed: %v", err)
	}
	return img
}

func TestNewProcessorMock(t *testing.T) {
	cfg := &config.Config{
		Variant:          "resnet",
		InputSize:        8,
		ResizeFilter:     "lanczos3",
		UseMockInference: true,
	}

	p, err := NewProcessor(cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("NewProcessor failed: %v", err)
	}
	defer p.Close()

	if !p.ModelReady() {
		t.Error("Expected mock model to be ready")
	}
	if got := p.Variant().InputSize; got != 8 {
		t.Errorf("Expected input size override 8, got %d", got)
	}

	res := p.Process(context.Background(), solid(t, 12, 9))
	if !res.OK() {
		t.Fatalf("Expected success, got %v", res.Err())
	}
	if res.Success.Path != pipeline.PathModel {
		t.Errorf("Expected model path, got %s", res.Success.Path)
	}
}

func TestNewProcessorMissingAsset(t *testing.T) {
	cfg := &config.Config{
		Variant:      "deblur",
		ResizeFilter: "bilinear",
		AssetDir:     t.TempDir(),
		CacheDir:     t.TempDir(),
	}

	p, err := NewProcessor(cfg, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("NewProcessor failed: %v", err)
	}
	defer p.Close()

	if p.ModelReady() {
		t.Error("Expected no model without an asset")
	}
	res := p.Process(context.Background(), solid(t, 3, 3))
	if !res.OK() || res.Success.Path != pipeline.PathFallback {
		t.Fatalf("Expected fallback success, got %+v", res)
	}
}

func TestNewProcessorBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"unknown variant", config.Config{Variant: "vgg", ResizeFilter: "bilinear", UseMockInference: true}},
		{"unknown filter", config.Config{Variant: "resnet", ResizeFilter: "sinc", UseMockInference: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProcessor(&tt.cfg, log.New(io.Discard, "", 0)); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
