package cache

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	const resnet = "resnet/224/model.onnx/[0.485 0.456 0.406]/[0.229 0.224 0.225]/bilinear"
	a := Key(resnet, []byte("image-a"))
	if a != Key(resnet, []byte("image-a")) {
		t.Error("Key is not deterministic")
	}
	if a == Key(resnet, []byte("image-b")) {
		t.Error("Different inputs share a key")
	}

	others := []string{
		"resnet/256/model.onnx/[0.485 0.456 0.406]/[0.229 0.224 0.225]/bilinear",
		"resnet/224/model.onnx/[0.485 0.456 0.406]/[0.229 0.224 0.225]/lanczos3",
		"resnet/224/other.onnx/[0.485 0.456 0.406]/[0.229 0.224 0.225]/bilinear",
	}
	for _, id := range others {
		if a == Key(id, []byte("image-a")) {
			t.Errorf("Identity %q shares a key with %q", id, resnet)
		}
	}
	if !strings.HasPrefix(a, "enhance:") {
		t.Errorf("Unexpected key format %s", a)
	}
}

func TestDecodeEntry(t *testing.T) {
	e, err := decodeEntry(map[string]string{})
	if err != nil || e != nil {
		t.Fatalf("Expected miss, got %v, %v", e, err)
	}

	e, err = decodeEntry(map[string]string{
		"png":          "\x89PNG",
		"inference_ms": "42",
		"device":       "host",
		"processor":    "x86_64",
		"path":         "model",
	})
	if err != nil {
		t.Fatalf("decodeEntry failed: %v", err)
	}
	if string(e.PNG) != "\x89PNG" || e.InferenceMs != 42 || e.Device != "host" || e.Processor != "x86_64" || e.Path != "model" {
		t.Errorf("Unexpected entry %+v", e)
	}

	if _, err := decodeEntry(map[string]string{"png": "x", "inference_ms": "abc"}); err == nil {
		t.Error("Expected error for corrupt entry")
	}
}

func TestNilCache(t *testing.T) {
	var c *Cache
	ctx := context.Background()
	if _, err := c.Get(ctx, "k"); err == nil {
		t.Error("Expected error from nil cache Get")
	}
	if err := c.Set(ctx, "k", Entry{}, time.Minute); err == nil {
		t.Error("Expected error from nil cache Set")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on nil cache failed: %v", err)
	}
}
