// Package app assembles a pipeline.Processor from configuration. It is shared
// by the server and the CLI.
package app

import (
	"fmt"
	"log"
	"os"

	"github.com/SyedDaiam9101/enhance-service/internal/config"
	"github.com/SyedDaiam9101/enhance-service/internal/imaging"
	"github.com/SyedDaiam9101/enhance-service/internal/inference"
	"github.com/SyedDaiam9101/enhance-service/internal/pipeline"
)

// NewProcessor builds the processor described by cfg. A model that cannot be
// loaded is not an error: the processor then serves every request through the
// fallback transform.
func NewProcessor(cfg *config.Config, logger *log.Logger) (*pipeline.Processor, error) {
	if logger == nil {
		logger = log.Default()
	}

	variant, err := cfg.PipelineVariant()
	if err != nil {
		return nil, err
	}
	scaler, err := imaging.ScalerByName(cfg.ResizeFilter)
	if err != nil {
		return nil, err
	}

	var handle *inference.Handle
	if cfg.UseMockInference {
		logger.Printf("Using mock inference engine")
		handle = inference.NewHandle(inference.NewMock())
	} else {
		logger.Printf("Loading %s model %s from %s...", variant.Name, variant.ModelAsset, cfg.AssetDir)
		handle = inference.Load(os.DirFS(cfg.AssetDir), variant.ModelAsset, cfg.CacheDir,
			inference.OpenONNX(inference.ONNXOptions{LibraryPath: cfg.ORTLibrary}), logger)
	}

	p, err := pipeline.New(variant, handle,
		pipeline.WithScaler(scaler),
		pipeline.WithLogger(logger),
	)
	if err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to create processor: %w", err)
	}
	return p, nil
}
