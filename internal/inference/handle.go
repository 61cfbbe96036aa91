package inference

import (
	"io/fs"
	"log"
	"sync"

	"github.com/SyedDaiam9101/enhance-service/internal/tensor"
)

// Opener turns a model file on disk into a running Engine.
type Opener func(path string) (Engine, error)

// Handle is the pipeline's optional reference to a loaded model. A Handle
// whose load failed, or that has been closed, stays empty: Infer reports
// ErrModelUnavailable and never touches an engine again. Calls are
// serialized, so one Handle may be shared by concurrent callers.
type Handle struct {
	mu     sync.Mutex
	engine Engine
	path   string
}

// Load materializes the named asset into cacheDir and opens it. Failures are
// logged and produce an empty Handle rather than an error, so the caller can
// always fall back to local processing.
func Load(assets fs.FS, name, cacheDir string, open Opener, logger *log.Logger) *Handle {
	if logger == nil {
		logger = log.Default()
	}

	path, err := CacheAsset(assets, name, cacheDir)
	if err != nil {
		logger.Printf("Warning: model asset %s unavailable: %v (continuing with fallback processing)", name, err)
		return &Handle{}
	}

	engine, err := open(path)
	if err != nil {
		logger.Printf("Warning: failed to load model %s: %v (continuing with fallback processing)", path, err)
		return &Handle{path: path}
	}

	logger.Printf("Model loaded from %s", path)
	return &Handle{engine: engine, path: path}
}

// NewHandle wraps an already running engine. A nil engine gives an empty
// Handle.
func NewHandle(engine Engine) *Handle {
	return &Handle{engine: engine}
}

// Ready reports whether a model is loaded and not yet closed.
func (h *Handle) Ready() bool {
	if h == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.engine != nil
}

// Path is the cached model file, empty if the asset never materialized.
func (h *Handle) Path() string {
	if h == nil {
		return ""
	}
	return h.path
}

// Infer runs the model. An empty or closed Handle returns ErrModelUnavailable.
func (h *Handle) Infer(in tensor.Tensor) (tensor.Tensor, error) {
	if h == nil {
		return tensor.Tensor{}, ErrModelUnavailable
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.engine == nil {
		return tensor.Tensor{}, ErrModelUnavailable
	}
	return h.engine.Infer(in)
}

// Close releases the engine. It is idempotent; the Handle stays empty
// afterwards.
func (h *Handle) Close() error {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.engine == nil {
		return nil
	}
	err := h.engine.Close()
	h.engine = nil
	return err
}
