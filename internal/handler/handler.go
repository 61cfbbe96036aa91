// internal/handler/handler.go
package handler

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/SyedDaiam9101/enhance-service/internal/cache"
	"github.com/SyedDaiam9101/enhance-service/internal/imaging"
	"github.com/SyedDaiam9101/enhance-service/internal/metrics"
	"github.com/SyedDaiam9101/enhance-service/internal/middleware"
	"github.com/SyedDaiam9101/enhance-service/internal/pipeline"
)

// Response metadata keys. HTTP responses carry the same values as
// X-Inference-Ms and so on.
const (
	HeaderInferenceMs = "x-inference-ms"
	HeaderDevice      = "x-device"
	HeaderProcessor   = "x-processor"
	HeaderOutputPath  = "x-output-path"
	HeaderCache       = "x-cache"
)

// Processor is the part of *pipeline.Processor the handler needs.
type Processor interface {
	Process(ctx context.Context, src image.Image) pipeline.Result
	Variant() pipeline.Variant
	Identity() string
}

// ResultCache stores encoded results by key. *cache.Cache implements it; a
// Get miss returns (nil, nil).
type ResultCache interface {
	Get(ctx context.Context, key string) (*cache.Entry, error)
	Set(ctx context.Context, key string, e cache.Entry, ttl time.Duration) error
}

// Handler implements EnhancerServer and the HTTP process endpoint.
type Handler struct {
	proc  Processor
	cache ResultCache
	ttl   time.Duration
}

// New creates a Handler. cache may be nil, which disables result caching.
func New(proc Processor, cache ResultCache, ttl time.Duration) *Handler {
	return &Handler{
		proc:  proc,
		cache: cache,
		ttl:   ttl,
	}
}

// Output is an encoded result with the pipeline metadata.
type Output struct {
	PNG           []byte
	InferenceTime time.Duration
	Device        string
	Processor     string
	Path          pipeline.OutputPath
	Cached        bool
}

func (o *Output) headers() map[string]string {
	cacheState := "miss"
	if o.Cached {
		cacheState = "hit"
	}
	return map[string]string{
		HeaderInferenceMs: strconv.FormatInt(o.InferenceTime.Milliseconds(), 10),
		HeaderDevice:      o.Device,
		HeaderProcessor:   o.Processor,
		HeaderOutputPath:  string(o.Path),
		HeaderCache:       cacheState,
	}
}

// Enhance decodes input, runs it through the pipeline and encodes the result
// as PNG. Results are served from and written to the cache when one is set;
// cache errors are logged and otherwise ignored. Fallback results are not
// cached.
func (h *Handler) Enhance(ctx context.Context, input []byte) (*Output, error) {
	start := time.Now()

	requestID := middleware.LogPrefix(ctx)

	if h.proc == nil {
		return nil, errNotInitialized
	}
	if len(input) == 0 {
		return nil, &pipeline.Error{Kind: pipeline.InvalidInput, Op: "read image", Err: fmt.Errorf("empty input")}
	}
	if len(input) > MaxUploadBytes {
		return nil, &pipeline.Error{Kind: pipeline.InvalidInput, Op: "read image",
			Err: fmt.Errorf("input is %d bytes, limit is %d", len(input), MaxUploadBytes)}
	}

	variant := h.proc.Variant().Name
	key := cache.Key(h.proc.Identity(), input)
	if out := h.lookup(ctx, key); out != nil {
		log.Printf("[%s] Process: cache hit, path=%s", requestID, out.Path)
		return out, nil
	}

	src, format, err := imaging.Decode(bytes.NewReader(input))
	if err != nil {
		metrics.RecordRejected()
		return nil, &pipeline.Error{Kind: pipeline.InvalidInput, Op: "decode image", Err: err}
	}

	res := h.proc.Process(ctx, src)
	if !res.OK() {
		log.Printf("[%s] Process rejected: %s", requestID, res.Failure.Message)
		return nil, res.Err()
	}

	png, err := imaging.EncodePNG(res.Success.Image)
	if err != nil {
		return nil, err
	}

	out := &Output{
		PNG:           png,
		InferenceTime: res.Success.InferenceTime,
		Device:        res.Success.DeviceLabel,
		Processor:     res.Success.ProcessorLabel,
		Path:          res.Success.Path,
	}
	if out.Path != pipeline.PathFallback {
		h.store(ctx, key, out)
	}

	log.Printf("[%s] Process: variant=%s, format=%s, size=%dx%d, path=%s, inference_ms=%d, total_ms=%.2f",
		requestID, variant, format, src.Bounds().Dx(), src.Bounds().Dy(), out.Path,
		out.InferenceTime.Milliseconds(), float64(time.Since(start).Microseconds())/1000.0)

	return out, nil
}

func (h *Handler) lookup(ctx context.Context, key string) *Output {
	if h.cache == nil {
		return nil
	}
	e, err := h.cache.Get(ctx, key)
	if err != nil {
		metrics.RecordCache("error")
		log.Printf("[%s] Cache read failed: %v", middleware.LogPrefix(ctx), err)
		return nil
	}
	if e == nil {
		metrics.RecordCache("miss")
		return nil
	}
	metrics.RecordCache("hit")
	return &Output{
		PNG:           e.PNG,
		InferenceTime: time.Duration(e.InferenceMs) * time.Millisecond,
		Device:        e.Device,
		Processor:     e.Processor,
		Path:          pipeline.OutputPath(e.Path),
		Cached:        true,
	}
}

func (h *Handler) store(ctx context.Context, key string, out *Output) {
	if h.cache == nil {
		return
	}
	err := h.cache.Set(ctx, key, cache.Entry{
		PNG:         out.PNG,
		InferenceMs: out.InferenceTime.Milliseconds(),
		Device:      out.Device,
		Processor:   out.Processor,
		Path:        string(out.Path),
	}, h.ttl)
	if err != nil {
		log.Printf("[%s] Cache write failed: %v", middleware.LogPrefix(ctx), err)
	}
}

// Process implements EnhancerServer. Metadata is returned as response headers.
func (h *Handler) Process(ctx context.Context, req *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if req == nil {
		return nil, invalidArgumentError("request cannot be nil")
	}

	out, err := h.Enhance(ctx, req.GetValue())
	if err != nil {
		return nil, grpcError(err)
	}

	if err := grpc.SetHeader(ctx, metadata.New(out.headers())); err != nil {
		log.Printf("[%s] Failed to set response headers: %v", middleware.LogPrefix(ctx), err)
	}

	return wrapperspb.Bytes(out.PNG), nil
}
