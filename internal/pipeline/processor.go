// Package pipeline runs the model-backed image enhancement: resize, encode,
// infer, decode and reconcile, degrading to the local fallback transform
// whenever the model cannot deliver.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/SyedDaiam9101/enhance-service/internal/imaging"
	"github.com/SyedDaiam9101/enhance-service/internal/inference"
	"github.com/SyedDaiam9101/enhance-service/internal/metrics"
	"github.com/SyedDaiam9101/enhance-service/internal/middleware"
	"github.com/SyedDaiam9101/enhance-service/internal/tensor"
)

const tracerName = "github.com/SyedDaiam9101/enhance-service/internal/pipeline"

// Processor owns one model handle and runs images through it. Process is
// synchronous; concurrent calls are safe because the handle serializes
// inference and no other state is shared.
type Processor struct {
	variant  Variant
	handle   *inference.Handle
	codec    tensor.Codec
	scaler   imaging.Scaler
	platform Platform
	logger   *log.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// Option configures a Processor.
type Option func(*Processor)

// WithScaler sets the filter used for every rescale.
func WithScaler(s imaging.Scaler) Option {
	return func(p *Processor) { p.scaler = s }
}

// WithPlatform overrides the host labels.
func WithPlatform(pl Platform) Option {
	return func(p *Processor) { p.platform = pl }
}

// WithLogger sets the logger for fallback diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// New builds a Processor for v. handle may be empty (or nil); every request
// is then served by the fallback transform.
func New(v Variant, handle *inference.Handle, opts ...Option) (*Processor, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}

	p := &Processor{
		variant:  v,
		handle:   handle,
		scaler:   imaging.BilinearScaler{},
		platform: HostPlatform{},
		logger:   log.Default(),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.codec = tensor.Codec{Size: v.InputSize, Norm: v.Norm, Scaler: p.scaler}

	return p, nil
}

// Variant returns the configured variant.
func (p *Processor) Variant() Variant { return p.variant }

// Identity is the variant fingerprint plus the resize filter. Results are
// interchangeable between processors with the same identity.
func (p *Processor) Identity() string {
	return p.variant.Fingerprint() + "/" + p.scaler.String()
}

// ModelReady reports whether the model handle is loaded.
func (p *Processor) ModelReady() bool { return p.handle.Ready() }

// Process enhances src. Inputs with a non-positive width or height yield a
// Failure; anything else yields a Success whose image has src's size,
// produced by the model when possible and by the fallback transform otherwise.
func (p *Processor) Process(ctx context.Context, src image.Image) Result {
	ctx, span := p.tracer.Start(ctx, "pipeline.Process",
		trace.WithAttributes(attribute.String("variant", p.variant.Name)))
	defer span.End()

	original, err := p.validate(src)
	if err != nil {
		metrics.RecordRejected()
		span.SetStatus(codes.Error, err.Error())
		return Result{Failure: &Failure{Message: "invalid input image dimensions", Cause: err}}
	}

	start := p.now()

	out, runErr := p.run(ctx, original)
	path, kind := PathModel, Kind(0)
	if runErr != nil {
		kind = KindOf(runErr)
		path = PathFallback
		p.logger.Printf("[%s] Model path failed (%s), using fallback: %v",
			middleware.LogPrefix(ctx), kind, runErr)
		metrics.RecordFallback(kind.String())
		out = imaging.Fallback(original)
	}

	elapsed := p.now().Sub(start)
	device, processor := p.platform.Labels()

	metrics.RecordPipeline(string(path), elapsed.Seconds())
	span.SetAttributes(
		attribute.String("path", string(path)),
		attribute.Int64("elapsed_ms", elapsed.Milliseconds()),
	)

	return Result{Success: &Success{
		Image:          out,
		InferenceTime:  elapsed,
		DeviceLabel:    device,
		ProcessorLabel: processor,
		Path:           path,
		FallbackKind:   kind,
	}}
}

// Close releases the model handle. It is safe to call more than once.
func (p *Processor) Close() error {
	return p.handle.Close()
}

func (p *Processor) validate(src image.Image) (*imaging.Image, error) {
	if src == nil {
		return nil, &Error{Kind: InvalidInput, Op: "validate", Err: errors.New("nil image")}
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &Error{Kind: InvalidInput, Op: "validate",
			Err: fmt.Errorf("image is %dx%d", b.Dx(), b.Dy())}
	}
	img, err := imaging.FromImage(src)
	if err != nil {
		return nil, &Error{Kind: InvalidInput, Op: "validate", Err: err}
	}
	return img, nil
}

// run is the model path: resize, encode, infer, decode, reconcile.
func (p *Processor) run(ctx context.Context, original *imaging.Image) (*imaging.Image, error) {
	if !p.handle.Ready() {
		return nil, &Error{Kind: ModelUnavailable, Op: "infer", Err: inference.ErrModelUnavailable}
	}

	var preEncode *imaging.Image
	err := p.stage(ctx, "resize", func() error {
		var err error
		preEncode, err = p.codec.Resize(original)
		return err
	})
	if err != nil {
		return nil, &Error{Kind: InferenceFailure, Op: "resize", Err: err}
	}

	var input tensor.Tensor
	err = p.stage(ctx, "encode", func() error {
		var err error
		input, err = p.codec.Encode(preEncode)
		return err
	})
	if err != nil {
		return nil, &Error{Kind: InferenceFailure, Op: "encode", Err: err}
	}

	var output tensor.Tensor
	err = p.stage(ctx, "infer", func() error {
		start := time.Now()
		var err error
		output, err = p.handle.Infer(input)
		metrics.RecordInferenceLatency(time.Since(start).Seconds())
		return err
	})
	if errors.Is(err, inference.ErrModelUnavailable) {
		return nil, &Error{Kind: ModelUnavailable, Op: "infer", Err: err}
	}
	if err != nil {
		return nil, &Error{Kind: InferenceFailure, Op: "infer", Err: err}
	}

	var decoded *imaging.Image
	err = p.stage(ctx, "decode", func() error {
		var err error
		decoded, err = p.decode(preEncode, output)
		return err
	})
	if err != nil {
		return nil, &Error{Kind: UnusableOutput, Op: "decode", Err: err}
	}

	var reconciled *imaging.Image
	err = p.stage(ctx, "reconcile", func() error {
		var err error
		reconciled, err = Reconcile(original, preEncode, decoded, p.scaler)
		return err
	})
	if err != nil {
		return nil, &Error{Kind: UnusableOutput, Op: "reconcile", Err: err}
	}

	return reconciled, nil
}

// decode dispatches on the output layout. A channel-scalar output is applied
// to the model input image; an image output is decoded per pixel.
func (p *Processor) decode(preEncode *imaging.Image, output tensor.Tensor) (*imaging.Image, error) {
	switch layout := tensor.Classify(output); layout {
	case tensor.LayoutChannelScalar:
		return tensor.ApplyChannelScalars(preEncode, output)
	case tensor.LayoutImage:
		return tensor.Decode(output)
	default:
		return nil, fmt.Errorf("%w: %v", tensor.ErrUnusableOutput, output)
	}
}

func (p *Processor) stage(ctx context.Context, name string, fn func() error) error {
	_, span := p.tracer.Start(ctx, "pipeline."+name)
	defer span.End()

	if err := fn(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
