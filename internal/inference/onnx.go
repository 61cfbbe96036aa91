package inference

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/SyedDaiam9101/enhance-service/internal/tensor"
)

// ONNX wraps an ONNX runtime session for thread-safe inference.
// It implements the Engine interface.
type ONNX struct {
	mu         sync.Mutex
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
}

// ONNXOptions tunes how the runtime is brought up.
type ONNXOptions struct {
	// LibraryPath points at libonnxruntime; empty uses the runtime default.
	LibraryPath string
}

var (
	envMu    sync.Mutex
	envRefs  int
	envOwned bool

	ortIsInitialized  = func() bool { return ort.IsInitialized() }
	ortSetLibraryPath = func(path string) { ort.SetSharedLibraryPath(path) }
	ortInitialize     = func() error { return ort.InitializeEnvironment() }
	ortDestroy        = func() error { return ort.DestroyEnvironment() }
)

// acquireEnvironment initializes the process-wide ONNX environment on first
// use and counts its users. An environment some other code already set up
// is used as is and left alone on release.
func acquireEnvironment(libraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		envOwned = false
		if !ortIsInitialized() {
			if libraryPath != "" {
				ortSetLibraryPath(libraryPath)
			}
			if err := ortInitialize(); err != nil {
				return fmt.Errorf("failed to initialize ONNX environment: %w", err)
			}
			envOwned = true
		}
	}
	envRefs++
	return nil
}

func releaseEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()

	if envRefs == 0 {
		return nil
	}
	envRefs--
	if envRefs == 0 && envOwned {
		envOwned = false
		return ortDestroy()
	}
	return nil
}

// NewONNX loads the model at modelPath. The first input and first output
// declared by the model are used; the output is allocated by the runtime so
// its shape is whatever the model produces.
func NewONNX(modelPath string, opts ONNXOptions) (*ONNX, error) {
	if err := acquireEnvironment(opts.LibraryPath); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		releaseEnvironment()
		return nil, fmt.Errorf("failed to read model metadata: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		releaseEnvironment()
		return nil, fmt.Errorf("model declares %d inputs and %d outputs", len(inputs), len(outputs))
	}

	inputName, outputName := inputs[0].Name, outputs[0].Name
	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputName},
		[]string{outputName},
		nil, // Use default session options
	)
	if err != nil {
		releaseEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNX{
		session:    session,
		inputName:  inputName,
		outputName: outputName,
	}, nil
}

// Infer runs a single forward pass on the CPU.
func (o *ONNX) Infer(in tensor.Tensor) (tensor.Tensor, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session == nil {
		return tensor.Tensor{}, ErrModelUnavailable
	}

	// Data returns a copy, so the runtime never sees the caller's buffer.
	inputTensor, err := ort.NewTensor(ort.NewShape(in.Shape()...), in.Data())
	if err != nil {
		return tensor.Tensor{}, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := o.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return tensor.Tensor{}, fmt.Errorf("inference failed: %w", err)
	}
	if outputs[0] == nil {
		return tensor.Tensor{}, fmt.Errorf("inference failed: no output %q", o.outputName)
	}
	defer outputs[0].Destroy()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return tensor.Tensor{}, fmt.Errorf("output %q is not a float32 tensor", o.outputName)
	}

	return tensor.New(out.GetShape(), out.GetData())
}

// Close releases the ONNX session resources
func (o *ONNX) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session == nil {
		return nil
	}

	err := o.session.Destroy()
	o.session = nil
	if envErr := releaseEnvironment(); err == nil {
		err = envErr
	}
	if err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	return nil
}

// OpenONNX adapts NewONNX to an Opener.
func OpenONNX(opts ONNXOptions) Opener {
	return func(path string) (Engine, error) {
		return NewONNX(path, opts)
	}
}

// Ensure ONNX implements Engine at compile time
var _ Engine = (*ONNX)(nil)
