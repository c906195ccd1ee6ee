// internal/kernel/onnx.go
package kernel

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Model tensor names. The graph takes x:[1,n] and scale:[1] and yields y:[1,n].
const (
	onnxInputSamples = "x"
	onnxInputScale   = "scale"
	onnxOutput       = "y"
)

// ONNX runs the transform through an onnxruntime session.
// Session use is serialised; the runtime session is not shared across calls.
type ONNX struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
}

// NewONNX loads the model at modelPath. sharedLib overrides the location of the
// onnxruntime shared library when non-empty.
func NewONNX(modelPath, sharedLib string) (*ONNX, error) {
	if sharedLib != "" {
		ort.SetSharedLibraryPath(sharedLib)
	}

	// Initialize the ONNX runtime environment
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{onnxInputSamples, onnxInputScale},
		[]string{onnxOutput},
		nil, // Use default session options
	)
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNX{session: session}, nil
}

// Transform runs one forward pass over samples.
func (o *ONNX) Transform(samples []float32, scale float32) ([]float32, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session == nil {
		return nil, fmt.Errorf("inference session is nil")
	}

	n := int64(len(samples))
	if n == 0 {
		return []float32{}, nil
	}

	in := make([]float32, n)
	copy(in, samples)
	inputTensor, err := ort.NewTensor(ort.NewShape(1, n), in)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	scaleTensor, err := ort.NewTensor(ort.NewShape(1), []float32{scale})
	if err != nil {
		return nil, fmt.Errorf("failed to create scale tensor: %w", err)
	}
	defer scaleTensor.Destroy()

	outputTensor, err := ort.NewTensor(ort.NewShape(1, n), make([]float32, n))
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer outputTensor.Destroy()

	err = o.session.Run(
		[]ort.ArbitraryTensor{inputTensor, scaleTensor},
		[]ort.ArbitraryTensor{outputTensor},
	)
	if err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	// The tensor's backing slice is released by Destroy.
	out := make([]float32, n)
	copy(out, outputTensor.GetData())
	return out, nil
}

// Close releases the ONNX session resources
func (o *ONNX) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session != nil {
		err := o.session.Destroy()
		o.session = nil
		if err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
	}

	return ort.DestroyEnvironment()
}

// Ensure ONNX implements Kernel at compile time
var _ Kernel = (*ONNX)(nil)
