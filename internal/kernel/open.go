package kernel

import "fmt"

// Backend names accepted by Open.
const (
	BackendSigmoid = "sigmoid"
	BackendONNX    = "onnx"
)

// Open constructs the kernel named by backend. For the ONNX backend libPath is
// the model file and sharedLib optionally points at the onnxruntime library.
func Open(backend, libPath, sharedLib string) (Kernel, error) {
	switch backend {
	case "", BackendSigmoid:
		return NewSigmoid(), nil
	case BackendONNX:
		if libPath == "" {
			return nil, fmt.Errorf("onnx backend requires a model path")
		}
		return NewONNX(libPath, sharedLib)
	default:
		return nil, fmt.Errorf("unknown kernel backend %q", backend)
	}
}
