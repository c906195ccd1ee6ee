// internal/kernel/interface.go
package kernel

// Kernel is the numeric transform wrapped by the service.
// Implementations must be pure: the same samples and scale always yield the
// same output, and the output has the same length and order as samples.
type Kernel interface {
	// Transform applies the scale-dependent operation to every sample.
	Transform(samples []float32, scale float32) ([]float32, error)

	// Close releases any resources held by the kernel.
	Close() error
}
