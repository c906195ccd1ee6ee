package kernel

import "math"

// Sigmoid is the built-in kernel: y[i] = 1 / (1 + e^(-x[i]*scale)).
type Sigmoid struct{}

// NewSigmoid returns the built-in kernel.
func NewSigmoid() Sigmoid { return Sigmoid{} }

// Transform never fails. Arithmetic stays in float32 apart from the
// exponential, which is rounded back to float32 before use.
func (Sigmoid) Transform(samples []float32, scale float32) ([]float32, error) {
	out := make([]float32, len(samples))
	for i, x := range samples {
		v := float32(x * scale)
		e := float32(math.Exp(float64(-v)))
		out[i] = float32(1 / float32(1+e))
	}
	return out, nil
}

func (Sigmoid) Close() error { return nil }

var _ Kernel = Sigmoid{}
