// internal/kernel/kernel_test.go
package kernel

import (
	"math"
	"os"
	"testing"
)

func TestMock_Transform(t *testing.T) {
	mock := NewMock()

	out, err := mock.Transform([]float32{1, 2, -3}, 2)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	expected := []float32{2, 4, -6}
	if len(out) != len(expected) {
		t.Fatalf("Expected %d samples, got %d", len(expected), len(out))
	}
	for i, v := range expected {
		if out[i] != v {
			t.Errorf("out[%d] = %f, expected %f", i, out[i], v)
		}
	}

	if mock.Calls() != 1 {
		t.Errorf("Expected Calls()=1, got %d", mock.Calls())
	}
}

func TestMock_TransformError(t *testing.T) {
	mock := NewMock()
	mock.SetError("test error")

	_, err := mock.Transform([]float32{1}, 1)
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if err.Error() != "test error" {
		t.Errorf("Expected 'test error', got '%s'", err.Error())
	}

	mock.ClearError()
	if _, err := mock.Transform([]float32{1}, 1); err != nil {
		t.Errorf("Expected no error after ClearError, got %v", err)
	}
}

func TestMock_CustomFunc(t *testing.T) {
	mock := NewMockWithFunc(func(x, scale float32) float32 { return x + scale })

	out, err := mock.Transform([]float32{1, 2}, 10)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if out[0] != 11 || out[1] != 12 {
		t.Errorf("unexpected output %v", out)
	}
}

func TestSigmoid_Transform(t *testing.T) {
	k := NewSigmoid()

	out, err := k.Transform([]float32{0, 3, -3, 1}, 1)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	expected := []float64{0.5, 0.95257413, 0.04742587, 0.7310586}
	for i, want := range expected {
		if math.Abs(float64(out[i])-want) > 1e-6 {
			t.Errorf("out[%d] = %v, expected %v", i, out[i], want)
		}
	}
}

func TestSigmoid_SinglePrecisionBits(t *testing.T) {
	k := NewSigmoid()

	cases := []struct {
		x    float32
		want uint32
	}{
		{1.5, 0x3f514c8f},
		{2, 0x3f617bea},
		{-10, 0x383e6998},
	}
	for _, tc := range cases {
		out, err := k.Transform([]float32{tc.x}, 1)
		if err != nil {
			t.Fatalf("Transform failed: %v", err)
		}
		if got := math.Float32bits(out[0]); got != tc.want {
			t.Errorf("sigmoid(%v) bits = %#x, expected %#x", tc.x, got, tc.want)
		}
	}
}

func TestSigmoid_ScaleAndSaturation(t *testing.T) {
	k := NewSigmoid()

	scaled, _ := k.Transform([]float32{1.5}, 2)
	direct, _ := k.Transform([]float32{3}, 1)
	if scaled[0] != direct[0] {
		t.Errorf("sigmoid(1.5*2) = %v, sigmoid(3*1) = %v", scaled[0], direct[0])
	}

	sat, _ := k.Transform([]float32{1e30, -1e30}, 1e10)
	if sat[0] != 1 || sat[1] != 0 {
		t.Errorf("expected saturation to [1 0], got %v", sat)
	}
}

func TestSigmoid_Empty(t *testing.T) {
	out, err := NewSigmoid().Transform(nil, 1)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("expected empty output, got %v", out)
	}
}

func TestOpen(t *testing.T) {
	k, err := Open(BackendSigmoid, "", "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, ok := k.(Sigmoid); !ok {
		t.Errorf("expected Sigmoid, got %T", k)
	}

	if _, err := Open(BackendONNX, "", ""); err == nil {
		t.Error("expected error for onnx backend without model path")
	}
	if _, err := Open("cuda", "", ""); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestONNX_WithModel(t *testing.T) {
	// Skip if ONNX model or library is not available
	modelPath := "testdata/sigmoid.onnx"
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		t.Skip("Skipping ONNX kernel test: testdata/sigmoid.onnx not found")
	}

	k, err := NewONNX(modelPath, os.Getenv("ONNXRUNTIME_LIB"))
	if err != nil {
		t.Skipf("Skipping ONNX kernel test: %v", err)
	}
	defer k.Close()

	in := []float32{0, 3, -3}
	out, err := k.Transform(in, 1)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("Expected %d samples, got %d", len(in), len(out))
	}

	ref, _ := NewSigmoid().Transform(in, 1)
	for i := range ref {
		if math.Abs(float64(out[i]-ref[i])) > 1e-5 {
			t.Errorf("out[%d] = %v, reference %v", i, out[i], ref[i])
		}
	}
}
