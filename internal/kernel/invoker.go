package kernel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/SyedDaiam9101/algosvc/internal/metrics"
)

var tracer = otel.Tracer("github.com/SyedDaiam9101/algosvc/internal/kernel")

// Fault reports a failed kernel invocation. No partial output accompanies it.
type Fault struct {
	Reason string
	Err    error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return "kernel fault: " + f.Reason + ": " + f.Err.Error()
	}
	return "kernel fault: " + f.Reason
}

func (f *Fault) Unwrap() error { return f.Err }

// IsFault reports whether err is (or wraps) a kernel Fault.
func IsFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}

// Result is the output of one timed kernel call.
type Result struct {
	Output  []float32
	Elapsed time.Duration
}

// ElapsedNanos returns the elapsed time in nanoseconds, never negative.
func (r Result) ElapsedNanos() int64 {
	if r.Elapsed < 0 {
		return 0
	}
	return r.Elapsed.Nanoseconds()
}

// Invoker times kernel calls and normalises every failure into a Fault.
// It never retries.
type Invoker struct {
	kernel Kernel
	now    func() time.Time
}

// InvokerOption configures an Invoker.
type InvokerOption func(*Invoker)

// WithClock replaces time.Now. The clock must be monotonic.
func WithClock(now func() time.Time) InvokerOption {
	return func(inv *Invoker) { inv.now = now }
}

// NewInvoker wraps k.
func NewInvoker(k Kernel, opts ...InvokerOption) *Invoker {
	inv := &Invoker{kernel: k, now: time.Now}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke runs the kernel once over samples.
func (inv *Invoker) Invoke(ctx context.Context, samples []float32, scale float32) (Result, error) {
	_, span := tracer.Start(ctx, "kernel.transform")
	defer span.End()
	span.SetAttributes(
		attribute.Int("kernel.samples", len(samples)),
		attribute.Float64("kernel.scale", float64(scale)),
	)

	if inv.kernel == nil {
		err := &Fault{Reason: "kernel not initialized"}
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	metrics.RecordRequestSamples(len(samples))

	start := inv.now()
	out, err := inv.call(samples, scale)
	elapsed := inv.now().Sub(start)

	if err == nil && len(out) != len(samples) {
		err = &Fault{Reason: fmt.Sprintf("output length %d does not match input length %d", len(out), len(samples))}
	}
	if err != nil {
		metrics.RecordKernelLatency("error", elapsed.Seconds())
		var f *Fault
		if !errors.As(err, &f) {
			err = &Fault{Reason: "transform failed", Err: err}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}

	metrics.RecordKernelLatency("ok", elapsed.Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	return Result{Output: out, Elapsed: elapsed}, nil
}

// call converts a panic raised inside the kernel into a Fault.
func (inv *Invoker) call(samples []float32, scale float32) (out []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = &Fault{Reason: fmt.Sprintf("kernel panicked: %v", r)}
		}
	}()
	return inv.kernel.Transform(samples, scale)
}
