// Package pipeline implements the request-processing unit shared by the batch
// and service front ends: decode, default scale, timed kernel call, assemble,
// encode.
package pipeline

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/SyedDaiam9101/algosvc/internal/codec"
	"github.com/SyedDaiam9101/algosvc/internal/kernel"
)

var tracer = otel.Tracer("github.com/SyedDaiam9101/algosvc/internal/pipeline")

// Result carries the encoded body alongside the response it was built from,
// so front ends can surface fields (elapsed time) outside the body.
type Result struct {
	Body     []byte
	Response codec.Response
}

// Pipeline holds no mutable state and is safe for concurrent use.
type Pipeline struct {
	algoVersion string
	invoker     *kernel.Invoker
}

// New creates a Pipeline stamping responses with algoVersion.
func New(algoVersion string, inv *kernel.Invoker) *Pipeline {
	return &Pipeline{algoVersion: algoVersion, invoker: inv}
}

// AlgoVersion returns the version stamped on every response.
func (p *Pipeline) AlgoVersion() string { return p.algoVersion }

// Process handles one raw request payload and encodes the response in env.
func (p *Pipeline) Process(ctx context.Context, raw []byte, env codec.Envelope) (Result, error) {
	ctx, span := tracer.Start(ctx, "pipeline.process")
	defer span.End()
	span.SetAttributes(
		attribute.Int("request.bytes", len(raw)),
		attribute.String("pipeline.envelope", env.String()),
	)

	res, err := p.process(ctx, raw, env)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("pipeline.outcome", KindOf(err).String()))
		return Result{}, err
	}
	span.SetAttributes(
		attribute.String("pipeline.outcome", "ok"),
		attribute.Int64("kernel.elapsed_ns", res.Response.ElapsedNanos),
	)
	return res, nil
}

func (p *Pipeline) process(ctx context.Context, raw []byte, env codec.Envelope) (Result, error) {
	req, err := codec.Decode(raw)
	if err != nil {
		return Result{}, &Error{Kind: KindBadRequest, Err: err}
	}

	out, err := p.invoker.Invoke(ctx, req.Samples, req.ScaleOrDefault())
	if err != nil {
		return Result{}, &Error{Kind: KindKernelFailure, Err: err}
	}

	resp := codec.Response{
		Output:       out.Output,
		AlgoVersion:  p.algoVersion,
		ElapsedNanos: out.ElapsedNanos(),
	}

	body, err := codec.Encode(resp, env)
	if err != nil {
		return Result{}, &Error{Kind: KindEncodeFailure, Err: err}
	}

	return Result{Body: body, Response: resp}, nil
}
