// Package codec converts between the JSON wire shapes of the batch and service
// front ends and the shared Request/Response types.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// DefaultScale is applied when a request omits scale or sends null.
const DefaultScale float32 = 1.0

// Request is a decoded inference request.
type Request struct {
	Samples []float32
	// Scale is nil when the payload omitted it or sent null.
	Scale *float32
}

// ScaleOrDefault returns the requested scale, or DefaultScale when none was sent.
func (r Request) ScaleOrDefault() float32 {
	if r.Scale == nil {
		return DefaultScale
	}
	return *r.Scale
}

// Response is the result of one successful pipeline call.
type Response struct {
	Output       []float32
	AlgoVersion  string
	ElapsedNanos int64
}

// Envelope selects the outer JSON shape a front end writes.
type Envelope int

const (
	// BatchEnvelope is the indented file format carrying elapsedNs in the body.
	BatchEnvelope Envelope = iota
	// ServiceEnvelope is the compact HTTP body; elapsed time travels in a header.
	ServiceEnvelope
)

func (e Envelope) String() string {
	switch e {
	case BatchEnvelope:
		return "batch"
	case ServiceEnvelope:
		return "service"
	default:
		return fmt.Sprintf("envelope(%d)", int(e))
	}
}

// wireRequest mirrors {"x":[float...],"scale":float|null}. Elements are pointers
// so that null entries inside x can be told apart from zeros. Numbers are read
// as float64 and narrowed afterwards, so magnitudes beyond float32 become ±Inf.
type wireRequest struct {
	X     *[]*float64 `json:"x"`
	Scale *float64    `json:"scale"`
}

// float32Overflow is the smallest magnitude that rounds to infinity as float32:
// MaxFloat32 plus half an ulp at the top exponent.
const float32Overflow = math.MaxFloat32 + 0x1p103

// narrow converts v to float32 with IEEE round-to-nearest, including overflow.
func narrow(v float64) float32 {
	switch {
	case v >= float32Overflow:
		return float32(math.Inf(1))
	case v <= -float32Overflow:
		return float32(math.Inf(-1))
	case v > math.MaxFloat32:
		return math.MaxFloat32
	case v < -math.MaxFloat32:
		return -math.MaxFloat32
	}
	return float32(v)
}

type batchWire struct {
	Y           []float32 `json:"y"`
	AlgoVersion string    `json:"algoVersion"`
	ElapsedNs   int64     `json:"elapsedNs"`
}

type serviceWire struct {
	Y           []float32 `json:"y"`
	AlgoVersion string    `json:"algoVersion"`
}

// Decode parses a request payload. Unknown fields and trailing data are rejected.
func Decode(payload []byte) (Request, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()

	var w wireRequest
	if err := dec.Decode(&w); err != nil {
		if errors.Is(err, io.EOF) {
			return Request{}, &DecodeError{Reason: "empty payload"}
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field == "" {
			return Request{}, &DecodeError{Reason: "request must be a JSON object, got " + typeErr.Value, Err: err}
		}
		if errors.As(err, &typeErr) {
			return Request{}, &DecodeError{Reason: fmt.Sprintf("field %q must be %s, got %s", typeErr.Field, wantType(typeErr.Field), typeErr.Value), Err: err}
		}
		return Request{}, &DecodeError{Reason: "invalid JSON", Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Request{}, &DecodeError{Reason: "unexpected data after request object"}
	}

	if w.X == nil {
		return Request{}, &DecodeError{Reason: `field "x" is required`}
	}

	samples := make([]float32, len(*w.X))
	for i, v := range *w.X {
		if v == nil {
			return Request{}, &DecodeError{Reason: fmt.Sprintf(`x[%d] is null`, i)}
		}
		samples[i] = narrow(*v)
	}

	req := Request{Samples: samples}
	if w.Scale != nil {
		scale := narrow(*w.Scale)
		req.Scale = &scale
	}
	return req, nil
}

func wantType(field string) string {
	if field == "scale" {
		return "a number or null"
	}
	return "an array of numbers"
}

// Encode serialises resp in the requested envelope. Field order is fixed:
// y, algoVersion, then elapsedNs for the batch envelope.
func Encode(resp Response, env Envelope) ([]byte, error) {
	for i, v := range resp.Output {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, &EncodeError{Reason: fmt.Sprintf("y[%d] is not finite (%v)", i, v)}
		}
	}

	out := resp.Output
	if out == nil {
		out = []float32{}
	}

	var (
		body []byte
		err  error
	)
	switch env {
	case BatchEnvelope:
		body, err = json.MarshalIndent(batchWire{
			Y:           out,
			AlgoVersion: resp.AlgoVersion,
			ElapsedNs:   resp.ElapsedNanos,
		}, "", "  ")
	case ServiceEnvelope:
		body, err = json.Marshal(serviceWire{
			Y:           out,
			AlgoVersion: resp.AlgoVersion,
		})
	default:
		return nil, &EncodeError{Reason: fmt.Sprintf("unknown %s", env)}
	}
	if err != nil {
		return nil, &EncodeError{Reason: "marshal failed", Err: err}
	}
	return body, nil
}
