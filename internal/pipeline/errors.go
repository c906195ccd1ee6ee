package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindUnknown is reported for errors that did not come from a Pipeline.
	KindUnknown Kind = iota
	// KindBadRequest means the payload could not be decoded.
	KindBadRequest
	// KindKernelFailure means the kernel call failed.
	KindKernelFailure
	// KindEncodeFailure means the response could not be serialised.
	KindEncodeFailure
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindKernelFailure:
		return "kernel_failure"
	case KindEncodeFailure:
		return "encode_failure"
	default:
		return "unknown"
	}
}

// Error is returned by Process for every failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of a pipeline error, or KindUnknown.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}
