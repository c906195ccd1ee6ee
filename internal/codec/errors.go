package codec

// DecodeError reports a malformed or incomplete request payload.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return "decode request: " + e.Reason + ": " + e.Err.Error()
	}
	return "decode request: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a response that could not be serialised.
type EncodeError struct {
	Reason string
	Err    error
}

func (e *EncodeError) Error() string {
	if e.Err != nil {
		return "encode response: " + e.Reason + ": " + e.Err.Error()
	}
	return "encode response: " + e.Reason
}

func (e *EncodeError) Unwrap() error { return e.Err }
