package remote

import (
	"bytes"
	"encoding/json"
)

// Envelope is the wrapper every remote API response uses.
type Envelope struct {
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	HTTPStatus int             `json:"httpStatus"`
	Error      json.RawMessage `json:"error"`
}

// Failed reports whether the envelope carries a non-null error.
func (e Envelope) Failed() bool {
	return !isNull(e.Error)
}

// Result is the outcome of one remote call: either OK with Data, or Err.
type Result[T any] struct {
	OK   bool
	Data T
	Err  error
}

// Success builds an OK result.
func Success[T any](data T) Result[T] {
	return Result[T]{OK: true, Data: data}
}

// Failure builds a failed result.
func Failure[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Unwrap converts the result into the usual value and error pair.
func (r Result[T]) Unwrap() (T, error) {
	if !r.OK {
		var zero T
		return zero, r.Err
	}
	return r.Data, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
