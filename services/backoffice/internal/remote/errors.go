package remote

import (
	"errors"
	"fmt"
	"net/http"
)

// FallbackMessage is shown when an error carries no server message.
const FallbackMessage = "Something went wrong. Please try again."

// RemoteError is a failure reported by the remote API, either through a
// non-2xx status or a non-null error field in the envelope.
type RemoteError struct {
	Method string
	Path   string
	Status int
	// Message is the server text, shown to users verbatim.
	Message string
	Detail  string
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "no message"
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s: %s", e.Method, e.Path, e.Status, msg, e.Detail)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, msg)
}

func (e *RemoteError) UserMessage() string {
	if e.Message == "" {
		return FallbackMessage
	}
	return e.Message
}

// ParseError reports a response that is not a valid envelope or whose data
// does not match the expected shape.
type ParseError struct {
	Method string
	Path   string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %s: malformed response: %v", e.Method, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type userMessager interface {
	UserMessage() string
}

// UserMessage renders err for display. Errors that carry their own user text
// are shown verbatim; anything else collapses to FallbackMessage.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var m userMessager
	if errors.As(err, &m) {
		if msg := m.UserMessage(); msg != "" {
			return msg
		}
	}
	return FallbackMessage
}

// StatusOf returns the HTTP status to relay for err: the remote status when
// there is one, 504 when the remote API did not answer in time, 502 otherwise.
func StatusOf(err error) int {
	var re *RemoteError
	if errors.As(err, &re) && re.Status >= 400 {
		return re.Status
	}
	if IsTimeout(err) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
