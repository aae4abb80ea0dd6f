package crud

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed controller operation.
type ErrorKind int

const (
	// TransportFailure means the request never produced an HTTP response
	// (connection refused, DNS, timeout, open circuit breaker).
	TransportFailure ErrorKind = iota + 1
	// ServerFailure means the server answered with a non-2xx status.
	ServerFailure
	// MalformedResponse means a 2xx response could not be decoded.
	MalformedResponse
	// InvalidArgument means the operation was rejected before any request
	// was sent (missing id, unencodable record).
	InvalidArgument
)

func (k ErrorKind) String() string {
	switch k {
	case TransportFailure:
		return "transport failure"
	case ServerFailure:
		return "server failure"
	case MalformedResponse:
		return "malformed response"
	case InvalidArgument:
		return "invalid argument"
	default:
		return "unknown"
	}
}

// ErrMissingID is wrapped by the InvalidArgument error returned when an
// update, partial update or delete is issued for a record without identity.
var ErrMissingID = errors.New("record has no id")

// Error is the single error type surfaced by a Controller. Its message is
// what ends up in State.ErrorMessage.
type Error struct {
	Kind     ErrorKind
	Resource string
	Op       string
	Status   int    // HTTP status, ServerFailure only
	Detail   string // server-provided detail, ServerFailure only
	Err      error
}

func (e *Error) Error() string {
	prefix := e.Resource + " " + e.Op
	switch e.Kind {
	case ServerFailure:
		msg := fmt.Sprintf("%s: request failed with status code %d", prefix, e.Status)
		if e.Detail != "" {
			msg += ": " + e.Detail
		}
		return msg
	case TransportFailure, MalformedResponse, InvalidArgument:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", prefix, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s: %s", prefix, e.Kind)
	default:
		return prefix + ": unknown error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports whether the server answered 404.
func (e *Error) NotFound() bool {
	return e.Kind == ServerFailure && e.Status == http.StatusNotFound
}

// IsNotFound reports whether err is a controller error for a 404 response.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.NotFound()
}

// KindOf returns the ErrorKind of err, or 0 when err is not a controller error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
