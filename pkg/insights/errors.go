package insights

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure. Each stage reports its own kind.
type Kind string

const (
	KindFetch               Kind = "fetch_error"
	KindStorage             Kind = "storage_error"
	KindTranscode           Kind = "transcode_error"
	KindSessionStart        Kind = "session_start_error"
	KindRecognitionCanceled Kind = "recognition_canceled"
	KindPersistence         Kind = "persistence_error"
	KindConfiguration       Kind = "configuration_error"
	KindValidation          Kind = "validation_error"
	KindUnknown             Kind = "unknown_error"
)

// Error is the classified error returned by every pipeline stage.
type Error struct {
	Kind Kind
	// Op names the failing operation, e.g. "fetch" or "stop recognition".
	Op string
	// Details is human readable diagnostic output (process stderr, service error details).
	Details string
	Err     error
}

func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Details != "" {
		msg += ": " + e.Details
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Errorf is a shorthand for NewError with a formatted cause.
func Errorf(kind Kind, op, format string, args ...interface{}) *Error {
	return NewError(kind, op, fmt.Errorf(format, args...))
}
