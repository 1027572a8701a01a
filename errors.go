package soci

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies a failure so callers can branch on the kind of
// fault without parsing messages.
type ErrorCategory int

const (
	// ErrConnection: the driver could not establish, or lost, a connection.
	ErrConnection ErrorCategory = iota
	// ErrPrepare: the backend refused the SQL text.
	ErrPrepare
	// ErrBind: unknown parameter name, mixed binding modes, or an
	// unsupported exchange kind.
	ErrBind
	// ErrExecute: the driver reported a runtime error during execution.
	ErrExecute
	// ErrFetch: the driver reported an error while streaming results.
	ErrFetch
	// ErrType: null without indicator, intolerable truncation, or an
	// unknown backend type during describe.
	ErrType
	// ErrConversion: a user type conversion rejected a value.
	ErrConversion
	// ErrUsage: a contract violation by the caller.
	ErrUsage
)

// String returns the category name, for diagnostics.
func (c ErrorCategory) String() string {
	switch c {
	case ErrConnection:
		return "connection"
	case ErrPrepare:
		return "prepare"
	case ErrBind:
		return "bind"
	case ErrExecute:
		return "execute"
	case ErrFetch:
		return "fetch"
	case ErrType:
		return "type"
	case ErrConversion:
		return "conversion"
	case ErrUsage:
		return "usage"
	}
	return "unknown"
}

// ErrNoData is a sentinel for a query that produced no rows. The one-shot
// helpers in this package do not return it; they report an empty result
// through their boolean return.
var ErrNoData = errors.New("soci: no data")

// Error is the single failure type reported by the library. It carries a
// category, a message, an optional backend-native error code, and the
// underlying driver error when there is one.
type Error struct {
	Category   ErrorCategory
	Message    string
	NativeCode int   // backend-specific error code, 0 when not applicable
	Cause      error // underlying driver error, nil for pure core errors
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("soci: %s: %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("soci: %s: %s", e.Category, e.Message)
}

// Unwrap exposes the driver error to errors.Is / errors.As chains.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches two soci errors by category, so that
// errors.Is(err, &soci.Error{Category: soci.ErrUsage}) works as a filter.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message != "" && t.Message != e.Message {
		return false
	}
	return t.Category == e.Category
}

// newError builds a core error without a driver cause.
func newError(cat ErrorCategory, format string, args ...any) *Error {
	return &Error{Category: cat, Message: fmt.Sprintf(format, args...)}
}

// wrapError attaches a driver cause to a categorized error.
func wrapError(cat ErrorCategory, cause error, format string, args ...any) *Error {
	return &Error{Category: cat, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CategoryOf extracts the category from any error produced by the library.
// The second result is false when err is not a soci error.
func CategoryOf(err error) (ErrorCategory, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Category, true
	}
	return 0, false
}
