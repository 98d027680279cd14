package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a business error so transport layers can map it to a
// status code without inspecting message text.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindNotFound
	KindRoomUnavailable
	KindConflict
	KindInvalidTransition
	KindForbidden
	KindNotCancellable
	KindConstraintViolation
	KindStoreFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindRoomUnavailable:
		return "room_unavailable"
	case KindConflict:
		return "conflict"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindForbidden:
		return "forbidden"
	case KindNotCancellable:
		return "not_cancellable"
	case KindConstraintViolation:
		return "constraint_violation"
	case KindStoreFailure:
		return "store_failure"
	default:
		return "unknown"
	}
}

// Error is a business error carrying its kind and an optional underlying cause.
type Error struct {
	Kind    Kind
	Message string // user-facing error message
	Err     error  // the underlying error, if any (not exposed to callers)
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with a kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a new Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
