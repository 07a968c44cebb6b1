package domain

import "errors"

// Kind is a machine-readable failure category surfaced to callers.
type Kind string

const (
	KindInvalidInput Kind = "INVALID_INPUT"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindConflict     Kind = "CONFLICT"
	KindNotFound     Kind = "NOT_FOUND"
	KindInvalidState Kind = "INVALID_STATE"
)

// Error is the typed failure returned by backlog and coordinator operations.
type Error struct {
	Kind    Kind              // failure category
	Message string            // human-readable reason
	Fields  map[string]string // per-field reasons, InvalidInput only
	Cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

var (
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrInvalidState = &Error{Kind: KindInvalidState}
)

func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewFieldError builds an InvalidInput error keyed by field name.
func NewFieldError(fields map[string]string) *Error {
	return &Error{Kind: KindInvalidInput, Message: "invalid fields", Fields: fields}
}

func InvalidInput(message string) *Error { return NewError(KindInvalidInput, message) }
func Unauthorized(message string) *Error { return NewError(KindUnauthorized, message) }
func Conflict(message string) *Error     { return NewError(KindConflict, message) }
func NotFound(message string) *Error     { return NewError(KindNotFound, message) }
func InvalidState(message string) *Error { return NewError(KindInvalidState, message) }

// KindOf reports the kind of err, or "" if err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
