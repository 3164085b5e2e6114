package errs

import (
	"errors"
	"fmt"
)

// Kind classifies why a widget refresh failed.
type Kind string

const (
	KindNone          Kind = ""
	KindConfiguration Kind = "configuration"
	KindTransport     Kind = "transport"
	KindProvider      Kind = "provider"
	KindRateLimit     Kind = "rate_limit"
	KindPremium       Kind = "premium"
)

// Error is a refresh failure carrying its kind next to the human-readable message.
type Error struct {
	Kind     Kind
	Provider string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Configuration(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

func Transport(provider string, err error, format string, args ...any) *Error {
	return &Error{Kind: KindTransport, Provider: provider, Message: fmt.Sprintf(format, args...), Err: err}
}

func Provider(provider string, kind Kind, message string) *Error {
	if kind == KindNone {
		kind = KindProvider
	}
	return &Error{Kind: kind, Provider: provider, Message: message}
}

// KindOf returns the Kind of err, or KindTransport for errors that carry none.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransport
}

// NotFoundError and ValidationError are returned by the store and surfaced by the HTTP layer.
type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

func NewNotFoundError(message string) *NotFoundError { return &NotFoundError{Message: message} }

func NewValidationError(message string) *ValidationError { return &ValidationError{Message: message} }
