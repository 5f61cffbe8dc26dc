package services

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the transport layer can pick a status code.
type Kind string

const (
	KindValidation   Kind = "validation_error"
	KindAuthRequired Kind = "authentication_required"
	KindDenied       Kind = "authorization_denied"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInternal     Kind = "internal_error"
)

type Error struct {
	Kind    Kind
	Field   string // offending or conflicting field, if any
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func validationError(field, message string) error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func conflictError(field, message string) error {
	return &Error{Kind: KindConflict, Field: field, Message: message}
}

func notFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

var (
	ErrAuthRequired = &Error{Kind: KindAuthRequired, Message: "authentication required"}
	ErrDenied       = &Error{Kind: KindDenied, Message: "permission denied"}
)

// internal wraps an unexpected failure. The message shown to callers stays
// generic; the cause is kept for logging.
func internal(op string, err error) error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: fmt.Errorf("%s: %w", op, err)}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// wrap passes service errors through and turns anything else into an
// internal error.
func wrap(op string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return internal(op, err)
}
