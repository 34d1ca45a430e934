package errs

import (
	"errors"
	"fmt"
)

var (
	Unauthenticated = NewUnauthenticatedError("unauthenticated")
)

type Error struct {
	Kind    Kind
	Message string
	Field   *string
}

type Kind string

const (
	KindInvalidArgument  Kind = "invalid_argument"
	KindNotFound         Kind = "not_found"
	KindAlreadyExists    Kind = "already_exists"
	KindPermissionDenied Kind = "permission_denied"
	KindUnauthenticated  Kind = "unauthenticated"
	KindBlocked          Kind = "blocked"
	KindUnavailable      Kind = "unavailable"
)

func NewInvalidArgumentError(field, message string) *Error {
	return &Error{
		Kind:    KindInvalidArgument,
		Message: message,
		Field:   &field,
	}
}

func NewNotFoundError(message string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: message,
	}
}

func NewAlreadyExistsError(message string) *Error {
	return &Error{
		Kind:    KindAlreadyExists,
		Message: message,
	}
}

func NewPermissionDeniedError(message string) *Error {
	return &Error{
		Kind:    KindPermissionDenied,
		Message: message,
	}
}

func NewUnauthenticatedError(message string) *Error {
	return &Error{
		Kind:    KindUnauthenticated,
		Message: message,
	}
}

// NewBlockedError denotes an action refused because of a block edge in
// either direction between the two users involved.
func NewBlockedError(message string) *Error {
	return &Error{
		Kind:    KindBlocked,
		Message: message,
	}
}

// NewUnavailableError denotes a transient persistence or transport
// failure. It is the only kind callers may retry.
func NewUnavailableError(message string) *Error {
	return &Error{
		Kind:    KindUnavailable,
		Message: message,
	}
}

func (e *Error) Error() string {
	if e.Field != nil {
		return fmt.Sprintf("%s (field: %s): %s", e.Kind, *e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func IsAlreadyExists(err error) bool {
	return KindOf(err) == KindAlreadyExists
}

func IsPermissionDenied(err error) bool {
	return KindOf(err) == KindPermissionDenied
}

func IsBlocked(err error) bool {
	return KindOf(err) == KindBlocked
}

func IsUnavailable(err error) bool {
	return KindOf(err) == KindUnavailable
}
