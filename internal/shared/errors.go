package shared

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// publicError marks errors whose message can be shown to operators as is.
type publicError interface {
	error
	Public() bool
}

// UserSafeMessage converts an error into a message suitable for flashes and
// form banners. Internal failures collapse to a generic sentence.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	var pub publicError
	if errors.As(err, &pub) && pub.Public() {
		return pub.Error()
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "The requested record was not found."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request took too long. Please try again."
	}
	return "Something went wrong. Please try again."
}

// PublicError wraps a message that is safe to display to the operator.
type PublicError struct {
	Msg string
	Err error
}

func (e *PublicError) Error() string { return e.Msg }

// Unwrap exposes the wrapped sentinel.
func (e *PublicError) Unwrap() error { return e.Err }

// Public implements publicError.
func (e *PublicError) Public() bool { return true }
