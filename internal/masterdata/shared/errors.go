package shared

import (
	"errors"
	"sort"
	"strings"

	"github.com/odyssey-pos/odyssey-pos/internal/platform/httpx"
)

var (
	ErrNotFound   = httpx.ErrNotFound
	ErrDuplicate  = httpx.ErrDuplicate
	ErrValidation = httpx.ErrValidation
	ErrInvalidID  = errors.New("invalid ID")
	// ErrInUse is returned when a trashed row is still referenced and cannot be purged.
	ErrInUse = errors.New("record is still referenced")
)

// ValidationError carries per-field messages for a rejected form.
type ValidationError struct {
	fields map[string]string
}

// NewValidationError returns an empty ValidationError.
func NewValidationError() *ValidationError {
	return &ValidationError{fields: make(map[string]string)}
}

// Add records msg against field, keeping the first message per field.
func (e *ValidationError) Add(field, msg string) {
	if _, ok := e.fields[field]; !ok {
		e.fields[field] = msg
	}
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool { return len(e.fields) == 0 }

// Err returns nil when nothing failed.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

// Fields returns the field → message map.
func (e *ValidationError) Fields() map[string]string { return e.fields }

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.fields[k])
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Public marks the message as safe to show in forms and flashes.
func (e *ValidationError) Public() bool { return true }

// FieldErrors extracts field messages from err, or nil.
func FieldErrors(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields()
	}
	return nil
}
