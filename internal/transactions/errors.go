package transactions

import (
	"errors"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/platform/httpx"
)

var (
	ErrNotFound   = httpx.ErrNotFound
	ErrValidation = httpx.ErrValidation
	// ErrUnauthenticated is returned when no operator is attached to the request.
	ErrUnauthenticated = errors.New("transactions: operator not signed in")
)

// ValidationError carries field → message pairs. Keys follow the form
// names, with cart lines addressed as items.N.field.
type ValidationError = shared.ValidationError

func newValidationError() *ValidationError {
	return shared.NewValidationError()
}
