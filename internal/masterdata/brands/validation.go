package brands

import (
	"errors"
	"strings"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
)

func normalize(b Brand) Brand {
	b.Name = strings.TrimSpace(b.Name)
	return b
}

func (s *Service) validate(b Brand) error {
	ve := shared.NewValidationError()
	if b.Name == "" {
		ve.Add("name", "Brand name is required")
	} else if len(b.Name) > 120 {
		ve.Add("name", "Brand name must be at most 120 characters")
	}
	return ve.Err()
}

func duplicateAsField(err error) error {
	if errors.Is(err, shared.ErrDuplicate) {
		ve := shared.NewValidationError()
		ve.Add("name", "A brand with this name already exists")
		return ve
	}
	return err
}
