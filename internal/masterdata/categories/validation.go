package categories

import (
	"errors"
	"strings"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
)

func normalize(b Category) Category {
	b.Name = strings.TrimSpace(b.Name)
	return b
}

func (s *Service) validate(b Category) error {
	ve := shared.NewValidationError()
	if b.Name == "" {
		ve.Add("name", "Category name is required")
	} else if len(b.Name) > 120 {
		ve.Add("name", "Category name must be at most 120 characters")
	}
	return ve.Err()
}

func duplicateAsField(err error) error {
	if errors.Is(err, shared.ErrDuplicate) {
		ve := shared.NewValidationError()
		ve.Add("name", "A category with this name already exists")
		return ve
	}
	return err
}
