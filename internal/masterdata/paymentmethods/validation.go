package paymentmethods

import (
	"errors"
	"strings"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
)

func normalize(b PaymentMethod) PaymentMethod {
	b.Name = strings.TrimSpace(b.Name)
	return b
}

func (s *Service) validate(b PaymentMethod) error {
	ve := shared.NewValidationError()
	if b.Name == "" {
		ve.Add("name", "Payment method name is required")
	} else if len(b.Name) > 120 {
		ve.Add("name", "Payment method name must be at most 120 characters")
	}
	return ve.Err()
}

func duplicateAsField(err error) error {
	if errors.Is(err, shared.ErrDuplicate) {
		ve := shared.NewValidationError()
		ve.Add("name", "A payment method with this name already exists")
		return ve
	}
	return err
}
