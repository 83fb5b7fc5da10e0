package suppliers

import (
	"strings"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
)

var labels = map[string]string{
	"name":           "Supplier name",
	"email":          "Email",
	"contact_number": "Contact number",
	"address":        "Address",
}

func normalize(sup Supplier) Supplier {
	sup.Name = strings.TrimSpace(sup.Name)
	sup.Email = strings.ToLower(strings.TrimSpace(sup.Email))
	sup.ContactNumber = strings.TrimSpace(sup.ContactNumber)
	sup.Address = strings.TrimSpace(sup.Address)
	return sup
}

func (s *Service) validate(sup Supplier) error {
	ve := shared.NewValidationError()
	shared.ValidateStruct(ve, sup, labels)
	return ve.Err()
}
