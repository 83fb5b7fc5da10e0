package discounts

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
)

var hundred = decimal.NewFromInt(100)

var labels = map[string]string{
	"name": "Discount name",
	"type": "Discount type",
}

func normalize(d Discount) Discount {
	d.Name = strings.TrimSpace(d.Name)
	d.Type = Type(strings.ToLower(strings.TrimSpace(string(d.Type))))
	return d
}

func (s *Service) validate(d Discount) error {
	ve := shared.NewValidationError()
	shared.ValidateStruct(ve, d, labels)
	if d.Value.IsNegative() {
		ve.Add("value", "Value must be at least 0")
	}
	if d.Type == TypePercentage && d.Value.GreaterThan(hundred) {
		ve.Add("value", "A percentage discount cannot exceed 100")
	}
	return ve.Err()
}
