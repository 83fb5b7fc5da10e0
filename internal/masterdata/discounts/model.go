package discounts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type selects how a discount value is applied to a subtotal.
type Type string

const (
	TypePercentage Type = "percentage"
	TypeAmount     Type = "amount"
)

// Discount is a reusable checkout discount.
type Discount struct {
	ID        int64           `json:"id" form:"-"`
	Name      string          `json:"name" form:"name" validate:"required,max=120"`
	Type      Type            `json:"type" form:"type" validate:"required,oneof=percentage amount"`
	Value     decimal.Decimal `json:"value" form:"-"`
	CreatedAt time.Time       `json:"created_at" form:"-"`
	UpdatedAt time.Time       `json:"updated_at" form:"-"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty" form:"-"`
}

// Label renders the value for lists and receipts, e.g. "10%" or "30.00".
func (d Discount) Label() string {
	if d.Type == TypePercentage {
		return d.Value.String() + "%"
	}
	return d.Value.StringFixed(2)
}
