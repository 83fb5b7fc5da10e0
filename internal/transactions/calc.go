package transactions

import (
	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/discounts"
)

var (
	hundred = decimal.NewFromInt(100)
	// tolerance below which client-submitted totals count as matching.
	tolerance = decimal.RequireFromString("0.005")
)

// Totals are the server-derived money fields of a checkout.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	Tendered       decimal.Decimal
	Change         decimal.Decimal
}

// Covered reports whether the tendered amount pays the total.
func (t Totals) Covered() bool {
	return !t.Tendered.LessThan(t.Total)
}

// ComputeTotals prices a cart exactly. An amount discount larger than the
// subtotal floors the total at zero; DiscountAmount stays the configured value.
func ComputeTotals(lines []LineInput, discount *DiscountRule, tendered decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	discountAmount := decimal.Zero
	if discount != nil {
		switch discount.Type {
		case discounts.TypePercentage:
			discountAmount = subtotal.Mul(discount.Value).Div(hundred)
		case discounts.TypeAmount:
			discountAmount = discount.Value
		}
	}

	total := subtotal.Sub(discountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		Total:          total,
		Tendered:       tendered,
		Change:         tendered.Sub(total),
	}
}

// differs reports whether a client-submitted value disagrees with the derived one.
func differs(client, derived decimal.Decimal) bool {
	return client.Sub(derived).Abs().GreaterThan(tolerance)
}
