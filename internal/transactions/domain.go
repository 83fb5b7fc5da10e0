package transactions

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/discounts"
)

// StockPolicy selects whether checkout touches product stock.
type StockPolicy string

const (
	// StockPolicyNone leaves stock untouched; stock is managed from the catalog.
	StockPolicyNone StockPolicy = "none"
	// StockPolicyDecrement locks the sold products and reduces their stock.
	StockPolicyDecrement StockPolicy = "decrement"
)

// ParseStockPolicy maps a config value onto a policy, defaulting to none.
func ParseStockPolicy(raw string) StockPolicy {
	if StockPolicy(raw) == StockPolicyDecrement {
		return StockPolicyDecrement
	}
	return StockPolicyNone
}

// Transaction is a completed sale.
type Transaction struct {
	ID                int64           `json:"id"`
	UserID            int64           `json:"user_id"`
	UserName          string          `json:"user_name,omitempty"`
	CustomerName      string          `json:"customer_name"`
	CustomerEmail     string          `json:"customer_email,omitempty"`
	DiscountID        *int64          `json:"discount_id,omitempty"`
	Discount          *DiscountRule   `json:"discount,omitempty"`
	PaymentMethodID   int64           `json:"payment_method_id"`
	PaymentMethodName string          `json:"payment_method_name,omitempty"`
	AmountTendered    decimal.Decimal `json:"amount_tendered"`
	ChangeDue         decimal.Decimal `json:"change_due"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	CreatedAt         time.Time       `json:"created_at"`
	DeletedAt         *time.Time      `json:"deleted_at,omitempty"`
	Items             []Item          `json:"items"`
}

// Subtotal sums the line totals before discount.
func (t Transaction) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range t.Items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// DiscountAmount is the discount granted on the receipt. An amount discount
// that exceeded the subtotal is shown at its configured value.
func (t Transaction) DiscountAmount() decimal.Decimal {
	applied := t.Subtotal().Sub(t.TotalAmount)
	if d := t.Discount; d != nil && d.Type == discounts.TypeAmount &&
		t.TotalAmount.IsZero() && d.Value.GreaterThan(applied) {
		return d.Value
	}
	return applied
}

// Item is one line of a transaction, priced at the time of sale.
type Item struct {
	ID            int64           `json:"id"`
	TransactionID int64           `json:"transaction_id"`
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name,omitempty"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
}

// LineTotal is price × quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// DiscountRule is the subset of a discount needed to price a cart.
type DiscountRule struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Type  discounts.Type  `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// ProductRef is an active product as seen by checkout.
type ProductRef struct {
	ID    int64
	Name  string
	Stock int
}

// MaxLineQuantity caps a single cart line; it must match the lte tag on
// LineInput.Quantity.
const MaxLineQuantity = 10000

// MaxAmount is the largest value a NUMERIC(14,2) money column holds.
var MaxAmount = decimal.RequireFromString("999999999999.99")

// LineInput is one submitted cart line.
type LineInput struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  int             `json:"quantity" validate:"required,gte=1,lte=10000"`
	Price     decimal.Decimal `json:"price"`
}

// CreateRequest is the checkout payload.
type CreateRequest struct {
	Items           []LineInput     `json:"items" validate:"required,min=1,dive"`
	CustomerName    string          `json:"customer_name" validate:"required,max=200"`
	CustomerEmail   string          `json:"customer_email" validate:"required,email,max=200"`
	DiscountID      *int64          `json:"discount_id,omitempty" validate:"omitempty,gt=0"`
	PaymentMethodID int64           `json:"payment_method_id" validate:"required,gt=0"`
	AmountTendered  decimal.Decimal `json:"amount_tendered"`
	ChangeDue       decimal.Decimal `json:"change_due"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	IdempotencyKey  string          `json:"idempotency_key,omitempty" validate:"max=100"`
}
