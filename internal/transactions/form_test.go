package transactions

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCheckoutFormIndexed(t *testing.T) {
	values := url.Values{
		"items[1][product_id]": {"2"},
		"items[1][quantity]":   {"1"},
		"items[1][price]":      {"50.00"},
		"items[0][product_id]": {"1"},
		"items[0][quantity]":   {"2"},
		"items[0][price]":      {"100.00"},
		"items[5][product_id]": {""},
		"customer_name":        {"Dewi"},
		"customer_email":       {"dewi@example.com"},
		"discount_id":          {"3"},
		"payment_method_id":    {"1"},
		"amount_tendered":      {"300"},
		"idempotency_key":      {"abc"},
	}

	form := ParseCheckoutForm(values)
	require.Len(t, form.Lines, 3)
	assert.Equal(t, "1", form.Lines[0].ProductID)
	assert.Equal(t, "2", form.Lines[1].ProductID)

	req, ve := form.Request()
	require.True(t, ve.Empty(), ve.Error())
	require.Len(t, req.Items, 2, "blank lines are dropped")
	assert.Equal(t, int64(1), req.Items[0].ProductID)
	assert.Equal(t, 2, req.Items[0].Quantity)
	assertMoney(t, "50", req.Items[1].Price)
	require.NotNil(t, req.DiscountID)
	assert.Equal(t, int64(3), *req.DiscountID)
	assert.Equal(t, int64(1), req.PaymentMethodID)
	assertMoney(t, "300", req.AmountTendered)
	assert.True(t, req.TotalAmount.IsZero())
	assert.Equal(t, "abc", req.IdempotencyKey)
}

func TestParseCheckoutFormParallelArrays(t *testing.T) {
	values := url.Values{
		"product_id": {"4", "5"},
		"quantity":   {"1", "3"},
		"price":      {"9.99"},
	}

	form := ParseCheckoutForm(values)
	require.Len(t, form.Lines, 2)
	assert.Equal(t, FormLine{ProductID: "5", Quantity: "3"}, form.Lines[1])

	req, ve := form.Request()
	require.True(t, ve.Empty())
	assert.True(t, req.Items[1].Price.IsZero())
	assert.Nil(t, req.DiscountID)
}

func TestCheckoutFormRequestReportsUnparsable(t *testing.T) {
	form := CheckoutForm{
		Lines: []FormLine{
			{ProductID: "1", Quantity: "2", Price: "10"},
			{ProductID: "x", Quantity: "1.5", Price: "ten"},
		},
		DiscountID:      "none",
		PaymentMethodID: "cash",
		AmountTendered:  "lots",
	}

	_, ve := form.Request()
	fields := ve.Fields()
	assert.Equal(t, "Product is invalid", fields["items.1.product_id"])
	assert.Equal(t, "Quantity must be a whole number", fields["items.1.quantity"])
	assert.Equal(t, "Price must be a number", fields["items.1.price"])
	assert.Contains(t, fields, "discount_id")
	assert.Contains(t, fields, "payment_method_id")
	assert.Equal(t, "Amount tendered must be a number", fields["amount_tendered"])
	assert.NotContains(t, fields, "items.0.price")
}

func TestFormFromRequestRoundTrip(t *testing.T) {
	req := scenarioRequest()
	req.DiscountID = ptr(2)

	form := FormFromRequest(req)
	assert.Equal(t, "2", form.DiscountID)
	assert.Equal(t, "1", form.PaymentMethodID)
	require.Len(t, form.Lines, 2)
	assert.Equal(t, "100", form.Lines[0].Price)

	back, ve := form.Request()
	require.True(t, ve.Empty())
	assert.Equal(t, req.Items[0].ProductID, back.Items[0].ProductID)
	assertMoney(t, "100", back.Items[0].Price)
}
