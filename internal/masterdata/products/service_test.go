package products

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
)

type mockRepo struct {
	refs    References
	created []Product
}

func (m *mockRepo) List(context.Context, shared.ListFilters) ([]Product, int, error) { return m.created, len(m.created), nil }
func (m *mockRepo) Get(context.Context, int64) (Product, error)                      { return Product{}, shared.ErrNotFound }
func (m *mockRepo) Create(_ context.Context, p Product) (Product, error) {
	p.ID = int64(len(m.created) + 1)
	m.created = append(m.created, p)
	return p, nil
}
func (m *mockRepo) Update(context.Context, int64, Product) error { return nil }
func (m *mockRepo) SoftDelete(context.Context, int64) error      { return nil }
func (m *mockRepo) Restore(context.Context, int64) error         { return nil }
func (m *mockRepo) ForceDelete(context.Context, int64) error     { return nil }
func (m *mockRepo) Count(context.Context) (int, error)           { return len(m.created), nil }
func (m *mockRepo) CheckReferences(context.Context, int64, int64, int64) (References, error) {
	return m.refs, nil
}

func validProduct() Product {
	return Product{
		Name:         "Sparkling Water",
		BrandID:      1,
		CategoryID:   2,
		SupplierID:   3,
		BuyingPrice:  decimal.RequireFromString("0.80"),
		SellingPrice: decimal.RequireFromString("1.50"),
		Stock:        24,
	}
}

func allRefs() References { return References{Brand: true, Category: true, Supplier: true} }

func TestCreateProduct(t *testing.T) {
	repo := &mockRepo{refs: allRefs()}
	svc := NewService(repo, nil, nil)

	p := validProduct()
	p.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString("1.50"))
	created, err := svc.Create(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.False(t, created.OnSale())
	assert.True(t, created.UnitPrice().Equal(decimal.RequireFromString("1.50")))
}

func TestSalePriceCannotExceedSellingPrice(t *testing.T) {
	svc := NewService(&mockRepo{refs: allRefs()}, nil, nil)

	p := validProduct()
	p.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString("1.51"))
	_, err := svc.Create(context.Background(), p)
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, "Sale price cannot exceed the selling price", shared.FieldErrors(err)["sale_price"])
}

func TestProductFieldRules(t *testing.T) {
	svc := NewService(&mockRepo{refs: allRefs()}, nil, nil)

	p := validProduct()
	p.Name = " "
	p.Stock = -1
	p.BuyingPrice = decimal.NewFromInt(-2)
	_, err := svc.Create(context.Background(), p)
	require.ErrorIs(t, err, shared.ErrValidation)
	fields := shared.FieldErrors(err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "stock")
	assert.Contains(t, fields, "buying_price")
}

func TestProductReferencesMustBeActive(t *testing.T) {
	svc := NewService(&mockRepo{refs: References{Brand: true}}, nil, nil)

	_, err := svc.Create(context.Background(), validProduct())
	require.ErrorIs(t, err, shared.ErrValidation)
	fields := shared.FieldErrors(err)
	assert.NotContains(t, fields, "brand_id")
	assert.Equal(t, "Selected category does not exist", fields["category_id"])
	assert.Equal(t, "Selected supplier does not exist", fields["supplier_id"])
}

func TestProductFormParsing(t *testing.T) {
	body := url.Values{
		"name":          {"Tea"},
		"brand_id":      {"4"},
		"selling_price": {"2.5"},
		"sale_price":    {"abc"},
		"stock":         {"1.5"},
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	require.NoError(t, req.ParseForm())

	form := readForm(req)
	_, fields := form.product()
	assert.Equal(t, "Sale price must be a number", fields["sale_price"])
	assert.Equal(t, "Stock must be a whole number", fields["stock"])
	assert.Equal(t, "abc", form.SalePrice)

	form.SalePrice, form.Stock = "", "7"
	p, fields := form.product()
	assert.Nil(t, fields)
	assert.Equal(t, int64(4), p.BrandID)
	assert.Equal(t, 7, p.Stock)
	assert.False(t, p.SalePrice.Valid)
	assert.True(t, p.SellingPrice.Equal(decimal.RequireFromString("2.50")))
}
