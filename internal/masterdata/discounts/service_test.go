package discounts

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
)

type mockRepo struct {
	saved []Discount
}

func (m *mockRepo) List(context.Context, shared.ListFilters) ([]Discount, int, error) { return m.saved, len(m.saved), nil }
func (m *mockRepo) Get(context.Context, int64) (Discount, error)                      { return Discount{}, shared.ErrNotFound }
func (m *mockRepo) Create(_ context.Context, d Discount) (Discount, error) {
	d.ID = int64(len(m.saved) + 1)
	m.saved = append(m.saved, d)
	return d, nil
}
func (m *mockRepo) Update(context.Context, int64, Discount) error { return nil }
func (m *mockRepo) SoftDelete(context.Context, int64) error       { return nil }
func (m *mockRepo) Restore(context.Context, int64) error          { return nil }
func (m *mockRepo) ForceDelete(context.Context, int64) error      { return nil }
func (m *mockRepo) Count(context.Context) (int, error)            { return len(m.saved), nil }

func TestDiscountValidation(t *testing.T) {
	cases := []struct {
		name  string
		in    Discount
		field string
	}{
		{"percentage over 100", Discount{Name: "Crazy", Type: TypePercentage, Value: decimal.NewFromInt(101)}, "value"},
		{"negative amount", Discount{Name: "Refund", Type: TypeAmount, Value: decimal.NewFromInt(-1)}, "value"},
		{"unknown type", Discount{Name: "Odd", Type: "bogo", Value: decimal.NewFromInt(1)}, "type"},
		{"missing name", Discount{Type: TypeAmount, Value: decimal.NewFromInt(5)}, "name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(&mockRepo{}, nil, nil)
			_, err := svc.Create(context.Background(), tc.in)
			require.ErrorIs(t, err, shared.ErrValidation)
			assert.Contains(t, shared.FieldErrors(err), tc.field)
		})
	}
}

func TestDiscountBoundaries(t *testing.T) {
	svc := NewService(&mockRepo{}, nil, nil)

	full, err := svc.Create(context.Background(), Discount{Name: "Free", Type: "Percentage", Value: decimal.NewFromInt(100)})
	require.NoError(t, err)
	assert.Equal(t, TypePercentage, full.Type)
	assert.Equal(t, "100%", full.Label())

	big, err := svc.Create(context.Background(), Discount{Name: "Flat", Type: TypeAmount, Value: decimal.NewFromInt(500)})
	require.NoError(t, err)
	assert.Equal(t, "500.00", big.Label())
}
