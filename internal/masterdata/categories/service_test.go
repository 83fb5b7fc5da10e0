package categories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
)

type mockRepo struct {
	created []Category
	taken   map[string]bool
}

func (m *mockRepo) List(context.Context, shared.ListFilters) ([]Category, int, error) { return nil, 0, nil }
func (m *mockRepo) Get(_ context.Context, id int64) (Category, error) {
	return Category{}, shared.ErrNotFound
}
func (m *mockRepo) Create(_ context.Context, b Category) (Category, error) {
	if m.taken[b.Name] {
		return Category{}, shared.ErrDuplicate
	}
	b.ID = int64(len(m.created) + 1)
	m.created = append(m.created, b)
	return b, nil
}
func (m *mockRepo) Update(context.Context, int64, Category) error { return shared.ErrNotFound }
func (m *mockRepo) SoftDelete(context.Context, int64) error       { return nil }
func (m *mockRepo) Restore(context.Context, int64) error          { return nil }
func (m *mockRepo) ForceDelete(context.Context, int64) error      { return nil }
func (m *mockRepo) Count(context.Context) (int, error)            { return len(m.created), nil }

type bumpCounter struct{ n int }

func (b *bumpCounter) Bump(context.Context) error {
	b.n++
	return nil
}

func TestCreateTrimsAndBumps(t *testing.T) {
	repo := &mockRepo{}
	bumps := &bumpCounter{}
	svc := NewService(repo, bumps, nil)

	created, err := svc.Create(context.Background(), Category{Name: "  Beverages  "})
	require.NoError(t, err)
	assert.Equal(t, "Beverages", created.Name)
	assert.Equal(t, 1, bumps.n)
}

func TestCreateRejectsBlankAndDuplicate(t *testing.T) {
	repo := &mockRepo{taken: map[string]bool{"Beverages": true}}
	svc := NewService(repo, shared.NopInvalidator{}, nil)

	_, err := svc.Create(context.Background(), Category{Name: "   "})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Contains(t, shared.FieldErrors(err), "name")

	_, err = svc.Create(context.Background(), Category{Name: "Beverages"})
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, "A category with this name already exists", shared.FieldErrors(err)["name"])
	assert.Empty(t, repo.created)
}

func TestUpdateMissingCategory(t *testing.T) {
	svc := NewService(&mockRepo{}, nil, nil)
	assert.ErrorIs(t, svc.Update(context.Background(), 9, Category{Name: "X"}), shared.ErrNotFound)
	assert.ErrorIs(t, svc.Update(context.Background(), 0, Category{Name: "X"}), shared.ErrInvalidID)
}
