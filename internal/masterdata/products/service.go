package products

import (
	"context"
	"log/slog"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
)

type Service struct {
	shared.Trash
	repo Repository
}

func NewService(repo Repository, invalidator shared.Invalidator, logger *slog.Logger) *Service {
	return &Service{Trash: shared.Trash{Repo: repo, Invalidator: invalidator, Logger: logger}, repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	filters.Trashed = false
	return s.repo.List(ctx, filters)
}

func (s *Service) ListTrashed(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	filters.Trashed = true
	return s.repo.List(ctx, filters)
}

// Catalog returns every active product, used to fill the checkout form.
func (s *Service) Catalog(ctx context.Context) ([]Product, error) {
	products, _, err := s.repo.List(ctx, shared.ListFilters{})
	return products, err
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	product = normalize(product)
	if err := s.validate(ctx, product); err != nil {
		return Product{}, err
	}
	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return Product{}, err
	}
	s.Changed(ctx)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, product Product) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	product = normalize(product)
	if err := s.validate(ctx, product); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, product); err != nil {
		return err
	}
	s.Changed(ctx)
	return nil
}
