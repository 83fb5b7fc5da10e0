package brands

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
	return &Service{
		Trash: shared.Trash{Repo: repo, Invalidator: invalidator, Logger: logger},
		repo:  repo,
	}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Brand, int, error) {
	filters.Trashed = false
	return s.repo.List(ctx, filters)
}

func (s *Service) ListTrashed(ctx context.Context, filters shared.ListFilters) ([]Brand, int, error) {
	filters.Trashed = true
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Brand, error) {
	if id <= 0 {
		return Brand{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, brand Brand) (Brand, error) {
	brand = normalize(brand)
	if err := s.validate(brand); err != nil {
		return Brand{}, err
	}
	created, err := s.repo.Create(ctx, brand)
	if err != nil {
		return Brand{}, duplicateAsField(err)
	}
	s.Changed(ctx)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, brand Brand) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	brand = normalize(brand)
	if err := s.validate(brand); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, brand); err != nil {
		return duplicateAsField(err)
	}
	s.Changed(ctx)
	return nil
}
