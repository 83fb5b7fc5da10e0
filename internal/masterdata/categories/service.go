package categories

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Category, int, error) {
	filters.Trashed = false
	return s.repo.List(ctx, filters)
}

func (s *Service) ListTrashed(ctx context.Context, filters shared.ListFilters) ([]Category, int, error) {
	filters.Trashed = true
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	if id <= 0 {
		return Category{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, category Category) (Category, error) {
	category = normalize(category)
	if err := s.validate(category); err != nil {
		return Category{}, err
	}
	created, err := s.repo.Create(ctx, category)
	if err != nil {
		return Category{}, duplicateAsField(err)
	}
	s.Changed(ctx)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, category Category) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	category = normalize(category)
	if err := s.validate(category); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, category); err != nil {
		return duplicateAsField(err)
	}
	s.Changed(ctx)
	return nil
}
