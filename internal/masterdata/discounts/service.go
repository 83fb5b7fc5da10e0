package discounts

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Discount, int, error) {
	filters.Trashed = false
	return s.repo.List(ctx, filters)
}

func (s *Service) ListTrashed(ctx context.Context, filters shared.ListFilters) ([]Discount, int, error) {
	filters.Trashed = true
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Discount, error) {
	if id <= 0 {
		return Discount{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, discount Discount) (Discount, error) {
	discount = normalize(discount)
	if err := s.validate(discount); err != nil {
		return Discount{}, err
	}
	created, err := s.repo.Create(ctx, discount)
	if err != nil {
		return Discount{}, err
	}
	s.Changed(ctx)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, discount Discount) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	discount = normalize(discount)
	if err := s.validate(discount); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, discount); err != nil {
		return err
	}
	s.Changed(ctx)
	return nil
}
