package paymentmethods

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]PaymentMethod, int, error) {
	filters.Trashed = false
	return s.repo.List(ctx, filters)
}

func (s *Service) ListTrashed(ctx context.Context, filters shared.ListFilters) ([]PaymentMethod, int, error) {
	filters.Trashed = true
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (PaymentMethod, error) {
	if id <= 0 {
		return PaymentMethod{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, method PaymentMethod) (PaymentMethod, error) {
	method = normalize(method)
	if err := s.validate(method); err != nil {
		return PaymentMethod{}, err
	}
	created, err := s.repo.Create(ctx, method)
	if err != nil {
		return PaymentMethod{}, duplicateAsField(err)
	}
	s.Changed(ctx)
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, method PaymentMethod) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	method = normalize(method)
	if err := s.validate(method); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, method); err != nil {
		return duplicateAsField(err)
	}
	s.Changed(ctx)
	return nil
}
