package shared

import (
	"context"
	"log/slog"
)

// TrashRepository is the lifecycle surface every catalog repository exposes.
type TrashRepository interface {
	SoftDelete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
	ForceDelete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// Trash implements soft delete, restore, force delete and count for a
// catalog service and invalidates cached aggregates after each mutation.
type Trash struct {
	Repo        TrashRepository
	Invalidator Invalidator
	Logger      *slog.Logger
}

// Delete moves an active row to the trash.
func (t Trash) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if err := t.Repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	t.bump(ctx)
	return nil
}

// Restore returns a trashed row to the active set.
func (t Trash) Restore(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if err := t.Repo.Restore(ctx, id); err != nil {
		return err
	}
	t.bump(ctx)
	return nil
}

// ForceDelete permanently removes a trashed row.
func (t Trash) ForceDelete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if err := t.Repo.ForceDelete(ctx, id); err != nil {
		return err
	}
	t.bump(ctx)
	return nil
}

// Count returns the number of active rows.
func (t Trash) Count(ctx context.Context) (int, error) {
	return t.Repo.Count(ctx)
}

// Changed records a create or update for cache invalidation.
func (t Trash) Changed(ctx context.Context) {
	t.bump(ctx)
}

func (t Trash) bump(ctx context.Context) {
	if t.Invalidator == nil {
		return
	}
	if err := t.Invalidator.Bump(ctx); err != nil && t.Logger != nil {
		t.Logger.Warn("invalidate dashboard cache", slog.Any("error", err))
	}
}
