package shared

import (
	"context"
	"fmt"

	"github.com/odyssey-pos/odyssey-pos/internal/platform/db"
	internalShared "github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// Lifecycle implements the active → trashed → purged transitions for one
// table. Table names are compile-time constants, never user input.
type Lifecycle struct {
	q     internalShared.Querier
	table string
}

// NewLifecycle binds the lifecycle operations to table.
func NewLifecycle(q internalShared.Querier, table string) Lifecycle {
	return Lifecycle{q: q, table: table}
}

// SoftDelete trashes an active row.
func (l Lifecycle) SoftDelete(ctx context.Context, id int64) error {
	tag, err := l.q.Exec(ctx, `UPDATE `+l.table+` SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("%s: soft delete: %w", l.table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Restore returns a trashed row to the active set.
func (l Lifecycle) Restore(ctx context.Context, id int64) error {
	tag, err := l.q.Exec(ctx, `UPDATE `+l.table+` SET deleted_at = NULL, updated_at = NOW() WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("%s: restore: %w", l.table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ForceDelete removes a trashed row permanently.
func (l Lifecycle) ForceDelete(ctx context.Context, id int64) error {
	tag, err := l.q.Exec(ctx, `DELETE FROM `+l.table+` WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return ErrInUse
		}
		return fmt.Errorf("%s: force delete: %w", l.table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of active rows.
func (l Lifecycle) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.q.QueryRow(ctx, `SELECT COUNT(*) FROM `+l.table+` WHERE deleted_at IS NULL`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: count: %w", l.table, err)
	}
	return n, nil
}

// Exists reports whether id is an active row.
func (l Lifecycle) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := l.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+l.table+` WHERE id = $1 AND deleted_at IS NULL)`, id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("%s: exists: %w", l.table, err)
	}
	return ok, nil
}
