package shared

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrIdempotencyConflict indicates a duplicate key.
var ErrIdempotencyConflict = errors.New("idempotent request already processed")

// Querier is the subset of pgx shared by pools and transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// IdempotencyStore persists processed keys per module.
type IdempotencyStore struct{}

// NewIdempotencyStore constructs the store.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{}
}

// Claim reserves key for module. A key that already exists yields
// ErrIdempotencyConflict.
func (s *IdempotencyStore) Claim(ctx context.Context, q Querier, module, key string) error {
	if key == "" || module == "" {
		return errors.New("idempotency key and module required")
	}
	tag, err := q.Exec(ctx, `INSERT INTO idempotency_keys (module, key) VALUES ($1, $2) ON CONFLICT DO NOTHING`, module, key)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

// Bind records the entity produced for a claimed key.
func (s *IdempotencyStore) Bind(ctx context.Context, q Querier, module, key string, entityID int64) error {
	_, err := q.Exec(ctx, `UPDATE idempotency_keys SET entity_id = $3 WHERE module = $1 AND key = $2`, module, key, entityID)
	return err
}

// Lookup returns the entity bound to key, or ErrNotFound.
func (s *IdempotencyStore) Lookup(ctx context.Context, q Querier, module, key string) (int64, error) {
	var id *int64
	err := q.QueryRow(ctx, `SELECT entity_id FROM idempotency_keys WHERE module = $1 AND key = $2`, module, key).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if id == nil {
		return 0, ErrNotFound
	}
	return *id, nil
}

// Cleanup removes entries older than the retention window.
func (s *IdempotencyStore) Cleanup(ctx context.Context, q Querier, retentionDays int) (int64, error) {
	tag, err := q.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < NOW() - make_interval(days => $1)`, retentionDays)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
