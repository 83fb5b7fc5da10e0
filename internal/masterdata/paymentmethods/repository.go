package paymentmethods

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/platform/db"
)

type Repository interface {
	shared.TrashRepository
	List(ctx context.Context, filters shared.ListFilters) ([]PaymentMethod, int, error)
	Get(ctx context.Context, id int64) (PaymentMethod, error)
	Create(ctx context.Context, method PaymentMethod) (PaymentMethod, error)
	Update(ctx context.Context, id int64, method PaymentMethod) error
}

type repository struct {
	shared.Lifecycle
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{Lifecycle: shared.NewLifecycle(pool, "payment_methods"), pool: pool}
}

var sortColumns = map[string]string{"name": "name", "created": "created_at"}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]PaymentMethod, int, error) {
	where := shared.NewClause(filters, "", "name")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM payment_methods`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("payment methods: count: %w", err)
	}

	page, args := where.Page(filters)
	query := `SELECT id, name, created_at, updated_at, deleted_at FROM payment_methods` + where.SQL() +
		shared.OrderBy(sortColumns, filters.SortBy, filters.SortDir, "name") + page
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("payment methods: list: %w", err)
	}
	defer rows.Close()

	var out []PaymentMethod
	for rows.Next() {
		var b PaymentMethod
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt, &b.DeletedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (PaymentMethod, error) {
	var b PaymentMethod
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at, updated_at, deleted_at FROM payment_methods WHERE id = $1 AND deleted_at IS NULL`, id).
		Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt, &b.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return PaymentMethod{}, shared.ErrNotFound
	}
	if err != nil {
		return PaymentMethod{}, fmt.Errorf("payment methods: get: %w", err)
	}
	return b, nil
}

func (r *repository) Create(ctx context.Context, method PaymentMethod) (PaymentMethod, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO payment_methods (name) VALUES ($1) RETURNING id, created_at, updated_at`, method.Name).
		Scan(&method.ID, &method.CreatedAt, &method.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return PaymentMethod{}, shared.ErrDuplicate
		}
		return PaymentMethod{}, fmt.Errorf("payment methods: create: %w", err)
	}
	return method, nil
}

func (r *repository) Update(ctx context.Context, id int64, method PaymentMethod) error {
	tag, err := r.pool.Exec(ctx, `UPDATE payment_methods SET name = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id, method.Name)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return shared.ErrDuplicate
		}
		return fmt.Errorf("payment methods: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
