package brands

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
	List(ctx context.Context, filters shared.ListFilters) ([]Brand, int, error)
	Get(ctx context.Context, id int64) (Brand, error)
	Create(ctx context.Context, brand Brand) (Brand, error)
	Update(ctx context.Context, id int64, brand Brand) error
}

type repository struct {
	shared.Lifecycle
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{Lifecycle: shared.NewLifecycle(pool, "brands"), pool: pool}
}

var sortColumns = map[string]string{"name": "name", "created": "created_at"}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Brand, int, error) {
	where := shared.NewClause(filters, "", "name")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM brands`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("brands: count: %w", err)
	}

	page, args := where.Page(filters)
	query := `SELECT id, name, created_at, updated_at, deleted_at FROM brands` + where.SQL() +
		shared.OrderBy(sortColumns, filters.SortBy, filters.SortDir, "name") + page
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("brands: list: %w", err)
	}
	defer rows.Close()

	var out []Brand
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt, &b.DeletedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Brand, error) {
	var b Brand
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at, updated_at, deleted_at FROM brands WHERE id = $1 AND deleted_at IS NULL`, id).
		Scan(&b.ID, &b.Name, &b.CreatedAt, &b.UpdatedAt, &b.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Brand{}, shared.ErrNotFound
	}
	if err != nil {
		return Brand{}, fmt.Errorf("brands: get: %w", err)
	}
	return b, nil
}

func (r *repository) Create(ctx context.Context, brand Brand) (Brand, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO brands (name) VALUES ($1) RETURNING id, created_at, updated_at`, brand.Name).
		Scan(&brand.ID, &brand.CreatedAt, &brand.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Brand{}, shared.ErrDuplicate
		}
		return Brand{}, fmt.Errorf("brands: create: %w", err)
	}
	return brand, nil
}

func (r *repository) Update(ctx context.Context, id int64, brand Brand) error {
	tag, err := r.pool.Exec(ctx, `UPDATE brands SET name = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id, brand.Name)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return shared.ErrDuplicate
		}
		return fmt.Errorf("brands: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
