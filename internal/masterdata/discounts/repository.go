package discounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
)

type Repository interface {
	shared.TrashRepository
	List(ctx context.Context, filters shared.ListFilters) ([]Discount, int, error)
	Get(ctx context.Context, id int64) (Discount, error)
	Create(ctx context.Context, discount Discount) (Discount, error)
	Update(ctx context.Context, id int64, discount Discount) error
}

type repository struct {
	shared.Lifecycle
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{Lifecycle: shared.NewLifecycle(pool, "discounts"), pool: pool}
}

const discountColumns = `id, name, type, value, created_at, updated_at, deleted_at`

var sortColumns = map[string]string{"name": "name", "type": "type", "value": "value"}

func scanDiscount(row pgx.Row) (Discount, error) {
	var (
		d   Discount
		typ string
	)
	err := row.Scan(&d.ID, &d.Name, &typ, &d.Value, &d.CreatedAt, &d.UpdatedAt, &d.DeletedAt)
	d.Type = Type(typ)
	return d, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Discount, int, error) {
	where := shared.NewClause(filters, "", "name")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM discounts`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("discounts: count: %w", err)
	}

	page, args := where.Page(filters)
	rows, err := r.pool.Query(ctx, `SELECT `+discountColumns+` FROM discounts`+where.SQL()+
		shared.OrderBy(sortColumns, filters.SortBy, filters.SortDir, "name")+page, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("discounts: list: %w", err)
	}
	defer rows.Close()

	var out []Discount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Discount, error) {
	d, err := scanDiscount(r.pool.QueryRow(ctx, `SELECT `+discountColumns+` FROM discounts WHERE id = $1 AND deleted_at IS NULL`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Discount{}, shared.ErrNotFound
	}
	if err != nil {
		return Discount{}, fmt.Errorf("discounts: get: %w", err)
	}
	return d, nil
}

func (r *repository) Create(ctx context.Context, d Discount) (Discount, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO discounts (name, type, value) VALUES ($1, $2, $3) RETURNING id, created_at, updated_at`,
		d.Name, string(d.Type), d.Value).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return Discount{}, fmt.Errorf("discounts: create: %w", err)
	}
	return d, nil
}

func (r *repository) Update(ctx context.Context, id int64, d Discount) error {
	tag, err := r.pool.Exec(ctx, `UPDATE discounts SET name = $2, type = $3, value = $4, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`,
		id, d.Name, string(d.Type), d.Value)
	if err != nil {
		return fmt.Errorf("discounts: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
