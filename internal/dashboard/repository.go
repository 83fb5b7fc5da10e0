package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the aggregates behind the dashboard. Every query ignores
// soft-deleted rows.
type Repository interface {
	Counts(ctx context.Context) (Counts, error)
	DailySales(ctx context.Context, from, to time.Time, loc *time.Location) ([]DailyTotal, error)
	TopSelling(ctx context.Context, limit int) ([]ProductQuantity, error)
	TransactionsByPaymentMethod(ctx context.Context) ([]NamedCount, error)
	ProductsByCategory(ctx context.Context) ([]NamedCount, error)
	ProductsByBrand(ctx context.Context) ([]NamedCount, error)
}

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const countsSQL = `SELECT
	(SELECT COUNT(*) FROM products WHERE deleted_at IS NULL),
	(SELECT COUNT(*) FROM categories WHERE deleted_at IS NULL),
	(SELECT COUNT(*) FROM brands WHERE deleted_at IS NULL),
	(SELECT COUNT(*) FROM suppliers WHERE deleted_at IS NULL),
	(SELECT COUNT(*) FROM users WHERE deleted_at IS NULL),
	(SELECT COUNT(*) FROM transactions WHERE deleted_at IS NULL),
	(SELECT COUNT(*) FROM discounts WHERE deleted_at IS NULL)`

func (r *pgRepository) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := r.pool.QueryRow(ctx, countsSQL).Scan(
		&c.Products, &c.Categories, &c.Brands, &c.Suppliers, &c.Users, &c.Transactions, &c.Discounts,
	)
	if err != nil {
		return Counts{}, fmt.Errorf("dashboard counts: %w", err)
	}
	return c, nil
}

const dailySalesSQL = `SELECT (created_at AT TIME ZONE $3)::date AS day, COALESCE(SUM(total_amount), 0)::float8
FROM transactions
WHERE deleted_at IS NULL AND created_at >= $1 AND created_at < $2
GROUP BY day
ORDER BY day`

func (r *pgRepository) DailySales(ctx context.Context, from, to time.Time, loc *time.Location) ([]DailyTotal, error) {
	rows, err := r.pool.Query(ctx, dailySalesSQL, from, to, loc.String())
	if err != nil {
		return nil, fmt.Errorf("dashboard daily sales: %w", err)
	}
	defer rows.Close()
	var out []DailyTotal
	for rows.Next() {
		var d DailyTotal
		if err := rows.Scan(&d.Day, &d.Total); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const topSellingSQL = `SELECT p.id, p.name, SUM(ti.quantity)::bigint AS qty
FROM transaction_items ti
JOIN transactions t ON t.id = ti.transaction_id AND t.deleted_at IS NULL
JOIN products p ON p.id = ti.product_id AND p.deleted_at IS NULL
GROUP BY p.id, p.name
HAVING SUM(ti.quantity) > 0
ORDER BY qty DESC, p.id ASC
LIMIT $1`

func (r *pgRepository) TopSelling(ctx context.Context, limit int) ([]ProductQuantity, error) {
	rows, err := r.pool.Query(ctx, topSellingSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("dashboard top selling: %w", err)
	}
	defer rows.Close()
	var out []ProductQuantity
	for rows.Next() {
		var p ProductQuantity
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Quantity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const byPaymentMethodSQL = `SELECT pm.id, pm.name, COUNT(t.id)
FROM payment_methods pm
LEFT JOIN transactions t ON t.payment_method_id = pm.id AND t.deleted_at IS NULL
WHERE pm.deleted_at IS NULL
GROUP BY pm.id, pm.name
ORDER BY pm.name, pm.id`

const byCategorySQL = `SELECT c.id, c.name, COUNT(p.id)
FROM categories c
LEFT JOIN products p ON p.category_id = c.id AND p.deleted_at IS NULL
WHERE c.deleted_at IS NULL
GROUP BY c.id, c.name
ORDER BY c.name, c.id`

const byBrandSQL = `SELECT b.id, b.name, COUNT(p.id)
FROM brands b
LEFT JOIN products p ON p.brand_id = b.id AND p.deleted_at IS NULL
WHERE b.deleted_at IS NULL
GROUP BY b.id, b.name
ORDER BY b.name, b.id`

func (r *pgRepository) TransactionsByPaymentMethod(ctx context.Context) ([]NamedCount, error) {
	return r.namedCounts(ctx, "payment methods", byPaymentMethodSQL)
}

func (r *pgRepository) ProductsByCategory(ctx context.Context) ([]NamedCount, error) {
	return r.namedCounts(ctx, "categories", byCategorySQL)
}

func (r *pgRepository) ProductsByBrand(ctx context.Context) ([]NamedCount, error) {
	return r.namedCounts(ctx, "brands", byBrandSQL)
}

func (r *pgRepository) namedCounts(ctx context.Context, what, query string) ([]NamedCount, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dashboard %s: %w", what, err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (NamedCount, error) {
		var n NamedCount
		err := row.Scan(&n.ID, &n.Name, &n.Count)
		return n, err
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard %s: %w", what, err)
	}
	return out, nil
}
