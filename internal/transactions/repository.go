package transactions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/discounts"
	mdshared "github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/platform/db"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

const idempotencyModule = "transactions"

// Repository exposes persistence for transactions.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, filters mdshared.ListFilters) ([]Transaction, int, error)
	Get(ctx context.Context, id int64) (Transaction, error)
	LookupIdempotent(ctx context.Context, key string) (int64, error)
	SoftDelete(ctx context.Context, id int64) error
	Restore(ctx context.Context, id int64) error
	ForceDelete(ctx context.Context, id int64) error
}

// TxRepository exposes the checkout operations that run inside one database transaction.
type TxRepository interface {
	ActiveProducts(ctx context.Context, ids []int64, lock bool) (map[int64]ProductRef, error)
	Discount(ctx context.Context, id int64) (DiscountRule, error)
	PaymentMethodName(ctx context.Context, id int64) (string, error)
	DecrementStock(ctx context.Context, productID int64, qty int) error
	InsertTransaction(ctx context.Context, t Transaction) (int64, time.Time, error)
	InsertItems(ctx context.Context, transactionID int64, items []Item) error
	ClaimIdempotencyKey(ctx context.Context, key string) error
	BindIdempotencyKey(ctx context.Context, key string, transactionID int64) error
}

type pgRepository struct {
	pool        *pgxpool.Pool
	lifecycle   mdshared.Lifecycle
	idempotency *shared.IdempotencyStore
}

// NewRepository constructs the Postgres repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{
		pool:        pool,
		lifecycle:   mdshared.NewLifecycle(pool, "transactions"),
		idempotency: shared.NewIdempotencyStore(),
	}
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, idempotency: r.idempotency})
	})
}

const headerSelect = `SELECT t.id, t.user_id, u.name, t.customer_name, COALESCE(t.customer_email, ''),
	t.discount_id, d.name, d.type, d.value,
	t.payment_method_id, pm.name, t.amount_tendered, t.change_due, t.total_amount, t.created_at, t.deleted_at
FROM transactions t
JOIN users u ON u.id = t.user_id
JOIN payment_methods pm ON pm.id = t.payment_method_id
LEFT JOIN discounts d ON d.id = t.discount_id`

func scanHeader(row pgx.Row) (Transaction, error) {
	var (
		t         Transaction
		discName  *string
		discType  *string
		discValue decimal.NullDecimal
	)
	err := row.Scan(&t.ID, &t.UserID, &t.UserName, &t.CustomerName, &t.CustomerEmail,
		&t.DiscountID, &discName, &discType, &discValue,
		&t.PaymentMethodID, &t.PaymentMethodName, &t.AmountTendered, &t.ChangeDue, &t.TotalAmount, &t.CreatedAt, &t.DeletedAt)
	if err != nil {
		return Transaction{}, err
	}
	if t.DiscountID != nil && discName != nil && discType != nil {
		t.Discount = &DiscountRule{ID: *t.DiscountID, Name: *discName, Type: discounts.Type(*discType), Value: discValue.Decimal}
	}
	return t, nil
}

var sortColumns = map[string]string{
	"created":  "t.created_at",
	"total":    "t.total_amount",
	"customer": "t.customer_name",
}

func (r *pgRepository) List(ctx context.Context, filters mdshared.ListFilters) ([]Transaction, int, error) {
	where := mdshared.NewClause(filters, "t.", "t.customer_name", "t.customer_email")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions t`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("transactions: count: %w", err)
	}

	dir := filters.SortDir
	if dir == "" {
		dir = mdshared.SortDesc
	}
	page, args := where.Page(filters)
	rows, err := r.pool.Query(ctx, headerSelect+where.SQL()+mdshared.OrderBy(sortColumns, filters.SortBy, dir, "t.created_at")+", t.id DESC"+page, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("transactions: list: %w", err)
	}
	defer rows.Close()

	var (
		list []Transaction
		ids  []int64
	)
	for rows.Next() {
		t, err := scanHeader(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range list {
		list[i].Items = items[list[i].ID]
	}
	return list, total, nil
}

func (r *pgRepository) Get(ctx context.Context, id int64) (Transaction, error) {
	t, err := scanHeader(r.pool.QueryRow(ctx, headerSelect+` WHERE t.id = $1 AND t.deleted_at IS NULL`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("transactions: get: %w", err)
	}
	items, err := r.items(ctx, []int64{id})
	if err != nil {
		return Transaction{}, err
	}
	t.Items = items[id]
	return t, nil
}

func (r *pgRepository) items(ctx context.Context, ids []int64) (map[int64][]Item, error) {
	out := make(map[int64][]Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT i.id, i.transaction_id, i.product_id, p.name, i.quantity, i.price
		FROM transaction_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.transaction_id = ANY($1)
		ORDER BY i.transaction_id, i.id`, ids)
	if err != nil {
		return nil, fmt.Errorf("transactions: items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.TransactionID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		out[it.TransactionID] = append(out[it.TransactionID], it)
	}
	return out, rows.Err()
}

func (r *pgRepository) LookupIdempotent(ctx context.Context, key string) (int64, error) {
	return r.idempotency.Lookup(ctx, r.pool, idempotencyModule, key)
}

func (r *pgRepository) SoftDelete(ctx context.Context, id int64) error {
	return r.lifecycle.SoftDelete(ctx, id)
}

func (r *pgRepository) Restore(ctx context.Context, id int64) error {
	return r.lifecycle.Restore(ctx, id)
}

// ForceDelete purges a trashed transaction; its items cascade.
func (r *pgRepository) ForceDelete(ctx context.Context, id int64) error {
	return r.lifecycle.ForceDelete(ctx, id)
}

// ============================================================================
// CHECKOUT (inside WithTx)
// ============================================================================

type txRepo struct {
	tx          pgx.Tx
	idempotency *shared.IdempotencyStore
}

func (t *txRepo) ActiveProducts(ctx context.Context, ids []int64, lock bool) (map[int64]ProductRef, error) {
	query := `SELECT id, name, stock FROM products WHERE id = ANY($1) AND deleted_at IS NULL ORDER BY id`
	if lock {
		query += ` FOR UPDATE`
	}
	rows, err := t.tx.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("transactions: load products: %w", err)
	}
	defer rows.Close()
	out := make(map[int64]ProductRef, len(ids))
	for rows.Next() {
		var p ProductRef
		if err := rows.Scan(&p.ID, &p.Name, &p.Stock); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (t *txRepo) Discount(ctx context.Context, id int64) (DiscountRule, error) {
	var (
		d   DiscountRule
		typ string
	)
	err := t.tx.QueryRow(ctx, `SELECT id, name, type, value FROM discounts WHERE id = $1 AND deleted_at IS NULL`, id).
		Scan(&d.ID, &d.Name, &typ, &d.Value)
	if errors.Is(err, pgx.ErrNoRows) {
		return DiscountRule{}, ErrNotFound
	}
	if err != nil {
		return DiscountRule{}, fmt.Errorf("transactions: load discount: %w", err)
	}
	d.Type = discounts.Type(typ)
	return d, nil
}

func (t *txRepo) PaymentMethodName(ctx context.Context, id int64) (string, error) {
	var name string
	err := t.tx.QueryRow(ctx, `SELECT name FROM payment_methods WHERE id = $1 AND deleted_at IS NULL`, id).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("transactions: load payment method: %w", err)
	}
	return name, nil
}

func (t *txRepo) DecrementStock(ctx context.Context, productID int64, qty int) error {
	tag, err := t.tx.Exec(ctx, `UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1 AND stock >= $2`, productID, qty)
	if err != nil {
		return fmt.Errorf("transactions: decrement stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transactions: decrement stock of product %d: %w", productID, ErrValidation)
	}
	return nil
}

func (t *txRepo) InsertTransaction(ctx context.Context, tr Transaction) (int64, time.Time, error) {
	var (
		id        int64
		createdAt time.Time
	)
	err := t.tx.QueryRow(ctx, `INSERT INTO transactions
		(user_id, customer_name, customer_email, discount_id, payment_method_id, amount_tendered, change_due, total_amount)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		tr.UserID, tr.CustomerName, tr.CustomerEmail, tr.DiscountID, tr.PaymentMethodID, tr.AmountTendered, tr.ChangeDue, tr.TotalAmount,
	).Scan(&id, &createdAt)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("transactions: insert header: %w", err)
	}
	return id, createdAt, nil
}

func (t *txRepo) InsertItems(ctx context.Context, transactionID int64, items []Item) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`INSERT INTO transaction_items (transaction_id, product_id, quantity, price) VALUES ($1, $2, $3, $4)`,
			transactionID, it.ProductID, it.Quantity, it.Price)
	}
	results := t.tx.SendBatch(ctx, batch)
	for i := range items {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("transactions: insert item %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("transactions: insert items: %w", err)
	}
	return nil
}

func (t *txRepo) ClaimIdempotencyKey(ctx context.Context, key string) error {
	return t.idempotency.Claim(ctx, t.tx, idempotencyModule, key)
}

func (t *txRepo) BindIdempotencyKey(ctx context.Context, key string, transactionID int64) error {
	return t.idempotency.Bind(ctx, t.tx, idempotencyModule, key, transactionID)
}
