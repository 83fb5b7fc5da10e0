package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
)

// References reports which referenced catalog rows are active.
type References struct {
	Brand    bool
	Category bool
	Supplier bool
}

type Repository interface {
	shared.TrashRepository
	List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, id int64, product Product) error
	CheckReferences(ctx context.Context, brandID, categoryID, supplierID int64) (References, error)
}

type repository struct {
	shared.Lifecycle
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{Lifecycle: shared.NewLifecycle(db, "products"), db: db}
}

const productSelect = `SELECT p.id, p.name, p.brand_id, p.category_id, p.supplier_id, COALESCE(p.description, ''),
	p.buying_price, p.selling_price, p.sale_price, p.stock, COALESCE(p.barcode, ''), COALESCE(p.image, ''),
	p.created_at, p.updated_at, p.deleted_at, b.name, c.name, s.name
FROM products p
JOIN brands b ON b.id = p.brand_id
JOIN categories c ON c.id = p.category_id
JOIN suppliers s ON s.id = p.supplier_id`

var sortColumns = map[string]string{
	"name":     "p.name",
	"price":    "p.selling_price",
	"stock":    "p.stock",
	"brand":    "b.name",
	"category": "c.name",
	"created":  "p.created_at",
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.BrandID, &p.CategoryID, &p.SupplierID, &p.Description,
		&p.BuyingPrice, &p.SellingPrice, &p.SalePrice, &p.Stock, &p.Barcode, &p.Image,
		&p.CreatedAt, &p.UpdatedAt, &p.DeletedAt, &p.BrandName, &p.CategoryName, &p.SupplierName)
	return p, err
}

func (r *repository) where(filters shared.ListFilters) *shared.Clause {
	where := shared.NewClause(filters, "p.", "p.name", "p.barcode")
	if filters.CategoryID != nil {
		where.Add("p.category_id = ?", *filters.CategoryID)
	}
	if filters.BrandID != nil {
		where.Add("p.brand_id = ?", *filters.BrandID)
	}
	return where
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	where := r.where(filters)

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products p`+where.SQL(), where.Args()...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("products: count: %w", err)
	}

	page, args := where.Page(filters)
	rows, err := r.db.Query(ctx, productSelect+where.SQL()+shared.OrderBy(sortColumns, filters.SortBy, filters.SortDir, "p.name")+page, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("products: list: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.db.QueryRow(ctx, productSelect+` WHERE p.id = $1 AND p.deleted_at IS NULL`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, shared.ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("products: get: %w", err)
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, p Product) (Product, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO products
		(name, brand_id, category_id, supplier_id, description, buying_price, selling_price, sale_price, stock, barcode, image)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, NULLIF($10, ''), NULLIF($11, ''))
		RETURNING id, created_at, updated_at`,
		p.Name, p.BrandID, p.CategoryID, p.SupplierID, p.Description, p.BuyingPrice, p.SellingPrice, p.SalePrice, p.Stock, p.Barcode, p.Image,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, fmt.Errorf("products: create: %w", err)
	}
	return p, nil
}

func (r *repository) Update(ctx context.Context, id int64, p Product) error {
	tag, err := r.db.Exec(ctx, `UPDATE products SET
		name = $2, brand_id = $3, category_id = $4, supplier_id = $5, description = NULLIF($6, ''),
		buying_price = $7, selling_price = $8, sale_price = $9, stock = $10, barcode = NULLIF($11, ''), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		id, p.Name, p.BrandID, p.CategoryID, p.SupplierID, p.Description, p.BuyingPrice, p.SellingPrice, p.SalePrice, p.Stock, p.Barcode)
	if err != nil {
		return fmt.Errorf("products: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) CheckReferences(ctx context.Context, brandID, categoryID, supplierID int64) (References, error) {
	var refs References
	err := r.db.QueryRow(ctx, `SELECT
		EXISTS (SELECT 1 FROM brands WHERE id = $1 AND deleted_at IS NULL),
		EXISTS (SELECT 1 FROM categories WHERE id = $2 AND deleted_at IS NULL),
		EXISTS (SELECT 1 FROM suppliers WHERE id = $3 AND deleted_at IS NULL)`,
		brandID, categoryID, supplierID).Scan(&refs.Brand, &refs.Category, &refs.Supplier)
	if err != nil {
		return References{}, fmt.Errorf("products: check references: %w", err)
	}
	return refs, nil
}
