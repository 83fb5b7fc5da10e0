package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a sellable catalog item.
type Product struct {
	ID           int64               `json:"id" form:"-"`
	Name         string              `json:"name" form:"name" validate:"required,max=200"`
	BrandID      int64               `json:"brand_id" form:"brand_id" validate:"required,gt=0"`
	CategoryID   int64               `json:"category_id" form:"category_id" validate:"required,gt=0"`
	SupplierID   int64               `json:"supplier_id" form:"supplier_id" validate:"required,gt=0"`
	Description  string              `json:"description,omitempty" form:"description" validate:"max=2000"`
	BuyingPrice  decimal.Decimal     `json:"buying_price" form:"-"`
	SellingPrice decimal.Decimal     `json:"selling_price" form:"-"`
	SalePrice    decimal.NullDecimal `json:"sale_price" form:"-"`
	Stock        int                 `json:"stock" form:"stock" validate:"gte=0"`
	Barcode      string              `json:"barcode,omitempty" form:"barcode" validate:"max=64"`
	Image        string              `json:"image,omitempty" form:"-"`
	CreatedAt    time.Time           `json:"created_at" form:"-"`
	UpdatedAt    time.Time           `json:"updated_at" form:"-"`
	DeletedAt    *time.Time          `json:"deleted_at,omitempty" form:"-"`

	BrandName    string `json:"brand_name,omitempty" form:"-"`
	CategoryName string `json:"category_name,omitempty" form:"-"`
	SupplierName string `json:"supplier_name,omitempty" form:"-"`
}

// UnitPrice is the price offered at the register: the sale price when set,
// otherwise the selling price.
func (p Product) UnitPrice() decimal.Decimal {
	if p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.SellingPrice
}

// OnSale reports whether a sale price below the selling price applies.
func (p Product) OnSale() bool {
	return p.SalePrice.Valid && p.SalePrice.Decimal.LessThan(p.SellingPrice)
}
