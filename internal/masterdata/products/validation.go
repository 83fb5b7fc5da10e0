package products

import (
	"context"
	"strings"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
)

var labels = map[string]string{
	"name":        "Product name",
	"brand_id":    "Brand",
	"category_id": "Category",
	"supplier_id": "Supplier",
	"description": "Description",
	"stock":       "Stock",
	"barcode":     "Barcode",
}

func normalize(p Product) Product {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.Barcode = strings.TrimSpace(p.Barcode)
	return p
}

func (s *Service) validate(ctx context.Context, p Product) error {
	ve := shared.NewValidationError()
	shared.ValidateStruct(ve, p, labels)

	if p.BuyingPrice.IsNegative() {
		ve.Add("buying_price", "Buying price must be at least 0")
	}
	if p.SellingPrice.IsNegative() {
		ve.Add("selling_price", "Selling price must be at least 0")
	}
	if p.SalePrice.Valid {
		switch {
		case p.SalePrice.Decimal.IsNegative():
			ve.Add("sale_price", "Sale price must be at least 0")
		case p.SalePrice.Decimal.GreaterThan(p.SellingPrice):
			ve.Add("sale_price", "Sale price cannot exceed the selling price")
		}
	}
	if !ve.Empty() {
		return ve
	}

	refs, err := s.repo.CheckReferences(ctx, p.BrandID, p.CategoryID, p.SupplierID)
	if err != nil {
		return err
	}
	if !refs.Brand {
		ve.Add("brand_id", "Selected brand does not exist")
	}
	if !refs.Category {
		ve.Add("category_id", "Selected category does not exist")
	}
	if !refs.Supplier {
		ve.Add("supplier_id", "Selected supplier does not exist")
	}
	return ve.Err()
}
