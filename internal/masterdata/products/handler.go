package products

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/brands"
	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/categories"
	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/suppliers"
	"github.com/odyssey-pos/odyssey-pos/internal/rbac"
	internalShared "github.com/odyssey-pos/odyssey-pos/internal/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/view"
)

const basePath = "/masterdata/products"

type Handler struct {
	logger          *slog.Logger
	service         *Service
	brandService    *brands.Service
	categoryService *categories.Service
	supplierService *suppliers.Service
	view            view.Responder
	rbac            rbac.Middleware
	trash           shared.TrashActions
}

func NewHandler(
	logger *slog.Logger,
	service *Service,
	brandService *brands.Service,
	categoryService *categories.Service,
	supplierService *suppliers.Service,
	responder view.Responder,
	rbac rbac.Middleware,
) *Handler {
	return &Handler{
		logger:          logger,
		service:         service,
		brandService:    brandService,
		categoryService: categoryService,
		supplierService: supplierService,
		view:            responder,
		rbac:            rbac,
		trash:           shared.TrashActions{Responder: responder, Service: service, BasePath: basePath, Noun: "Product"},
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(internalShared.PermCatalogView))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(internalShared.PermCatalogManage))
		r.Get("/new", h.Form)
		r.Post("/", h.Create)
		r.Get("/trashed", h.Trashed)
		r.Get("/{id}/edit", h.EditForm)
		r.Post("/{id}", h.Update)
		r.Post("/{id}/delete", h.trash.Delete)
		r.Post("/{id}/restore", h.trash.Restore)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(internalShared.PermCatalogForceDelete))
		r.Post("/{id}/force-delete", h.trash.ForceDelete)
	})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *Handler) Trashed(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, trashed bool) {
	filters := shared.FiltersFromRequest(r)
	load := h.service.List
	if trashed {
		load = h.service.ListTrashed
	}
	products, total, err := load(r.Context(), filters)
	if err != nil {
		h.logger.Error("list products failed", slog.Any("error", err), slog.Bool("trashed", trashed))
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}
	cats, _, _ := h.categoryService.List(r.Context(), shared.ListFilters{})
	bs, _, _ := h.brandService.List(r.Context(), shared.ListFilters{})

	h.render(w, r, "pages/masterdata/products_list.html", map[string]any{
		"Products":   products,
		"Categories": cats,
		"Brands":     bs,
		"Filters":    filters,
		"Pagination": internalShared.NewPagination(filters.Page, filters.Limit, total),
		"Trashed":    trashed,
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(r)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("get product failed", slog.Any("error", err), slog.Int64("id", id))
		}
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/masterdata/product_detail.html", map[string]any{
		"Product": product,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, productForm{}, map[string]string{}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	form := readForm(r)
	product, fields := form.product()
	if fields != nil {
		h.renderForm(w, r, form, fields, http.StatusUnprocessableEntity)
		return
	}
	created, err := h.service.Create(r.Context(), product)
	if err != nil {
		h.formError(w, r, form, err)
		return
	}
	h.view.RedirectWithFlash(w, r, basePath+"/"+strconv.FormatInt(created.ID, 10), "success", "Product created successfully")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(r)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get product failed", slog.Any("error", err), slog.Int64("id", id))
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}
	h.renderForm(w, r, formFromProduct(product), map[string]string{}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(r)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	form := readForm(r)
	form.ID = id
	product, fields := form.product()
	if fields != nil {
		h.renderForm(w, r, form, fields, http.StatusUnprocessableEntity)
		return
	}
	if err := h.service.Update(r.Context(), id, product); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.view.RedirectWithFlash(w, r, basePath, "error", "Product not found")
			return
		}
		h.formError(w, r, form, err)
		return
	}
	h.view.RedirectWithFlash(w, r, basePath+"/"+strconv.FormatInt(id, 10), "success", "Product updated successfully")
}

// productForm keeps the raw submitted strings so invalid input is re-rendered as typed.
type productForm struct {
	ID           int64
	Name         string
	BrandID      int64
	CategoryID   int64
	SupplierID   int64
	Description  string
	BuyingPrice  string
	SellingPrice string
	SalePrice    string
	Stock        string
	Barcode      string
}

func readForm(r *http.Request) productForm {
	return productForm{
		Name:         r.PostFormValue("name"),
		BrandID:      shared.ParseOptionalID(r.PostFormValue("brand_id")),
		CategoryID:   shared.ParseOptionalID(r.PostFormValue("category_id")),
		SupplierID:   shared.ParseOptionalID(r.PostFormValue("supplier_id")),
		Description:  r.PostFormValue("description"),
		BuyingPrice:  strings.TrimSpace(r.PostFormValue("buying_price")),
		SellingPrice: strings.TrimSpace(r.PostFormValue("selling_price")),
		SalePrice:    strings.TrimSpace(r.PostFormValue("sale_price")),
		Stock:        strings.TrimSpace(r.PostFormValue("stock")),
		Barcode:      r.PostFormValue("barcode"),
	}
}

func formFromProduct(p Product) productForm {
	f := productForm{
		ID:           p.ID,
		Name:         p.Name,
		BrandID:      p.BrandID,
		CategoryID:   p.CategoryID,
		SupplierID:   p.SupplierID,
		Description:  p.Description,
		BuyingPrice:  p.BuyingPrice.StringFixed(2),
		SellingPrice: p.SellingPrice.StringFixed(2),
		Stock:        strconv.Itoa(p.Stock),
		Barcode:      p.Barcode,
	}
	if p.SalePrice.Valid {
		f.SalePrice = p.SalePrice.Decimal.StringFixed(2)
	}
	return f
}

// product converts the raw form, returning field errors for unparsable numbers.
func (f productForm) product() (Product, map[string]string) {
	fields := map[string]string{}
	money := func(field, raw, label string) decimal.Decimal {
		if raw == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			fields[field] = label + " must be a number"
		}
		return d
	}
	p := Product{
		ID:           f.ID,
		Name:         f.Name,
		BrandID:      f.BrandID,
		CategoryID:   f.CategoryID,
		SupplierID:   f.SupplierID,
		Description:  f.Description,
		BuyingPrice:  money("buying_price", f.BuyingPrice, "Buying price"),
		SellingPrice: money("selling_price", f.SellingPrice, "Selling price"),
		Barcode:      f.Barcode,
	}
	if f.SalePrice != "" {
		p.SalePrice = decimal.NewNullDecimal(money("sale_price", f.SalePrice, "Sale price"))
	}
	if f.Stock != "" {
		stock, err := strconv.Atoi(f.Stock)
		if err != nil {
			fields["stock"] = "Stock must be a whole number"
		}
		p.Stock = stock
	}
	if len(fields) > 0 {
		return p, fields
	}
	return p, nil
}

func (h *Handler) formError(w http.ResponseWriter, r *http.Request, form productForm, err error) {
	fields := shared.FieldErrors(err)
	status := http.StatusUnprocessableEntity
	if fields == nil {
		h.logger.Error("save product failed", slog.Any("error", err))
		fields = map[string]string{"general": internalShared.UserSafeMessage(err)}
		status = http.StatusInternalServerError
	}
	h.renderForm(w, r, form, fields, status)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, form productForm, fields map[string]string, status int) {
	bs, _, _ := h.brandService.List(r.Context(), shared.ListFilters{})
	cats, _, _ := h.categoryService.List(r.Context(), shared.ListFilters{})
	sups, _, _ := h.supplierService.List(r.Context(), shared.ListFilters{})

	h.render(w, r, "pages/masterdata/product_form.html", map[string]any{
		"Errors":     fields,
		"Product":    form,
		"Brands":     bs,
		"Categories": cats,
		"Suppliers":  sups,
	}, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	h.view.Render(w, r, template, "Products", data, status)
}
