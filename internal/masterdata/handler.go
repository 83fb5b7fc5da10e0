package masterdata

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/brands"
	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/categories"
	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/discounts"
	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/paymentmethods"
	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/products"
	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/suppliers"
	"github.com/odyssey-pos/odyssey-pos/internal/rbac"
	"github.com/odyssey-pos/odyssey-pos/internal/view"
)

// Services exposes the catalog services other modules read from.
type Services struct {
	Brands         *brands.Service
	Categories     *categories.Service
	Suppliers      *suppliers.Service
	Products       *products.Service
	Discounts      *discounts.Service
	PaymentMethods *paymentmethods.Service
}

// NewServices wires repositories and services for every catalog entity.
// Mutations notify invalidator so dashboard aggregates are recomputed.
func NewServices(pool *pgxpool.Pool, invalidator shared.Invalidator, logger *slog.Logger) Services {
	if invalidator == nil {
		invalidator = shared.NopInvalidator{}
	}
	return Services{
		Brands:         brands.NewService(brands.NewRepository(pool), invalidator, logger),
		Categories:     categories.NewService(categories.NewRepository(pool), invalidator, logger),
		Suppliers:      suppliers.NewService(suppliers.NewRepository(pool), invalidator, logger),
		Products:       products.NewService(products.NewRepository(pool), invalidator, logger),
		Discounts:      discounts.NewService(discounts.NewRepository(pool), invalidator, logger),
		PaymentMethods: paymentmethods.NewService(paymentmethods.NewRepository(pool), invalidator, logger),
	}
}

type mounter interface {
	MountRoutes(r chi.Router)
}

// Handler mounts every catalog entity under its own prefix.
type Handler struct {
	routes map[string]mounter
}

// NewHandler builds the entity handlers on top of services.
func NewHandler(logger *slog.Logger, services Services, responder view.Responder, rbac rbac.Middleware) *Handler {
	return &Handler{routes: map[string]mounter{
		"/brands":          brands.NewHandler(logger, services.Brands, responder, rbac),
		"/categories":      categories.NewHandler(logger, services.Categories, responder, rbac),
		"/suppliers":       suppliers.NewHandler(logger, services.Suppliers, responder, rbac),
		"/discounts":       discounts.NewHandler(logger, services.Discounts, responder, rbac),
		"/payment-methods": paymentmethods.NewHandler(logger, services.PaymentMethods, responder, rbac),
		"/products": products.NewHandler(logger, services.Products, services.Brands, services.Categories,
			services.Suppliers, responder, rbac),
	}}
}

// MountRoutes registers master data routes.
func (h *Handler) MountRoutes(r chi.Router) {
	for prefix, m := range h.routes {
		r.Route(prefix, m.MountRoutes)
	}
}
