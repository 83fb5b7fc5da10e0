package transactions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/discounts"
	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/paymentmethods"
	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/products"
	mdshared "github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-pos/odyssey-pos/internal/rbac"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/view"
)

const basePath = "/transactions"

// PDFRenderer turns an HTML document into a PDF.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// ProductCatalog lists the products offered on the checkout form.
type ProductCatalog interface {
	Catalog(ctx context.Context) ([]products.Product, error)
}

// DiscountLister lists active discounts.
type DiscountLister interface {
	List(ctx context.Context, filters mdshared.ListFilters) ([]discounts.Discount, int, error)
}

// PaymentMethodLister lists active payment methods.
type PaymentMethodLister interface {
	List(ctx context.Context, filters mdshared.ListFilters) ([]paymentmethods.PaymentMethod, int, error)
}

// Options are the lookups the checkout form needs.
type Options struct {
	Products       ProductCatalog
	Discounts      DiscountLister
	PaymentMethods PaymentMethodLister
}

type Handler struct {
	logger  *slog.Logger
	service *Service
	options Options
	pdf     PDFRenderer
	view    view.Responder
	rbac    rbac.Middleware
	trash   mdshared.TrashActions
}

func NewHandler(logger *slog.Logger, service *Service, options Options, pdf PDFRenderer, responder view.Responder, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		options: options,
		pdf:     pdf,
		view:    responder,
		rbac:    rbac,
		trash:   mdshared.TrashActions{Responder: responder, Service: service, BasePath: basePath, Noun: "Transaction"},
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermTransactionView))
		r.Get("/", h.List)
		r.Get("/{id}", h.Show)
		r.Get("/{id}/receipt.pdf", h.ReceiptPDF)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermTransactionCreate))
		r.Get("/new", h.Form)
		r.Post("/", h.Create)
	})
	r.With(h.rbac.RequireAny(shared.PermTransactionDelete)).Post("/{id}/delete", h.trash.Delete)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermTransactionRestore))
		r.Get("/trashed", h.Trashed)
		r.Post("/{id}/restore", h.trash.Restore)
	})
	r.With(h.rbac.RequireAny(shared.PermTransactionForceDelete)).Post("/{id}/force-delete", h.trash.ForceDelete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

func (h *Handler) Trashed(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, trashed bool) {
	filters := mdshared.FiltersFromRequest(r)
	load := h.service.List
	if trashed {
		load = h.service.ListTrashed
	}
	txs, total, err := load(r.Context(), filters)
	if err != nil {
		h.logger.Error("list transactions failed", slog.Any("error", err), slog.Bool("trashed", trashed))
		http.Error(w, "Failed to load transactions", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/transactions/list.html", map[string]any{
		"Transactions": txs,
		"Filters":      filters,
		"Pagination":   shared.NewPagination(filters.Page, filters.Limit, total),
		"Trashed":      trashed,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	form := CheckoutForm{
		Lines:          []FormLine{{Quantity: "1"}},
		IdempotencyKey: uuid.NewString(),
	}
	h.renderForm(w, r, form, map[string]string{}, http.StatusOK)
}

// Create accepts the checkout form or, with a JSON body, the CreateRequest payload.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := shared.CurrentUserID(r.Context())
	if httpx.WantsJSON(r) {
		h.createJSON(w, r, userID)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	form := ParseCheckoutForm(r.PostForm)
	req, parseErrs := form.Request()
	if !parseErrs.Empty() {
		h.renderForm(w, r, form, parseErrs.Fields(), http.StatusUnprocessableEntity)
		return
	}

	t, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnauthenticated):
			h.view.RedirectWithFlash(w, r, "/auth/login", "error", "Please sign in to continue")
		case mdshared.FieldErrors(err) != nil:
			h.renderForm(w, r, form, mdshared.FieldErrors(err), http.StatusUnprocessableEntity)
		default:
			h.logger.Error("checkout failed", slog.Any("error", err), slog.Int64("user_id", userID))
			h.renderForm(w, r, form, map[string]string{"general": "Could not complete the checkout. Please try again."}, http.StatusInternalServerError)
		}
		return
	}
	h.view.RedirectWithFlash(w, r, receiptPath(t.ID), "success", "Transaction completed")
}

func (h *Handler) createJSON(w http.ResponseWriter, r *http.Request, userID int64) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = r.Header.Get("Idempotency-Key")
	}
	t, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		if !errors.Is(err, ErrValidation) {
			h.logger.Error("checkout failed", slog.Any("error", err), slog.Int64("user_id", userID))
		}
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Location", receiptPath(t.ID))
	httpx.JSON(w, http.StatusCreated, t)
}

// Show renders the receipt view.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/transactions/receipt.html", map[string]any{
		"Transaction": t,
	}, http.StatusOK)
}

// ReceiptPDF renders the printable receipt through the PDF service.
func (h *Handler) ReceiptPDF(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	if h.pdf == nil {
		http.Error(w, "PDF rendering is not configured", http.StatusServiceUnavailable)
		return
	}
	html, err := h.view.Templates.RenderString("pages/transactions/receipt_print.html", view.TemplateData{
		Title: "Receipt #" + strconv.FormatInt(t.ID, 10),
		Data:  map[string]any{"Transaction": t},
	})
	if err != nil {
		h.logger.Error("render receipt", slog.Any("error", err), slog.Int64("id", t.ID))
		http.Error(w, "Failed to render receipt", http.StatusInternalServerError)
		return
	}
	pdf, err := h.pdf.RenderHTML(r.Context(), html)
	if err != nil {
		h.logger.Error("receipt pdf", slog.Any("error", err), slog.Int64("id", t.ID))
		http.Error(w, "Failed to render receipt", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=receipt-"+strconv.FormatInt(t.ID, 10)+".pdf")
	_, _ = w.Write(pdf)
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (Transaction, bool) {
	id, err := mdshared.ParseID(r)
	if err != nil {
		http.Error(w, "Invalid transaction ID", http.StatusBadRequest)
		return Transaction{}, false
	}
	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			h.logger.Error("get transaction failed", slog.Any("error", err), slog.Int64("id", id))
		}
		http.Error(w, "Transaction not found", http.StatusNotFound)
		return Transaction{}, false
	}
	return t, true
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, form CheckoutForm, errs map[string]string, status int) {
	ctx := r.Context()
	data := map[string]any{
		"Form":   form,
		"Errors": errs,
	}
	if h.options.Products != nil {
		catalog, err := h.options.Products.Catalog(ctx)
		if err != nil {
			h.logger.Warn("load checkout products", slog.Any("error", err))
		}
		data["Products"] = catalog
	}
	if h.options.Discounts != nil {
		ds, _, err := h.options.Discounts.List(ctx, mdshared.ListFilters{})
		if err != nil {
			h.logger.Warn("load checkout discounts", slog.Any("error", err))
		}
		data["Discounts"] = ds
	}
	if h.options.PaymentMethods != nil {
		pms, _, err := h.options.PaymentMethods.List(ctx, mdshared.ListFilters{})
		if err != nil {
			h.logger.Warn("load checkout payment methods", slog.Any("error", err))
		}
		data["PaymentMethods"] = pms
	}
	h.render(w, r, "pages/transactions/form.html", data, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl string, data map[string]any, status int) {
	h.view.Render(w, r, tmpl, "Transactions", data, status)
}

func receiptPath(id int64) string {
	return basePath + "/" + strconv.FormatInt(id, 10)
}
