package discounts

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/rbac"
	internalShared "github.com/odyssey-pos/odyssey-pos/internal/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/view"
)

const basePath = "/masterdata/discounts"

type Handler struct {
	logger  *slog.Logger
	service *Service
	view    view.Responder
	rbac    rbac.Middleware
	trash   shared.TrashActions
}

func NewHandler(logger *slog.Logger, service *Service, responder view.Responder, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		view:    responder,
		rbac:    rbac,
		trash:   shared.TrashActions{Responder: responder, Service: service, BasePath: basePath, Noun: "Discount"},
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(internalShared.PermReferenceManage))
		r.Get("/", h.List)
		r.Get("/trashed", h.Trashed)
		r.Get("/new", h.Form)
		r.Post("/", h.Create)
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
	discounts, total, err := load(r.Context(), filters)
	if err != nil {
		h.logger.Error("list discounts failed", slog.Any("error", err), slog.Bool("trashed", trashed))
		http.Error(w, "Failed to load discounts", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/masterdata/discounts_list.html", map[string]any{
		"Discounts":  discounts,
		"Filters":    filters,
		"Pagination": internalShared.NewPagination(filters.Page, filters.Limit, total),
		"Trashed":    trashed,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, Discount{Type: TypePercentage}, "", map[string]string{}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	discount, raw, fields := discountFromForm(r)
	if fields != nil {
		h.renderForm(w, r, discount, raw, fields, http.StatusUnprocessableEntity)
		return
	}
	if _, err := h.service.Create(r.Context(), discount); err != nil {
		h.formError(w, r, discount, raw, err)
		return
	}
	h.view.RedirectWithFlash(w, r, basePath, "success", "Discount created successfully")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(r)
	if err != nil {
		http.Error(w, "Invalid discount ID", http.StatusBadRequest)
		return
	}
	discount, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get discount failed", slog.Any("error", err), slog.Int64("id", id))
		http.Error(w, "Discount not found", http.StatusNotFound)
		return
	}
	h.renderForm(w, r, discount, discount.Value.String(), map[string]string{}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(r)
	if err != nil {
		http.Error(w, "Invalid discount ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	discount, raw, fields := discountFromForm(r)
	discount.ID = id
	if fields != nil {
		h.renderForm(w, r, discount, raw, fields, http.StatusUnprocessableEntity)
		return
	}
	if err := h.service.Update(r.Context(), id, discount); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.view.RedirectWithFlash(w, r, basePath, "error", "Discount not found")
			return
		}
		h.formError(w, r, discount, raw, err)
		return
	}
	h.view.RedirectWithFlash(w, r, basePath+"/"+strconv.FormatInt(id, 10)+"/edit", "success", "Discount updated successfully")
}

// discountFromForm returns the parsed discount, the raw value for re-rendering
// and a field map when the value is not a number.
func discountFromForm(r *http.Request) (Discount, string, map[string]string) {
	raw := strings.TrimSpace(r.PostFormValue("value"))
	d := Discount{
		Name: r.PostFormValue("name"),
		Type: Type(r.PostFormValue("type")),
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return d, raw, map[string]string{"value": "Value must be a number"}
	}
	d.Value = value
	return d, raw, nil
}

func (h *Handler) formError(w http.ResponseWriter, r *http.Request, discount Discount, raw string, err error) {
	fields := shared.FieldErrors(err)
	status := http.StatusUnprocessableEntity
	if fields == nil {
		h.logger.Error("save discount failed", slog.Any("error", err))
		fields = map[string]string{"general": internalShared.UserSafeMessage(err)}
		status = http.StatusInternalServerError
	}
	h.renderForm(w, r, discount, raw, fields, status)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, discount Discount, raw string, fields map[string]string, status int) {
	h.render(w, r, "pages/masterdata/discount_form.html", map[string]any{
		"Errors":   fields,
		"Discount": discount,
		"Value":    raw,
		"Types":    []Type{TypePercentage, TypeAmount},
	}, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	h.view.Render(w, r, template, "Discounts", data, status)
}
