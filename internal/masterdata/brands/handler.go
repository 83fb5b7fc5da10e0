package brands

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/rbac"
	internalShared "github.com/odyssey-pos/odyssey-pos/internal/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/view"
)

const basePath = "/masterdata/brands"

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
		trash:   shared.TrashActions{Responder: responder, Service: service, BasePath: basePath, Noun: "Brand"},
	}
}

// MountRoutes registers brand routes under the caller's prefix.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(internalShared.PermCatalogView))
		r.Get("/", h.List)
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
	filters := shared.FiltersFromRequest(r)
	brands, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list brands failed", slog.Any("error", err))
		http.Error(w, "Failed to load brands", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/masterdata/brands_list.html", map[string]any{
		"Brands":     brands,
		"Filters":    filters,
		"Pagination": internalShared.NewPagination(filters.Page, filters.Limit, total),
		"Trashed":    false,
	}, http.StatusOK)
}

func (h *Handler) Trashed(w http.ResponseWriter, r *http.Request) {
	filters := shared.FiltersFromRequest(r)
	brands, total, err := h.service.ListTrashed(r.Context(), filters)
	if err != nil {
		h.logger.Error("list trashed brands failed", slog.Any("error", err))
		http.Error(w, "Failed to load brands", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/masterdata/brands_list.html", map[string]any{
		"Brands":     brands,
		"Filters":    filters,
		"Pagination": internalShared.NewPagination(filters.Page, filters.Limit, total),
		"Trashed":    true,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/masterdata/brand_form.html", map[string]any{
		"Errors": map[string]string{},
		"Brand":  Brand{},
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	brand := Brand{Name: r.PostFormValue("name")}

	if _, err := h.service.Create(r.Context(), brand); err != nil {
		h.formError(w, r, brand, err)
		return
	}
	h.view.RedirectWithFlash(w, r, basePath, "success", "Brand created successfully")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(r)
	if err != nil {
		http.Error(w, "Invalid brand ID", http.StatusBadRequest)
		return
	}
	brand, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get brand failed", slog.Any("error", err), slog.Int64("id", id))
		http.Error(w, "Brand not found", http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/masterdata/brand_form.html", map[string]any{
		"Errors": map[string]string{},
		"Brand":  brand,
	}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(r)
	if err != nil {
		http.Error(w, "Invalid brand ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	brand := Brand{ID: id, Name: r.PostFormValue("name")}

	if err := h.service.Update(r.Context(), id, brand); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.view.RedirectWithFlash(w, r, basePath, "error", "Brand not found")
			return
		}
		h.formError(w, r, brand, err)
		return
	}
	h.view.RedirectWithFlash(w, r, basePath+"/"+strconv.FormatInt(id, 10)+"/edit", "success", "Brand updated successfully")
}

func (h *Handler) formError(w http.ResponseWriter, r *http.Request, brand Brand, err error) {
	fields := shared.FieldErrors(err)
	status := http.StatusUnprocessableEntity
	if fields == nil {
		h.logger.Error("save brand failed", slog.Any("error", err))
		fields = map[string]string{"general": internalShared.UserSafeMessage(err)}
		status = http.StatusInternalServerError
	}
	h.render(w, r, "pages/masterdata/brand_form.html", map[string]any{
		"Errors": fields,
		"Brand":  brand,
	}, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	h.view.Render(w, r, template, "Brands", data, status)
}
