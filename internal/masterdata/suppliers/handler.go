package suppliers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/rbac"
	internalShared "github.com/odyssey-pos/odyssey-pos/internal/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/view"
)

const basePath = "/masterdata/suppliers"

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
		trash:   shared.TrashActions{Responder: responder, Service: service, BasePath: basePath, Noun: "Supplier"},
	}
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
	suppliers, total, err := load(r.Context(), filters)
	if err != nil {
		h.logger.Error("list suppliers failed", slog.Any("error", err), slog.Bool("trashed", trashed))
		http.Error(w, "Failed to load suppliers", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/masterdata/suppliers_list.html", map[string]any{
		"Suppliers":  suppliers,
		"Filters":    filters,
		"Pagination": internalShared.NewPagination(filters.Page, filters.Limit, total),
		"Trashed":    trashed,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/masterdata/supplier_form.html", map[string]any{
		"Errors":   map[string]string{},
		"Supplier": Supplier{},
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	supplier := supplierFromForm(r)

	if _, err := h.service.Create(r.Context(), supplier); err != nil {
		h.formError(w, r, supplier, err)
		return
	}
	h.view.RedirectWithFlash(w, r, basePath, "success", "Supplier created successfully")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(r)
	if err != nil {
		http.Error(w, "Invalid supplier ID", http.StatusBadRequest)
		return
	}
	supplier, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("get supplier failed", slog.Any("error", err), slog.Int64("id", id))
		http.Error(w, "Supplier not found", http.StatusNotFound)
		return
	}
	h.render(w, r, "pages/masterdata/supplier_form.html", map[string]any{
		"Errors":   map[string]string{},
		"Supplier": supplier,
	}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(r)
	if err != nil {
		http.Error(w, "Invalid supplier ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	supplier := supplierFromForm(r)
	supplier.ID = id

	if err := h.service.Update(r.Context(), id, supplier); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.view.RedirectWithFlash(w, r, basePath, "error", "Supplier not found")
			return
		}
		h.formError(w, r, supplier, err)
		return
	}
	h.view.RedirectWithFlash(w, r, basePath+"/"+strconv.FormatInt(id, 10)+"/edit", "success", "Supplier updated successfully")
}

func supplierFromForm(r *http.Request) Supplier {
	return Supplier{
		Name:          r.PostFormValue("name"),
		Email:         r.PostFormValue("email"),
		ContactNumber: r.PostFormValue("contact_number"),
		Address:       r.PostFormValue("address"),
	}
}

func (h *Handler) formError(w http.ResponseWriter, r *http.Request, supplier Supplier, err error) {
	fields := shared.FieldErrors(err)
	status := http.StatusUnprocessableEntity
	if fields == nil {
		h.logger.Error("save supplier failed", slog.Any("error", err))
		fields = map[string]string{"general": internalShared.UserSafeMessage(err)}
		status = http.StatusInternalServerError
	}
	h.render(w, r, "pages/masterdata/supplier_form.html", map[string]any{
		"Errors":   fields,
		"Supplier": supplier,
	}, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	h.view.Render(w, r, template, "Suppliers", data, status)
}
