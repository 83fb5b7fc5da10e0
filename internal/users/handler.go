package users

import (
	"context"
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

const basePath = "/users"

// RoleLister lists the roles offered on the account form.
type RoleLister interface {
	ListRoles(ctx context.Context) ([]rbac.RoleRecord, error)
}

// Handler manages user management endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	roles   RoleLister
	view    view.Responder
	rbac    rbac.Middleware
	trash   shared.TrashActions
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, roles RoleLister, responder view.Responder, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		roles:   roles,
		view:    responder,
		rbac:    rbac,
		trash:   shared.TrashActions{Responder: responder, Service: service, BasePath: basePath, Noun: "User"},
	}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(internalShared.PermUsersView, internalShared.PermUsersManage))
		r.Get("/", h.List)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(internalShared.PermUsersManage))
		r.Get("/new", h.Form)
		r.Post("/", h.Create)
		r.Get("/trashed", h.Trashed)
		r.Get("/{id}/edit", h.EditForm)
		r.Post("/{id}", h.Update)
		r.Post("/{id}/delete", h.trash.Delete)
		r.Post("/{id}/restore", h.trash.Restore)
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
	users, total, err := load(r.Context(), filters)
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err), slog.Bool("trashed", trashed))
		http.Error(w, "Failed to load users", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/users/list.html", map[string]any{
		"Users":      users,
		"Filters":    filters,
		"Pagination": internalShared.NewPagination(filters.Page, filters.Limit, total),
		"Trashed":    trashed,
	}, http.StatusOK)
}

func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, 0, Input{}, map[string]string{}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	in := inputFromForm(r)
	if _, err := h.service.Create(r.Context(), in); err != nil {
		h.formError(w, r, 0, in, err)
		return
	}
	h.view.RedirectWithFlash(w, r, basePath, "success", "User created successfully")
}

func (h *Handler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(r)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			h.logger.Error("get user failed", slog.Any("error", err), slog.Int64("id", id))
		}
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	in := Input{Name: u.Name, Email: u.Email, RoleID: u.RoleID}
	if u.Image != nil {
		in.Image = *u.Image
	}
	h.renderForm(w, r, id, in, map[string]string{}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ParseID(r)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	in := inputFromForm(r)
	if err := h.service.Update(r.Context(), id, in); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.view.RedirectWithFlash(w, r, basePath, "error", "User not found")
			return
		}
		h.formError(w, r, id, in, err)
		return
	}
	h.view.RedirectWithFlash(w, r, basePath+"/"+strconv.FormatInt(id, 10)+"/edit", "success", "User updated successfully")
}

func inputFromForm(r *http.Request) Input {
	return Input{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
		RoleID:   shared.ParseOptionalID(r.PostFormValue("role_id")),
		Image:    r.PostFormValue("image"),
	}
}

func (h *Handler) formError(w http.ResponseWriter, r *http.Request, id int64, in Input, err error) {
	fields := shared.FieldErrors(err)
	status := http.StatusUnprocessableEntity
	if fields == nil {
		h.logger.Error("save user failed", slog.Any("error", err))
		fields = map[string]string{"general": internalShared.UserSafeMessage(err)}
		status = http.StatusInternalServerError
	}
	h.renderForm(w, r, id, in, fields, status)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, id int64, in Input, errs map[string]string, status int) {
	// the password is never echoed back
	in.Password = ""
	var roles []rbac.RoleRecord
	if h.roles != nil {
		var err error
		if roles, err = h.roles.ListRoles(r.Context()); err != nil {
			h.logger.Error("list roles failed", slog.Any("error", err))
		}
	}
	h.render(w, r, "pages/users/form.html", map[string]any{
		"ID":     id,
		"Form":   in,
		"Roles":  roles,
		"Errors": errs,
	}, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	h.view.Render(w, r, template, "Users", data, status)
}
