package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	mdshared "github.com/odyssey-pos/odyssey-pos/internal/masterdata/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/view"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	view     view.Responder
	sessions *shared.SessionManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, responder view.Responder, sessions *shared.SessionManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, view: responder, sessions: sessions}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

var loginLabels = map[string]string{"email": "Email", "password": "Password"}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := shared.CurrentUserID(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, loginForm{}, map[string]string{}, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := loginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	ve := mdshared.NewValidationError()
	mdshared.ValidateStruct(ve, form, loginLabels)
	if !ve.Empty() {
		form.Password = ""
		h.render(w, r, form, ve.Fields(), http.StatusUnprocessableEntity)
		return
	}

	user, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
	if err != nil {
		form.Password = ""
		status := http.StatusUnauthorized
		if errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Info("login rejected", slog.String("email", form.Email))
		} else {
			h.logger.Error("login", slog.Any("error", err))
			status = http.StatusInternalServerError
		}
		h.render(w, r, form, map[string]string{"general": shared.UserSafeMessage(err)}, status)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	// a fresh id on privilege change blocks session fixation
	h.sessions.Renew(sess)
	sess.Delete(shared.CSRFSessionKey)
	sess.SetUser(strconv.FormatInt(user.ID, 10))
	if err := h.service.StartSession(r.Context(), sess.ID, user.ID, h.sessions.TTL(), r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err), slog.Int64("user_id", user.ID))
	}
	h.logger.Info("login", slog.Int64("user_id", user.ID))
	h.view.RedirectWithFlash(w, r, "/", "success", "Welcome back, "+user.Name)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if err := h.service.EndSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessions.Destroy(sess)
	}
	http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, form loginForm, errs map[string]string, status int) {
	h.view.Render(w, r, "pages/login.html", "Sign in", map[string]any{
		"Form":   form,
		"Errors": errs,
	}, status)
}
