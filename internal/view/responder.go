package view

import (
	"log/slog"
	"net/http"

	"github.com/odyssey-pos/odyssey-pos/internal/shared"
)

// PermissionsFunc returns the capabilities attached to the request, if any.
type PermissionsFunc func(r *http.Request) []string

// Responder bundles the render and flash-redirect helpers every HTML handler uses.
type Responder struct {
	Logger      *slog.Logger
	Templates   *Engine
	CSRF        *shared.CSRFManager
	Permissions PermissionsFunc
}

// Render writes template with status, attaching the CSRF token, pending flash and capabilities.
func (p Responder) Render(w http.ResponseWriter, r *http.Request, template, title string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	var (
		csrfToken string
		flash     *shared.FlashMessage
	)
	if sess != nil {
		if p.CSRF != nil {
			csrfToken, _ = p.CSRF.EnsureToken(r.Context(), sess)
		}
		flash = sess.PopFlash()
	}
	can := map[string]bool{}
	if p.Permissions != nil {
		for _, perm := range p.Permissions(r) {
			can[perm] = true
		}
	}
	viewData := TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Can:         can,
		Data:        data,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := p.Templates.Render(w, template, viewData); err != nil && p.Logger != nil {
		p.Logger.Error("render template", slog.Any("error", err), slog.String("template", template))
	}
}

// RedirectWithFlash queues a flash message and redirects with 303.
func (p Responder) RedirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
