package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-pos/odyssey-pos/internal/auth"
	dashboardhttp "github.com/odyssey-pos/odyssey-pos/internal/dashboard/http"
	"github.com/odyssey-pos/odyssey-pos/internal/masterdata"
	"github.com/odyssey-pos/odyssey-pos/internal/observability"
	"github.com/odyssey-pos/odyssey-pos/internal/rbac"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/transactions"
	"github.com/odyssey-pos/odyssey-pos/internal/users"
	"github.com/odyssey-pos/odyssey-pos/internal/view"
	"github.com/odyssey-pos/odyssey-pos/jobs"
	"github.com/odyssey-pos/odyssey-pos/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Responder      view.Responder
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	RBACMiddleware rbac.Middleware
	Metrics        *observability.Metrics
	HealthChecks   []HealthCheck

	AuthHandler         *auth.Handler
	UsersHandler        *users.Handler
	MasterDataHandler   *masterdata.Handler
	TransactionsHandler *transactions.Handler
	DashboardHandler    *dashboardhttp.Handler
	JobHandler          *jobs.Handler
}

// NewRouter constructs the chi.Router with the POS defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		RBAC:           params.RBACMiddleware,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", HealthHandler(params.Logger, params.HealthChecks...))
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(RequireSignedIn)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			params.Responder.Render(w, r, "pages/home.html", params.Config.StoreName, map[string]any{
				"AppEnv": params.Config.AppEnv,
			}, http.StatusOK)
		})
		if params.TransactionsHandler != nil {
			r.Route("/transactions", params.TransactionsHandler.MountRoutes)
		}
		if params.MasterDataHandler != nil {
			r.Route("/masterdata", params.MasterDataHandler.MountRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.DashboardHandler != nil {
			params.DashboardHandler.MountRoutes(r)
		}
	})

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler caches embedded assets in the browser for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
