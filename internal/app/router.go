package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/klarity-app/klarity/internal/auth"
	"github.com/klarity-app/klarity/internal/contracts"
	"github.com/klarity-app/klarity/internal/dashboard"
	"github.com/klarity-app/klarity/internal/platform/httpx"
	"github.com/klarity-app/klarity/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Gate             *Gate
	Session          func(http.Handler) http.Handler
	AuthHandler      *auth.Handler
	ContractsHandler *contracts.Handler
	DashboardHandler *dashboard.Handler
	JobsHandler      *jobs.Handler
}

// NewRouter constructs the chi.Router with Klarity defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Session: params.Session,
		Gate:    params.Gate,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Page-level routes. Rendering belongs to the SPA; the server only
	// answers with the data each page needs.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"app": "klarity"})
	})
	r.Get("/auth/signin", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"page": "signin"})
	})
	r.Get("/auth/error", func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusUnauthorized, "authentication failed")
	})
	r.Get("/dashboard", params.DashboardHandler.Page)

	r.Route("/api/auth", params.AuthHandler.MountRoutes)
	r.Route("/api/contracts", params.ContractsHandler.MountRoutes)
	r.Route("/api/dashboard", params.DashboardHandler.MountRoutes)
	if params.JobsHandler != nil {
		r.Route("/api/jobs", func(r chi.Router) {
			r.Use(auth.RequireUser)
			params.JobsHandler.MountRoutes(r)
		})
	}

	return r
}
