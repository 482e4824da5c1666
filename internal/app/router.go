package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/agora-social/agora/internal/auth"
	"github.com/agora-social/agora/internal/dispatch"
	"github.com/agora-social/agora/internal/observability"
	"github.com/agora-social/agora/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger      *slog.Logger
	Config      *Config
	AuthHandler *auth.Handler

	// Action-dispatch endpoints, one per domain surface.
	Posts       *dispatch.Handler
	Communities *dispatch.Handler
	Polls       *dispatch.Handler
	Business    *dispatch.Handler
	Admin       *dispatch.Handler

	JobHandler *jobs.Handler
	Metrics    *observability.Metrics
}

// NewRouter constructs the chi.Router with Agora defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Route("/api", func(r chi.Router) {
		if params.Posts != nil {
			r.Method(http.MethodPost, "/posts", params.Posts)
		}
		if params.Communities != nil {
			r.Method(http.MethodPost, "/communities", params.Communities)
		}
		if params.Polls != nil {
			r.Method(http.MethodPost, "/polls", params.Polls)
		}
		if params.Business != nil {
			r.Method(http.MethodPost, "/business", params.Business)
		}
		if params.Admin != nil {
			r.Method(http.MethodPost, "/admin", params.Admin)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
