package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"placequery/internal/middleware"
)

// RouterConfig holds the knobs the router needs beyond the handler itself.
type RouterConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
	Logger         *slog.Logger // nil disables request logging
}

// NewRouter assembles the chi router with the standard middleware stack.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	if cfg.Logger != nil {
		r.Use(middleware.Logger(cfg.Logger))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
	}))
	if cfg.RateLimitRPS > 0 {
		r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		}))
	}

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/jobs", h.SubmitJob)
		r.Get("/jobs/current", h.CurrentJob)
		r.Post("/jobs/current/cancel", h.CancelJob)
		r.Delete("/jobs/current", h.ReleaseJob)
		r.Get("/jobs/current/export", h.ExportResult)
		r.Post("/preview/count", h.PreviewCount)
		r.Post("/compile", h.CompileQuery)
	})

	return r
}
