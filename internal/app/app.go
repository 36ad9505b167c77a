// Package app wires the engine, job manager, and HTTP handler from config.
package app

import (
	"context"
	"log/slog"
	"net/http"

	"placequery/internal/api"
	"placequery/internal/config"
	"placequery/internal/engine"
	"placequery/internal/job"
)

// App holds the fully-wired application.
type App struct {
	Engine  *engine.Engine
	Manager *job.Manager
	Router  http.Handler
}

// New opens the engine and wires the job manager and API router.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	eng, err := engine.Open(ctx, engine.Config{
		S3Region:    cfg.S3Region,
		MaxMemoryGB: cfg.MaxMemoryGB,
		Logger:      logger.With("component", "engine"),
	})
	if err != nil {
		return nil, err
	}

	manager := job.NewManager(eng, job.Options{
		Release:     cfg.Release,
		CancelGrace: cfg.CancelGrace,
		Logger:      logger.With("component", "job"),
	})

	handler := api.NewHandler(manager, eng, logger.With("component", "api"))
	router := api.NewRouter(handler, api.RouterConfig{
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger.With("component", "http"),
	})

	return &App{Engine: eng, Manager: manager, Router: router}, nil
}

// Close releases the engine.
func (a *App) Close() error { return a.Engine.Close() }
