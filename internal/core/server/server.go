package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/h3-columnar/internal/core/config"
	"github.com/mohammed-shakir/h3-columnar/internal/core/health"
	middleware "github.com/mohammed-shakir/h3-columnar/internal/core/middleware"
)

// Deps are the pieces Router mounts. Nil fields are skipped.
type Deps struct {
	API interface{ Mount(chi.Router) }
	// Metrics is served on cfg.Metrics.Path when metrics are enabled and no
	// separate metrics address is configured.
	Metrics http.Handler
	Ready   map[string]health.ReadinessReporter
}

func Router(cfg config.Config, logger *slog.Logger, d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(cfg.Store.OpTimeout, d.Ready))
	if d.Metrics != nil && cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		r.Method(http.MethodGet, cfg.Metrics.Path, d.Metrics)
	}
	if d.API != nil {
		d.API.Mount(r)
	}
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, d Deps) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           Router(cfg, logger, d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
