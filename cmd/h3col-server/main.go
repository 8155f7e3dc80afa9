package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mohammed-shakir/h3-columnar/internal/api"
	"github.com/mohammed-shakir/h3-columnar/internal/core/config"
	"github.com/mohammed-shakir/h3-columnar/internal/core/health"
	"github.com/mohammed-shakir/h3-columnar/internal/core/server"
	"github.com/mohammed-shakir/h3-columnar/internal/grid"
	"github.com/mohammed-shakir/h3-columnar/internal/logger"
	"github.com/mohammed-shakir/h3-columnar/internal/metrics"
	"github.com/mohammed-shakir/h3-columnar/internal/store/columnstore"
	"github.com/mohammed-shakir/h3-columnar/internal/store/redisstore"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Service:   "h3col",
		Component: "server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	appLog.Info("starting h3col server",
		"addr", cfg.Addr,
		"version", Version,
		"grid_workers", cfg.Grid.Workers,
		"max_k", cfg.Grid.MaxK,
		"redis", cfg.Store.RedisAddr != "")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ready := map[string]health.ReadinessReporter{}
	var store *columnstore.Store
	if cfg.Store.RedisAddr != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rc, err := redisstore.New(dialCtx, cfg.Store.RedisAddr)
		cancel()
		if err != nil {
			appLog.Error("redis connect failed", "addr", cfg.Store.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = rc.Close() }()
		store = columnstore.New(rc, columnstore.Options{
			TTLFor:    cfg.Store.TTLFor,
			OpTimeout: cfg.Store.OpTimeout,
			Logger:    appLog,
		})
		ready["redis"] = rc
	}

	engine := grid.New(grid.Options{
		Workers:   cfg.Grid.Workers,
		ChunkSize: cfg.Grid.ChunkSize,
		MaxK:      cfg.Grid.MaxK,
	})
	eo := engine.Options()
	backend := ""
	if store != nil {
		backend = "redis"
	}
	p := metrics.Init(metrics.Config{
		Build: metrics.BuildInfo{
			Version:   Version,
			Revision:  os.Getenv("BUILD_REVISION"),
			Branch:    os.Getenv("BUILD_BRANCH"),
			BuildDate: os.Getenv("BUILD_DATE"),
		},
		Setup: metrics.Setup{
			GridWorkers:   eo.Workers,
			GridChunkSize: eo.ChunkSize,
			MaxK:          eo.MaxK,
			GeomCacheSize: cfg.GeomCacheSize,
			Store:         backend,
			Ops:           api.Ops,
		},
	})
	if cfg.Metrics.Enabled && cfg.Metrics.Addr != "" {
		go serveMetrics(ctx, appLog, cfg.Metrics.Addr, cfg.Metrics.Path, p.Handler())
	}

	h := api.New(appLog, engine, store, api.Options{
		MaxBodyBytes:  cfg.MaxBodyBytes,
		GeomCacheSize: cfg.GeomCacheSize,
		Workers:       cfg.Grid.Workers,
		DefaultRes:    cfg.H3Res,
	})

	deps := server.Deps{API: h, Ready: ready}
	if cfg.Metrics.Enabled {
		deps.Metrics = p.Handler()
	}
	if err := server.Run(ctx, cfg, appLog, deps); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

func serveMetrics(ctx context.Context, l *slog.Logger, addr, path string, h http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(path, h)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Error("metrics shutdown", "err", err)
		}
	}()

	l.Info("metrics listening", "addr", addr, "path", path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("metrics server exited", "err", err)
	}
}
