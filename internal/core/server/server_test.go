package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/h3-columnar/internal/core/config"
	"github.com/mohammed-shakir/h3-columnar/internal/core/health"
	"github.com/mohammed-shakir/h3-columnar/internal/metrics"
)

type pingAPI struct{}

func (pingAPI) Mount(r chi.Router) {
	r.Get("/v1/ping", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("pong")) })
}

type downStore struct{}

func (downStore) Ready(context.Context) error { return errors.New("connection refused") }

func TestRouter_MountsEverything(t *testing.T) {
	cfg := config.FromEnv()
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := metrics.Init(metrics.Config{})

	h := Router(cfg, l, Deps{API: pingAPI{}, Metrics: p.Handler()})
	cases := []struct {
		path string
		code int
		body string
	}{
		{"/healthz", http.StatusOK, "ok"},
		{"/readyz", http.StatusOK, `"ready"`},
		{"/v1/ping", http.StatusOK, "pong"},
		{"/metrics", http.StatusOK, "h3col_build_info"},
		{"/nope", http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rr.Code != tc.code || !strings.Contains(rr.Body.String(), tc.body) {
			t.Fatalf("%s: status=%d body=%q", tc.path, rr.Code, rr.Body.String())
		}
	}
}

func TestRouter_ReadyReflectsStoreAndMetricsAddr(t *testing.T) {
	cfg := config.FromEnv()
	cfg.Metrics.Addr = ":9999"
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := metrics.Init(metrics.Config{})

	h := Router(cfg, l, Deps{Metrics: p.Handler(), Ready: map[string]health.ReadinessReporter{"store": downStore{}}})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz status=%d want 503", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("metrics on a separate addr must not be mounted; status=%d", rr.Code)
	}
}
