package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLiveness_Handler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	Liveness()(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	ct := rr.Header().Get("Content-Type")
	if !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content-type=%q want text/plain", ct)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "ok" {
		t.Fatalf("body=%q want ok", got)
	}
}

type fakeReporter struct{ err error }

func (f fakeReporter) Ready(context.Context) error { return f.err }

func TestReadiness_Handler(t *testing.T) {
	cases := []struct {
		name      string
		reporters map[string]ReadinessReporter
		code      int
		status    string
	}{
		{"no deps", nil, http.StatusOK, "ready"},
		{"nil dep skipped", map[string]ReadinessReporter{"store": nil}, http.StatusOK, "ready"},
		{"healthy", map[string]ReadinessReporter{"store": fakeReporter{}}, http.StatusOK, "ready"},
		{"down", map[string]ReadinessReporter{"store": fakeReporter{err: errors.New("dial tcp: refused")}}, http.StatusServiceUnavailable, "not_ready"},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		Readiness(time.Second, tc.reporters)(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if rr.Code != tc.code {
			t.Fatalf("%s: status=%d want %d", tc.name, rr.Code, tc.code)
		}
		var body struct {
			Status string            `json:"status"`
			Failed map[string]string `json:"failed"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("%s: decode: %v", tc.name, err)
		}
		if body.Status != tc.status {
			t.Fatalf("%s: status=%q want %q", tc.name, body.Status, tc.status)
		}
	}
}
