package metrics

import (
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func scrape(t *testing.T, p *Provider) string {
	t.Helper()
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	return rr.Body.String()
}

func TestProvider_PublishesBuildAndSetup(t *testing.T) {
	p := Init(Config{
		Build: BuildInfo{Version: "v1.2.3", Revision: "abc", Branch: "main", BuildDate: "today"},
		Setup: Setup{
			GridWorkers:   8,
			GridChunkSize: 4096,
			MaxK:          50,
			GeomCacheSize: 1024,
			Store:         "redis",
			Ops:           []string{"grid_disk", "spatial_query", "grid_disk"},
		},
	})

	if n, err := testutil.GatherAndCount(p.Gatherer(), "h3col_build_info", "h3col_grid_setting", "h3col_store_info", "h3col_op_info"); err != nil || n != 1+4+1+2 {
		t.Fatalf("gathered %d series err=%v, want 8", n, err)
	}

	body := scrape(t, p)
	for _, want := range []string{
		"go_goroutines",
		`h3col_build_info{branch="main",build_date="today",go_version="` + runtime.Version() + `",revision="abc",version="v1.2.3"} 1`,
		`h3col_grid_setting{setting="workers"} 8`,
		`h3col_grid_setting{setting="chunk_size"} 4096`,
		`h3col_grid_setting{setting="max_k"} 50`,
		`h3col_grid_setting{setting="geom_cache_size"} 1024`,
		`h3col_store_info{backend="redis"} 1`,
		`h3col_op_info{op="grid_disk"} 1`,
		`h3col_op_info{op="spatial_query"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("payload missing %q; got:\n%s", want, body)
		}
	}
}

func TestProvider_RegisterExtraCollectors(t *testing.T) {
	p := Init(Config{})
	workers := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{Name: "h3col_test_inflight", Help: "In-flight test requests."},
		func() float64 { return 3 },
	)
	p.Register(workers)

	if got := testutil.ToFloat64(workers); got != 3 {
		t.Fatalf("inflight=%v want 3", got)
	}
	if !strings.Contains(scrape(t, p), "h3col_test_inflight 3") {
		t.Fatalf("registered collector not served")
	}
}

func TestInit_Defaults(t *testing.T) {
	p := Init(Config{})
	if n, err := testutil.GatherAndCount(p.Gatherer(), "h3col_build_info", "h3col_op_info"); err != nil || n != 1 {
		t.Fatalf("series=%d err=%v, want only build info", n, err)
	}
	body := scrape(t, p)
	for _, want := range []string{`version="dev"`, `h3col_store_info{backend="none"} 1`} {
		if !strings.Contains(body, want) {
			t.Fatalf("payload missing %q", want)
		}
	}
}
