package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMetricsHandler_Smoke(t *testing.T) {
	ObserveHTTP("POST", "/v1/grid/disk", 200, 0.001)
	ObserveOp("change_resolution", 3, 1, 0.0004)
	ObserveSpatialQuery("envelope", 7, 2)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, name := range []string{
		`http_requests_total{method="POST",route="/v1/grid/disk",status="200"}`,
		`column_op_duration_seconds_bucket{op="change_resolution"`,
		`spatial_query_candidates_bucket{shape="envelope"`,
	} {
		if !strings.Contains(body, name) {
			t.Fatalf("metrics payload missing %s; got:\n%s", name, body)
		}
	}
}
