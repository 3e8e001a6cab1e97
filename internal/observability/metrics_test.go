package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("GET", "/x", 200, time.Millisecond)
	m.ObserveLLMRequest("schema", "ok", time.Second)
	m.IncLLMRetry("schema")
	m.IncPipelineUnit("succeeded")
	m.AddRelationsMerged("accepted", 3)
	m.ObserveRebuild(time.Second, 4)
	m.ObserveSuggest(time.Millisecond)
	if m.Registry() != nil {
		t.Fatalf("nil metrics should have nil registry")
	}
}

func TestMetricsHandlerExposesCounters(t *testing.T) {
	m := NewMetrics()
	m.IncPipelineUnit("succeeded")
	m.ObserveRebuild(2*time.Second, 7)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `skillbridge_pipeline_units_total{outcome="succeeded"} 1`) {
		t.Fatalf("pipeline counter missing from scrape:\n%s", body)
	}
	if !strings.Contains(body, "skillbridge_cooccurrence_edges 7") {
		t.Fatalf("rebuild gauge missing from scrape")
	}
}

func TestParseHeaders(t *testing.T) {
	h := ParseHeaders("a=1, b = 2 ,bad,=x")
	if len(h) != 2 || h["a"] != "1" || h["b"] != "2" {
		t.Fatalf("ParseHeaders: got=%v", h)
	}
	if ParseHeaders("  ") != nil {
		t.Fatalf("ParseHeaders(empty) should be nil")
	}
}
