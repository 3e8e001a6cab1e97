package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is nil-safe: every Observe*/Inc* method is a no-op on a nil receiver, so callers
// can use Current() unconditionally.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	llmRequests *prometheus.CounterVec
	llmRetries  *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec

	pipelineUnits   *prometheus.CounterVec
	relationsMerged *prometheus.CounterVec
	rebuildDuration prometheus.Histogram
	rebuildEdges    prometheus.Gauge
	suggestLatency  prometheus.Histogram
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Init creates the process-wide registry once. When disabled, Current() stays nil.
func Init(enabled bool) *Metrics {
	initOnce.Do(func() {
		if enabled {
			instance = NewMetrics()
		}
	})
	return instance
}

func Current() *Metrics {
	return instance
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillbridge_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skillbridge_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillbridge_llm_requests_total",
			Help: "Language-model calls by schema and outcome.",
		}, []string{"schema", "outcome"}),
		llmRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillbridge_llm_retries_total",
			Help: "Language-model retry attempts by schema.",
		}, []string{"schema"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skillbridge_llm_request_duration_seconds",
			Help:    "Language-model call latency including retries.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
		}, []string{"schema"}),
		pipelineUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillbridge_pipeline_units_total",
			Help: "Module processing units by outcome.",
		}, []string{"outcome"}),
		relationsMerged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skillbridge_relations_merged_total",
			Help: "Proposed skill relations by merge outcome.",
		}, []string{"outcome"}),
		rebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skillbridge_cooccurrence_rebuild_duration_seconds",
			Help:    "Duration of co-occurrence rebuilds.",
			Buckets: prometheus.DefBuckets,
		}),
		rebuildEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "skillbridge_cooccurrence_edges",
			Help: "Co-occurrence edges written by the last rebuild.",
		}),
		suggestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skillbridge_suggest_duration_seconds",
			Help:    "Skill suggestion query latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.httpRequests, m.httpLatency,
		m.llmRequests, m.llmRetries, m.llmLatency,
		m.pipelineUnits, m.relationsMerged,
		m.rebuildDuration, m.rebuildEdges, m.suggestLatency,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(dur.Seconds())
}

func (m *Metrics) ObserveLLMRequest(schema, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(schema, outcome).Inc()
	m.llmLatency.WithLabelValues(schema).Observe(dur.Seconds())
}

func (m *Metrics) IncLLMRetry(schema string) {
	if m == nil {
		return
	}
	m.llmRetries.WithLabelValues(schema).Inc()
}

func (m *Metrics) IncPipelineUnit(outcome string) {
	if m == nil {
		return
	}
	m.pipelineUnits.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AddRelationsMerged(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.relationsMerged.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) ObserveRebuild(dur time.Duration, edges int) {
	if m == nil {
		return
	}
	m.rebuildDuration.Observe(dur.Seconds())
	m.rebuildEdges.Set(float64(edges))
}

func (m *Metrics) ObserveSuggest(dur time.Duration) {
	if m == nil {
		return
	}
	m.suggestLatency.Observe(dur.Seconds())
}
