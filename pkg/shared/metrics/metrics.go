// Package metrics exposes the Prometheus instrumentation SPEC_FULL.md
// §5.13 attaches to the generation and confirmation paths.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the counters and histograms exposed at GET /metrics.
type Metrics struct {
	registry            *prometheus.Registry
	Generations         *prometheus.CounterVec
	Confirmations       *prometheus.CounterVec
	LLMCallDuration     prometheus.Histogram
	GenerationDuration  *prometheus.HistogramVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics builds a Metrics bundle on a fresh registry, safe to call
// exactly once at process start.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.NewRegistry())
}

// NewMetricsWithRegistry builds a Metrics bundle registered against reg,
// used by tests to avoid the global default registry's cross-test state.
func NewMetricsWithRegistry(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		Generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "generations_total",
			Help: "Total document generations, by document_kind and status.",
		}, []string{"document_kind", "status"}),
		Confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "confirmations_total",
			Help: "Total confirmation attempts, by result.",
		}, []string{"result"}),
		LLMCallDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "llm_call_duration_seconds",
			Help:    "Latency of the LLM provider call.",
			Buckets: prometheus.DefBuckets,
		}),
		GenerationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "generation_duration_seconds",
			Help:    "End-to-end generation latency, by document_kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"document_kind"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency, by route and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
	reg.MustRegister(m.Generations, m.Confirmations, m.LLMCallDuration, m.GenerationDuration, m.HTTPRequestDuration)
	return m
}

// Handler exposes the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// HTTPMetrics is chi middleware recording request duration labeled by
// route pattern and response status.
func HTTPMetrics(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			m.HTTPRequestDuration.WithLabelValues(route, strconv.Itoa(ww.status)).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
