package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the web app and worker.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	directoryCalls  *prometheus.CounterVec
	directoryTime   *prometheus.HistogramVec
	records         *prometheus.GaugeVec
}

// NewMetrics initialises the registry and collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "synapse_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "synapse_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "synapse_directory_calls_total",
		Help: "Directory API calls by operation and outcome.",
	}, []string{"op", "outcome"})
	callTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "synapse_directory_call_duration_seconds",
		Help:    "Directory API latency by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	records := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "synapse_directory_records",
		Help: "Listings seen on the last load, by approval state.",
	}, []string{"state"})
	registry.MustRegister(requests, duration, calls, callTime, records)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		directoryCalls:  calls,
		directoryTime:   callTime,
		records:         records,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveDirectoryCall counts one Directory API call. It satisfies
// directory.Observer.
func (m *Metrics) ObserveDirectoryCall(op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.directoryCalls.WithLabelValues(op, outcome).Inc()
	m.directoryTime.WithLabelValues(op).Observe(elapsed.Seconds())
}

// SetRecordCounts publishes the listing gauge, keyed by approval label.
func (m *Metrics) SetRecordCounts(counts map[string]int) {
	if m == nil {
		return
	}
	for state, n := range counts {
		m.records.WithLabelValues(state).Set(float64(n))
	}
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
