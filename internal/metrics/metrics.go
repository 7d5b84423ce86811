package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics for the local dashboard server
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Backend client metrics
	backendRequests        *prometheus.CounterVec
	backendRequestDuration *prometheus.HistogramVec
	signalsFetched         *prometheus.CounterVec
	staleResponses         *prometheus.CounterVec
	exportsTotal           *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	r.backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_backend_requests_total",
			Help: "Total number of requests made to the signal backend",
		},
		[]string{"endpoint", "outcome"},
	)
	r.backendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "signaldesk_backend_request_duration_seconds",
			Help: "Signal backend request duration in seconds",
			// Signal fetches scan a chat history and price data server-side.
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"endpoint"},
	)
	r.signalsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_signals_fetched_total",
			Help: "Total number of signals received from the backend",
		},
		[]string{"exchange"},
	)
	r.staleResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_stale_responses_total",
			Help: "Responses discarded because a newer request was issued",
		},
		[]string{"kind"},
	)
	r.exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signaldesk_exports_total",
			Help: "Total number of signal exports",
		},
		[]string{"status"},
	)

	reg.MustRegister(r.backendRequests)
	reg.MustRegister(r.backendRequestDuration)
	reg.MustRegister(r.signalsFetched)
	reg.MustRegister(r.staleResponses)
	reg.MustRegister(r.exportsTotal)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordBackendCall records one call to the signal backend.
// Outcome is "ok", "rejected" (success:false) or "transport".
func (r *Registry) RecordBackendCall(endpoint, outcome string, duration float64) {
	r.backendRequests.WithLabelValues(endpoint, outcome).Inc()
	r.backendRequestDuration.WithLabelValues(endpoint).Observe(duration)
}

// RecordSignalsFetched adds the number of rows a fetch returned.
func (r *Registry) RecordSignalsFetched(exchange string, n int) {
	r.signalsFetched.WithLabelValues(exchange).Add(float64(n))
}

// RecordStaleResponse counts a discarded out-of-order response.
func (r *Registry) RecordStaleResponse(kind string) {
	r.staleResponses.WithLabelValues(kind).Inc()
}

// RecordExport records an export attempt.
func (r *Registry) RecordExport(status string) {
	r.exportsTotal.WithLabelValues(status).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
