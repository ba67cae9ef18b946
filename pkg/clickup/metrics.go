package clickup

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

// Metrics holds the Prometheus collectors for API traffic.
// Each Metrics owns its registry so several clients can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	failures        *prometheus.CounterVec
	breakerState    prometheus.Gauge
}

// NewMetrics creates a metrics set registered on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clicklite_api_requests_total",
				Help: "Total number of ClickUp API requests by operation and status code",
			},
			[]string{"op", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clicklite_api_request_duration_seconds",
				Help:    "Latency of ClickUp API requests",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
			},
			[]string{"op"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clicklite_api_failures_total",
				Help: "Total number of failed ClickUp API calls by error kind",
			},
			[]string{"op", "kind"},
		),
		breakerState: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "clicklite_api_circuit_state",
				Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
		),
	}
}

// Registry exposes the registry for an HTTP /metrics handler
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeRequest(op string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(op).Observe(seconds)
}

func (m *Metrics) observeFailure(op string, kind ErrorKind) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(op, kind.String()).Inc()
}

func (m *Metrics) setBreakerState(state gobreaker.State) {
	if m == nil {
		return
	}
	m.breakerState.Set(float64(state))
}
