package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "token_ledger"

// Operation results.
const (
	ResultOK                    = "ok"
	ResultInsufficientBalance   = "insufficient_balance"
	ResultInsufficientAllowance = "insufficient_allowance"
	ResultError                 = "error"
)

// Metrics groups the collectors of one ledger host on its own registry.
type Metrics struct {
	registry      *prometheus.Registry
	operations    *prometheus.CounterVec
	publishErrors *prometheus.CounterVec
}

// New creates the counters on a registry of their own.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Ledger operations by kind and result.",
		}, []string{"operation", "result"}),
		publishErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Events that could not be handed to the publisher.",
		}, []string{"topic"}),
	}
}

func (m *Metrics) ObserveOperation(operation, result string) {
	m.operations.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) ObservePublishError(topic string) {
	m.publishErrors.WithLabelValues(topic).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
