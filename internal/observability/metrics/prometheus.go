// Package metrics provides Prometheus metrics for the compliance service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics
type Metrics struct {
	OrdersEvaluated        prometheus.Counter
	OrdersFinalized        prometheus.Counter
	ComplianceBlocks       *prometheus.CounterVec
	VerificationRequests   *prometheus.CounterVec
	VerificationDuration   prometheus.Histogram
	ExpiredLotRejections   prometheus.Counter
	RegisterEntriesBuilt   prometheus.Counter
	RegisterEntriesWritten prometheus.Counter
	KafkaMessagesProduced  prometheus.Counter
	KafkaMessagesConsumed  prometheus.Counter
	CircuitBreakerState    *prometheus.GaugeVec
}

// New creates and registers all metrics
func New() *Metrics {
	m := &Metrics{
		OrdersEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_evaluated_total",
			Help: "Total orders run through compliance evaluation",
		}),
		OrdersFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "orders_finalized_total",
			Help: "Total orders that passed all compliance gates",
		}),
		ComplianceBlocks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "compliance_blocks_total",
			Help: "Checkouts blocked by a compliance gate",
		}, []string{"reason"}),
		VerificationRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "verification_requests_total",
			Help: "Verification gateway calls by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		VerificationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "verification_duration_seconds",
			Help:    "Verification gateway round-trip duration",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		ExpiredLotRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "expired_lot_rejections_total",
			Help: "Attempts to confirm an expired lot",
		}),
		RegisterEntriesBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "register_entries_built_total",
			Help: "Controlled drugs register entries built from finalized orders",
		}),
		RegisterEntriesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "register_entries_written_total",
			Help: "Controlled drugs register entries persisted by the relay",
		}),
		KafkaMessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafka_messages_produced_total",
			Help: "Total Kafka messages produced",
		}),
		KafkaMessagesConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kafka_messages_consumed_total",
			Help: "Total Kafka messages consumed",
		}),
		CircuitBreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		}, []string{"name"}),
	}

	prometheus.MustRegister(
		m.OrdersEvaluated,
		m.OrdersFinalized,
		m.ComplianceBlocks,
		m.VerificationRequests,
		m.VerificationDuration,
		m.ExpiredLotRejections,
		m.RegisterEntriesBuilt,
		m.RegisterEntriesWritten,
		m.KafkaMessagesProduced,
		m.KafkaMessagesConsumed,
		m.CircuitBreakerState,
	)

	return m
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
