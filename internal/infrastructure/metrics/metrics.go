package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the subscription service
type Metrics struct {
	// Engine operations
	OperationsTotal   *prometheus.CounterVec
	ItemOutcomes      *prometheus.CounterVec
	Rejections        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Store
	StorageFailures prometheus.Counter

	// Bulk coordinator
	BulkTransitions *prometheus.CounterVec

	// Kafka command handling
	CommandsConsumed *prometheus.CounterVec
}

var (
	// DefaultMetrics is the default metrics instance
	DefaultMetrics *Metrics
	once           sync.Once
)

// GetDefaultMetrics returns the singleton metrics instance
func GetDefaultMetrics() *Metrics {
	once.Do(func() {
		DefaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return DefaultMetrics
}

// NewMetrics registers all collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscription_service_operations_total",
				Help: "Total number of engine operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		ItemOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscription_service_item_outcomes_total",
				Help: "Total number of per-item results by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		Rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscription_service_rejections_total",
				Help: "Total number of rejected items or requests by error kind",
			},
			[]string{"operation", "kind"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "subscription_service_operation_duration_seconds",
				Help:    "Duration of engine operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"operation"},
		),
		StorageFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "subscription_service_storage_failures_total",
			Help: "Total number of failed subscription saves",
		}),
		BulkTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscription_service_bulk_transitions_total",
				Help: "Total number of bulk operation state transitions",
			},
			[]string{"kind", "state"},
		),
		CommandsConsumed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscription_service_commands_consumed_total",
				Help: "Total number of command intents consumed from Kafka",
			},
			[]string{"type", "status"},
		),
	}
}

// RecordOperation records an engine operation with its overall outcome
func (m *Metrics) RecordOperation(operation, outcome string, duration float64) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordItem records the outcome of a single item inside an operation
func (m *Metrics) RecordItem(operation, outcome string) {
	m.ItemOutcomes.WithLabelValues(operation, outcome).Inc()
}

// RecordRejection records a rejection with its error kind
func (m *Metrics) RecordRejection(operation, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.Rejections.WithLabelValues(operation, kind).Inc()
}

// RecordStorageFailure records a failed save
func (m *Metrics) RecordStorageFailure() {
	m.StorageFailures.Inc()
}

// RecordBulkTransition records a bulk operation entering state
func (m *Metrics) RecordBulkTransition(kind, state string) {
	m.BulkTransitions.WithLabelValues(kind, state).Inc()
}

// RecordCommand records a consumed command and whether handling succeeded
func (m *Metrics) RecordCommand(commandType, status string) {
	if commandType == "" {
		commandType = "unknown"
	}
	m.CommandsConsumed.WithLabelValues(commandType, status).Inc()
}
