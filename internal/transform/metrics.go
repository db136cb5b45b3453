package transform

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation results.
const (
	ResultSuccess     = "success"
	ResultError       = "error"
	ResultPassthrough = "passthrough"
)

// TransformMetrics contains Prometheus metrics for transform operations.
type TransformMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	errorsTotal       *prometheus.CounterVec
}

var (
	transformMetricsInstance *TransformMetrics
	transformMetricsOnce     sync.Once
)

// GetTransformMetrics returns the singleton transform metrics instance.
func GetTransformMetrics() *TransformMetrics {
	transformMetricsOnce.Do(func() {
		transformMetricsInstance = &TransformMetrics{
			operationsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paramgw",
					Subsystem: "transform",
					Name:      "operations_total",
					Help:      "Total number of transform operations",
				},
				[]string{"direction", "result"},
			),
			operationDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: "paramgw",
					Subsystem: "transform",
					Name:      "operation_duration_seconds",
					Help:      "Duration of transform operations in seconds",
					Buckets: []float64{
						.00001, .00005, .0001, .0005,
						.001, .005, .01, .05,
					},
				},
				[]string{"direction"},
			),
			errorsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "paramgw",
					Subsystem: "transform",
					Name:      "errors_total",
					Help:      "Total number of transform errors by kind",
				},
				[]string{"direction", "kind"},
			),
		}
	})
	return transformMetricsInstance
}

// MustRegister registers all transform metric collectors with the given
// Prometheus registry. promauto registers with the default registry while
// the service serves /metrics from its own.
func (m *TransformMetrics) MustRegister(registry *prometheus.Registry) {
	registry.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.errorsTotal,
	)
}

// Init pre-initializes label combinations with zero values so that metrics
// appear in /metrics output immediately after startup. Idempotent.
func (m *TransformMetrics) Init() {
	kinds := []Kind{
		KindMissingRequired, KindTypeMismatch, KindRangeViolation,
		KindLengthViolation, KindSizeViolation, KindPatternViolation,
		KindInvalidOption, KindTemplateError, KindUnknownType,
	}
	for _, dir := range []string{DirectionRequest, DirectionResponse} {
		for _, result := range []string{ResultSuccess, ResultError, ResultPassthrough} {
			m.operationsTotal.WithLabelValues(dir, result)
		}
		m.operationDuration.WithLabelValues(dir)
		for _, kind := range kinds {
			m.errorsTotal.WithLabelValues(dir, string(kind))
		}
	}
}

// RecordOperation records a transform operation.
func (m *TransformMetrics) RecordOperation(direction, result string) {
	m.operationsTotal.WithLabelValues(direction, result).Inc()
}

// RecordError records a transform error.
func (m *TransformMetrics) RecordError(direction, kind string) {
	m.errorsTotal.WithLabelValues(direction, kind).Inc()
}
