package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// UnmatchedRoute is the route label for requests no route matched.
const UnmatchedRoute = "unmatched"

// Metrics holds the service-level Prometheus metrics.
type Metrics struct {
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	requestSize       *prometheus.HistogramVec
	responseSize      *prometheus.HistogramVec
	activeRequests    *prometheus.GaugeVec
	rateLimitHits     *prometheus.CounterVec
	templatesLoaded   prometheus.Gauge
	templateRefreshes *prometheus.CounterVec
	circuitBreaker    *prometheus.GaugeVec
	buildInfo         *prometheus.GaugeVec
	startTime         prometheus.Gauge
	registry          *prometheus.Registry
}

// NewMetrics creates a new Metrics instance backed by a private registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "paramgw"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets: []float64{
				.0005, .001, .005, .01, .025,
				.05, .1, .25, .5, 1,
			},
		},
		[]string{"method", "route", "status"},
	)

	m.requestSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
		},
		[]string{"method", "route"},
	)

	m.responseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
		},
		[]string{"method", "route", "status"},
	)

	m.activeRequests = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_requests",
			Help:      "Number of in-flight HTTP requests",
		},
		[]string{"method"},
	)

	m.rateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total number of rejected rate-limited requests",
		},
		[]string{"route"},
	)

	m.templatesLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "templates",
			Name:      "loaded",
			Help:      "Number of template definitions in the active snapshot",
		},
	)

	m.templateRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "templates",
			Name:      "refreshes_total",
			Help:      "Total number of template store refreshes",
		},
		[]string{"source", "result"},
	)

	m.circuitBreaker = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	m.buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information",
		},
		[]string{"version", "commit", "build_time"},
	)

	m.startTime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "start_time_seconds",
			Help:      "Start time of the process in unix seconds",
		},
	)

	m.registerCollectors()
	m.startTime.SetToCurrentTime()

	return m
}

func (m *Metrics) registerCollectors() {
	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.requestSize,
		m.responseSize,
		m.activeRequests,
		m.rateLimitHits,
		m.templatesLoaded,
		m.templateRefreshes,
		m.circuitBreaker,
		m.buildInfo,
		m.startTime,
	)

	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// InitVecMetrics pre-populates label combinations so the series appear in
// /metrics output immediately after startup. Idempotent.
func (m *Metrics) InitVecMetrics(sources ...string) {
	for _, source := range sources {
		for _, result := range []string{"success", "error"} {
			m.templateRefreshes.WithLabelValues(source, result)
		}
	}
}

// RecordRequest records a completed HTTP request. route must be the matched
// route pattern, never the raw path.
func (m *Metrics) RecordRequest(
	method, route string,
	status int,
	duration time.Duration,
	reqSize, respSize int64,
) {
	statusStr := strconv.Itoa(status)

	m.requestsTotal.WithLabelValues(method, route, statusStr).Inc()
	m.requestDuration.WithLabelValues(method, route, statusStr).Observe(duration.Seconds())
	if reqSize >= 0 {
		m.requestSize.WithLabelValues(method, route).Observe(float64(reqSize))
	}
	m.responseSize.WithLabelValues(method, route, statusStr).Observe(float64(respSize))
}

// IncrementActiveRequests increments the in-flight gauge.
func (m *Metrics) IncrementActiveRequests(method string) {
	m.activeRequests.WithLabelValues(method).Inc()
}

// DecrementActiveRequests decrements the in-flight gauge.
func (m *Metrics) DecrementActiveRequests(method string) {
	m.activeRequests.WithLabelValues(method).Dec()
}

// RecordRateLimitHit records a rejected request. Client identifiers are not
// used as labels to keep cardinality bounded.
func (m *Metrics) RecordRateLimitHit(route string) {
	m.rateLimitHits.WithLabelValues(route).Inc()
}

// SetTemplatesLoaded sets the size of the active template snapshot.
func (m *Metrics) SetTemplatesLoaded(n int) {
	m.templatesLoaded.Set(float64(n))
}

// RecordTemplateRefresh records one store refresh attempt.
func (m *Metrics) RecordTemplateRefresh(source string, success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	m.templateRefreshes.WithLabelValues(source, result).Inc()
}

// SetCircuitBreakerState sets the circuit breaker state.
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.circuitBreaker.WithLabelValues(name).Set(float64(state))
}

// SetBuildInfo sets the build information metric.
func (m *Metrics) SetBuildInfo(version, commit, buildTime string) {
	m.buildInfo.WithLabelValues(version, commit, buildTime).Set(1)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(
		m.registry,
		promhttp.HandlerOpts{EnableOpenMetrics: true},
	)
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// MustRegisterCollector registers an additional collector with the
// registry backing the metrics endpoint, panicking on error.
func (m *Metrics) MustRegisterCollector(c prometheus.Collector) {
	m.registry.MustRegister(c)
}
