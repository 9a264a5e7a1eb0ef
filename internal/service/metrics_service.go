package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	outboxFlushes   prometheus.Counter
	outboxApplied   prometheus.Counter
	outboxDropped   prometheus.Counter
	outboxDeferred  prometheus.Gauge
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	outboxFlushes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_flush_total",
		Help: "Total outbox flush passes",
	})

	outboxApplied := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_actions_applied_total",
		Help: "Queued actions replayed successfully",
	})

	outboxDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_actions_dropped_total",
		Help: "Queued actions dropped after business failures",
	})

	outboxDeferred := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "outbox_actions_deferred",
		Help: "Queued actions deferred to the next flush",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, outboxFlushes, outboxApplied, outboxDropped, outboxDeferred, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		outboxFlushes:   outboxFlushes,
		outboxApplied:   outboxApplied,
		outboxDropped:   outboxDropped,
		outboxDeferred:  outboxDeferred,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := []string{method, path, fmt.Sprintf("%d", status)}
	m.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveOutboxFlush counts a flush pass.
func (m *MetricsService) ObserveOutboxFlush() {
	if m == nil {
		return
	}
	m.outboxFlushes.Inc()
}

// ObserveOutboxActions records the outcome counts of a flush pass.
func (m *MetricsService) ObserveOutboxActions(applied, dropped, deferred int) {
	if m == nil {
		return
	}
	m.outboxApplied.Add(float64(applied))
	m.outboxDropped.Add(float64(dropped))
	m.outboxDeferred.Set(float64(deferred))
}
