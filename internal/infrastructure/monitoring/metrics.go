// Package monitoring provides Prometheus metrics and OpenTelemetry tracing
package monitoring

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "healthylife"

// MetricsCollector handles Prometheus metrics collection
type MetricsCollector struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// Provider metrics
	providerAttempts *prometheus.CounterVec
	providerMeter    *ProviderMeter
	cooldownsTotal   *prometheus.CounterVec
	fallbacksTotal   *prometheus.CounterVec

	// Business metrics
	mealsLoggedTotal     *prometheus.CounterVec
	usersRegisteredTotal prometheus.Counter
}

// NewMetricsCollector creates a collector on its own registry, with the Go
// runtime and process collectors attached. Provider call latency is recorded
// through an OpenTelemetry meter exported on the same registry.
func NewMetricsCollector(logger *zap.Logger) *MetricsCollector {
	logger = logger.Named("metrics")
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	meter, err := NewProviderMeter(reg)
	if err != nil {
		logger.Warn("Provider latency metrics unavailable", zap.Error(err))
	}

	return &MetricsCollector{
		logger:        logger,
		registry:      reg,
		providerMeter: meter,

		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status_code"},
		),
		httpResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method", "path"},
		),

		providerAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_attempts_total",
				Help:      "AI provider calls by capability, provider and outcome",
			},
			[]string{"capability", "provider", "outcome"},
		),
		cooldownsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_cooldowns_total",
				Help:      "Cooldown windows opened after rate limiting",
			},
			[]string{"capability"},
		),
		fallbacksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fallback_replies_total",
				Help:      "Replies served without a successful provider call",
			},
			[]string{"capability", "source"},
		),

		mealsLoggedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "meals_logged_total",
				Help:      "Meals logged by estimate source",
			},
			[]string{"source"},
		),
		usersRegisteredTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "users_registered_total",
				Help:      "Total number of users registered",
			},
		),
	}
}

// Registry exposes the underlying registry
func (m *MetricsCollector) Registry() *prometheus.Registry {
	return m.registry
}

// HTTPMiddleware records request count, latency and response size, labelled
// by the matched route pattern
func (m *MetricsCollector) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		path := routePattern(r)
		code := strconv.Itoa(status)

		m.httpRequestsTotal.WithLabelValues(r.Method, path, code).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, path, code).Observe(time.Since(start).Seconds())
		m.httpResponseSize.WithLabelValues(r.Method, path).Observe(float64(ww.BytesWritten()))
	})
}

// routePattern keeps label cardinality bounded for unmatched paths
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// RecordProviderAttempt implements assistant.Metrics
func (m *MetricsCollector) RecordProviderAttempt(capability, provider, outcome string, duration time.Duration) {
	m.providerAttempts.WithLabelValues(capability, provider, outcome).Inc()
	if m.providerMeter != nil {
		m.providerMeter.Record(context.Background(), capability, provider, outcome, duration)
	}
}

// RecordCooldown implements assistant.Metrics
func (m *MetricsCollector) RecordCooldown(capability string) {
	m.cooldownsTotal.WithLabelValues(capability).Inc()
	m.logger.Debug("Cooldown recorded", zap.String("capability", capability))
}

// RecordFallback implements assistant.Metrics
func (m *MetricsCollector) RecordFallback(capability, source string) {
	m.fallbacksTotal.WithLabelValues(capability, source).Inc()
}

// MealLogged counts a logged meal
func (m *MetricsCollector) MealLogged(source string) {
	if source == "" {
		source = "unknown"
	}
	m.mealsLoggedTotal.WithLabelValues(source).Inc()
}

// UserRegistered counts a signup
func (m *MetricsCollector) UserRegistered() {
	m.usersRegisteredTotal.Inc()
}

// Shutdown stops the OpenTelemetry meter
func (m *MetricsCollector) Shutdown(ctx context.Context) error {
	if m.providerMeter == nil {
		return nil
	}
	return m.providerMeter.Shutdown(ctx)
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
