// Package monitoring records HTTP and business metrics via OpenTelemetry,
// exported through the Prometheus registry.
package monitoring

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	attrBusinessAction  = "enrollment.business.action"
	attrBusinessOutcome = "enrollment.business.outcome"
)

var (
	initOnce sync.Once
	initErr  error

	httpRequestsCounter   metric.Int64Counter
	httpRequestDuration   metric.Float64Histogram
	businessEventsCounter metric.Int64Counter
	metricsHandler        http.Handler
)

// Initialize sets up the OpenTelemetry meter provider with a Prometheus
// exporter. Safe to call more than once; only the first call takes effect.
func Initialize(serviceName string) error {
	initOnce.Do(func() {
		registry := prometheus.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			initErr = err
			return
		}

		res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		))
		if err != nil {
			initErr = err
			return
		}

		provider := sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(exporter),
			sdkmetric.WithResource(res),
		)
		otel.SetMeterProvider(provider)

		meter := provider.Meter(serviceName)

		httpRequestsCounter, err = meter.Int64Counter("http.server.requests",
			metric.WithDescription("Total HTTP requests processed"))
		if err != nil {
			initErr = err
			return
		}

		httpRequestDuration, err = meter.Float64Histogram("http.server.request.duration",
			metric.WithDescription("HTTP request duration in seconds"),
			metric.WithUnit("s"))
		if err != nil {
			initErr = err
			return
		}

		businessEventsCounter, err = meter.Int64Counter("enrollment.business.events",
			metric.WithDescription("Business events by action and outcome"))
		if err != nil {
			initErr = err
			return
		}

		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	})
	return initErr
}

// Handler returns the Prometheus metrics endpoint handler
func Handler() http.Handler {
	if metricsHandler == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "metrics not initialized", http.StatusServiceUnavailable)
		})
	}
	return metricsHandler
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware wraps an HTTP handler to record request count and duration
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httpRequestsCounter == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		attrs := metric.WithAttributes(
			semconv.HTTPRequestMethodKey.String(r.Method),
			semconv.HTTPRouteKey.String(r.URL.Path),
			semconv.HTTPResponseStatusCodeKey.Int(rw.statusCode),
		)
		httpRequestsCounter.Add(r.Context(), 1, attrs)
		httpRequestDuration.Record(r.Context(), time.Since(start).Seconds(), attrs)
	})
}

// RecordBusinessEvent records a domain event such as a registration or a
// confirmed payment. Outcome is typically "success" or "failure".
func RecordBusinessEvent(ctx context.Context, action, outcome string) {
	if businessEventsCounter == nil {
		slog.Debug("metrics not initialized, dropping business event", "action", action)
		return
	}
	businessEventsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrBusinessAction, action),
		attribute.String(attrBusinessOutcome, outcome),
	))
}
