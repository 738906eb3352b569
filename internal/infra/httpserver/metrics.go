package httpserver

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

type httpMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	requestActive   metric.Int64UpDownCounter
}

func newHTTPMetrics() httpMetrics {
	meter := otel.GetMeterProvider().Meter("coop_server")
	m := httpMetrics{
		requestDuration: noop.Float64Histogram{},
		requestTotal:    noop.Int64Counter{},
		requestActive:   noop.Int64UpDownCounter{},
	}

	if h, err := meter.Float64Histogram(
		fmt.Sprintf("%s.%s", "coop_server", "http.request.duration.seconds"),
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	); err == nil {
		m.requestDuration = h
	} else {
		slog.Warn("creating http duration histogram", slog.Any("error", err))
	}

	if c, err := meter.Int64Counter(
		fmt.Sprintf("%s.%s", "coop_server", "http.requests.total"),
		metric.WithDescription("Total number of HTTP requests"),
	); err == nil {
		m.requestTotal = c
	} else {
		slog.Warn("creating http request counter", slog.Any("error", err))
	}

	if c, err := meter.Int64UpDownCounter(
		fmt.Sprintf("%s.%s", "coop_server", "http.requests.active"),
		metric.WithDescription("Number of HTTP requests currently being processed"),
	); err == nil {
		m.requestActive = c
	} else {
		slog.Warn("creating http active request counter", slog.Any("error", err))
	}

	return m
}

// MetricsMiddleware measures duration, count and concurrency of HTTP requests.
func MetricsMiddleware() func(http.Handler) http.Handler {
	m := newHTTPMetrics()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			endpoint := normalizeEndpoint(r.URL.Path)
			activeAttrs := metric.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.endpoint", endpoint),
			)

			m.requestActive.Add(r.Context(), 1, activeAttrs)
			defer m.requestActive.Add(r.Context(), -1, activeAttrs)

			wrappedWriter := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrappedWriter, r)

			attrs := metric.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.endpoint", endpoint),
				attribute.Int("http.status_code", wrappedWriter.statusCode),
			)
			m.requestDuration.Record(r.Context(), time.Since(start).Seconds(), attrs)
			m.requestTotal.Add(r.Context(), 1, attrs)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	return rw.ResponseWriter.Write(b)
}

// Hijack lets the websocket upgrader take over the connection.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not support hijacking")
}

func normalizeEndpoint(path string) string {
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return "root"
	}
	return path
}
