package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// httpDurationBuckets covers fast cached reads up to slow gateway calls
var httpDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

type httpMetrics struct {
	promRequests *prometheus.CounterVec
	promDuration *prometheus.HistogramVec
	promInFlight prometheus.Gauge

	otelRequests metric.Int64Counter
	otelDuration metric.Float64Histogram
	otelInFlight metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter, reg prometheus.Registerer) (*httpMetrics, error) {
	m := &httpMetrics{
		promRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "http",
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status_code"}),
		promDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "http",
			Subsystem: "server",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   httpDurationBuckets,
		}, []string{"method", "route"}),
		promInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "http",
			Subsystem: "server",
			Name:      "active_requests",
			Help:      "HTTP requests currently being served",
		}),
	}
	for _, c := range []prometheus.Collector{m.promRequests, m.promDuration, m.promInFlight} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register http metrics: %w", err)
		}
	}

	var err error
	if m.otelRequests, err = meter.Int64Counter("http.server.request.count",
		metric.WithDescription("HTTP requests"), metric.WithUnit("{request}")); err != nil {
		return nil, err
	}
	if m.otelDuration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request latency"), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(httpDurationBuckets...)); err != nil {
		return nil, err
	}
	if m.otelInFlight, err = meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("HTTP requests currently being served"), metric.WithUnit("{request}")); err != nil {
		return nil, err
	}
	return m, nil
}

// HTTPMetrics records request count, latency and concurrency per route
// pattern, both on reg for the /metrics scrape and on meter for OTLP.
// Unmatched routes are grouped under "unmatched" to bound cardinality.
func HTTPMetrics(meter metric.Meter, reg prometheus.Registerer) (gin.HandlerFunc, error) {
	m, err := newHTTPMetrics(meter, reg)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.promInFlight.Inc()
		m.otelInFlight.Add(ctx, 1)

		c.Next()

		m.promInFlight.Dec()
		m.otelInFlight.Add(ctx, -1)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())
		elapsed := time.Since(start).Seconds()

		m.promRequests.WithLabelValues(method, route, status).Inc()
		m.promDuration.WithLabelValues(method, route).Observe(elapsed)

		routeAttrs := metric.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("http.route", route),
		)
		m.otelRequests.Add(ctx, 1, routeAttrs, metric.WithAttributes(attribute.String("http.response.status_code", status)))
		m.otelDuration.Record(ctx, elapsed, routeAttrs)
	}, nil
}
