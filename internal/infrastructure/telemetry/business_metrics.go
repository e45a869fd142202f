package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const metricsNamespace = "shop"

// ErrMeterNil is returned when ShopMetrics is built without a meter
var ErrMeterNil = errors.New("telemetry: meter is nil")

// counter records the same measurement to a Prometheus vector and an OTLP
// instrument so both the scrape endpoint and the collector see it.
type counter struct {
	prom   *prometheus.CounterVec
	otel   metric.Int64Counter
	labels []string
}

func newCounter(meter metric.Meter, reg prometheus.Registerer, name, help string, labels ...string) (*counter, error) {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      name,
		Help:      help,
	}, labels)
	if err := reg.Register(vec); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", name, err)
	}
	inst, err := meter.Int64Counter(metricsNamespace+"."+name, metric.WithDescription(help))
	if err != nil {
		return nil, fmt.Errorf("failed to create counter %s: %w", name, err)
	}
	return &counter{prom: vec, otel: inst, labels: labels}, nil
}

func (c *counter) add(ctx context.Context, n int64, values ...string) {
	c.prom.WithLabelValues(values...).Add(float64(n))
	attrs := make([]attribute.KeyValue, len(values))
	for i, v := range values {
		attrs[i] = attribute.String(c.labels[i], v)
	}
	c.otel.Add(ctx, n, metric.WithAttributes(attrs...))
}

// ShopMetrics counts checkouts, cancellations, payment gateway calls and
// failed event publications. It satisfies the order and payment Metrics
// interfaces.
type ShopMetrics struct {
	checkouts       *counter
	skippedLines    *counter
	cancellations   *counter
	intents         *counter
	verifications   *counter
	publishFailures *counter
}

// NewShopMetrics registers every counter on reg and meter.
func NewShopMetrics(meter metric.Meter, reg prometheus.Registerer) (*ShopMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &ShopMetrics{}
	var err error
	if m.checkouts, err = newCounter(meter, reg, "checkouts_total",
		"Orders placed through checkout", "payment_method", "status"); err != nil {
		return nil, err
	}
	if m.skippedLines, err = newCounter(meter, reg, "checkout_skipped_lines_total",
		"Cart lines left out of an order for lack of stock", "payment_method"); err != nil {
		return nil, err
	}
	if m.cancellations, err = newCounter(meter, reg, "cancellations_total",
		"Orders cancelled", "actor_role", "refund_status"); err != nil {
		return nil, err
	}
	if m.intents, err = newCounter(meter, reg, "payment_intents_total",
		"Payment gateway intents requested", "gateway", "outcome"); err != nil {
		return nil, err
	}
	if m.verifications, err = newCounter(meter, reg, "payment_verifications_total",
		"Payment confirmations checked against the gateway", "gateway", "outcome"); err != nil {
		return nil, err
	}
	if m.publishFailures, err = newCounter(meter, reg, "event_publish_failures_total",
		"Domain events that could not be published", "event_type"); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordCheckout counts a placed order and the lines skipped while placing it.
func (m *ShopMetrics) RecordCheckout(ctx context.Context, paymentMethod, status string, skippedLines int) {
	m.checkouts.add(ctx, 1, paymentMethod, status)
	if skippedLines > 0 {
		m.skippedLines.add(ctx, int64(skippedLines), paymentMethod)
	}
}

func (m *ShopMetrics) RecordCancellation(ctx context.Context, actorRole, refundStatus string) {
	m.cancellations.add(ctx, 1, actorRole, refundStatus)
}

func (m *ShopMetrics) RecordPaymentIntent(ctx context.Context, gateway, outcome string) {
	m.intents.add(ctx, 1, gateway, outcome)
}

func (m *ShopMetrics) RecordPaymentVerification(ctx context.Context, gateway, outcome string) {
	m.verifications.add(ctx, 1, gateway, outcome)
}

func (m *ShopMetrics) RecordEventPublishFailure(ctx context.Context, eventType string) {
	m.publishFailures.add(ctx, 1, eventType)
}

// NewPrometheusRegistry returns a registry preloaded with Go runtime and
// process collectors.
func NewPrometheusRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// PrometheusHandler serves reg in the text exposition format.
func PrometheusHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
