package order

import (
	"context"

	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopline/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// EventFailureRecorder counts events that could not be published
type EventFailureRecorder interface {
	RecordEventPublishFailure(ctx context.Context, eventType string)
}

// Metrics records business counters for the order flows
type Metrics interface {
	EventFailureRecorder
	RecordCheckout(ctx context.Context, paymentMethod, status string, skippedLines int)
	RecordCancellation(ctx context.Context, actorRole, refundStatus string)
}

type noopMetrics struct{}

func (noopMetrics) RecordCheckout(context.Context, string, string, int) {}
func (noopMetrics) RecordCancellation(context.Context, string, string)  {}
func (noopMetrics) RecordEventPublishFailure(context.Context, string)   {}

// NoopMetrics discards every measurement
func NoopMetrics() Metrics {
	return noopMetrics{}
}

// PublishEvents hands the aggregate's pending events to publisher after commit.
// A failed publish is logged and counted; the committed operation still succeeds.
func PublishEvents(
	ctx context.Context,
	publisher shared.EventPublisher,
	metrics EventFailureRecorder,
	log *zap.Logger,
	agg shared.AggregateRoot,
) {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	if publisher == nil || len(events) == 0 {
		return
	}
	for _, event := range events {
		if err := publisher.Publish(ctx, event); err != nil {
			logger.FromContext(ctx, log).Error("Failed to publish domain event",
				zap.String("event_type", event.EventType()),
				zap.String("aggregate_id", event.AggregateID().String()),
				zap.Error(err))
			if metrics != nil {
				metrics.RecordEventPublishFailure(ctx, event.EventType())
			}
		}
	}
}
