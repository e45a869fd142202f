package event

import (
	"context"

	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopline/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LogPublisher writes events to the structured log. It is the publisher
// used when no broker is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a LogPublisher
func NewLogPublisher(log *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: log}
}

// Publish logs each event
func (p *LogPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	log := logger.FromContext(ctx, p.logger)
	for _, e := range events {
		log.Info("Domain event",
			zap.String("event_type", e.EventType()),
			zap.String("event_id", e.EventID().String()),
			zap.String("aggregate_type", e.AggregateType()),
			zap.String("aggregate_id", e.AggregateID().String()),
			zap.Time("occurred_at", e.OccurredAt()),
		)
	}
	return nil
}

var _ shared.EventPublisher = (*LogPublisher)(nil)
