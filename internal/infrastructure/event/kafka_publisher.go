package event

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopline/backend/internal/domain/shared"
	"github.com/shopline/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Kafka message headers
const (
	HeaderEventType     = "event_type"
	HeaderEventID       = "event_id"
	HeaderAggregateType = "aggregate_type"
)

// ErrPublisherClosed is returned by Publish after Close
var ErrPublisherClosed = errors.New("event publisher is closed")

// MessageWriter is the subset of *kafka.Writer the publisher needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes domain events to a Kafka topic. Messages are keyed
// by aggregate id so all events of one order land on the same partition.
type KafkaPublisher struct {
	writer       MessageWriter
	serializer   *EventSerializer
	topic        string
	writeTimeout time.Duration
	logger       *zap.Logger
	closed       atomic.Bool
}

// NewKafkaPublisher builds a synchronous kafka.Writer from the config section
func NewKafkaPublisher(cfg config.KafkaConfig, logger *zap.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: topic is required")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           10 * time.Millisecond,
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Sugar().Errorf("kafka writer: "+msg, args...)
		}),
	}
	return NewKafkaPublisherWithWriter(writer, cfg.Topic, cfg.WriteTimeout, logger), nil
}

// NewKafkaPublisherWithWriter wraps an existing writer
func NewKafkaPublisherWithWriter(writer MessageWriter, topic string, writeTimeout time.Duration, logger *zap.Logger) *KafkaPublisher {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &KafkaPublisher{
		writer:       writer,
		serializer:   NewOrderEventSerializer(),
		topic:        topic,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// Publish serializes and writes the events in one batch
func (p *KafkaPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		value, err := p.serializer.Serialize(e)
		if err != nil {
			return err
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.AggregateID().String()),
			Value: value,
			Time:  e.OccurredAt(),
			Headers: []kafka.Header{
				{Key: HeaderEventType, Value: []byte(e.EventType())},
				{Key: HeaderEventID, Value: []byte(e.EventID().String())},
				{Key: HeaderAggregateType, Value: []byte(e.AggregateType())},
			},
		})
	}

	// The request may finish before the broker acknowledges.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.writeTimeout)
	defer cancel()
	if err := p.writer.WriteMessages(writeCtx, msgs...); err != nil {
		return fmt.Errorf("kafka: failed to write %d events to %s: %w", len(msgs), p.topic, err)
	}

	p.logger.Debug("Published domain events", zap.String("topic", p.topic), zap.Int("count", len(msgs)))
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

var _ shared.EventPublisher = (*KafkaPublisher)(nil)
