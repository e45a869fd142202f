// Package event publishes committed domain events to the log or to Kafka.
package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/shopline/backend/internal/domain/order"
	"github.com/shopline/backend/internal/domain/shared"
)

// EventSerializer handles JSON serialization/deserialization of domain events
type EventSerializer struct {
	mu       sync.RWMutex
	registry map[string]reflect.Type // eventType -> Go type
}

// NewEventSerializer creates a new event serializer
func NewEventSerializer() *EventSerializer {
	return &EventSerializer{
		registry: make(map[string]reflect.Type),
	}
}

// NewOrderEventSerializer returns a serializer that knows every order event
func NewOrderEventSerializer() *EventSerializer {
	s := NewEventSerializer()
	s.Register(order.EventTypeOrderPlaced, &order.OrderPlacedEvent{})
	s.Register(order.EventTypePaymentCaptured, &order.PaymentCapturedEvent{})
	s.Register(order.EventTypeOrderCancelled, &order.OrderCancelledEvent{})
	s.Register(order.EventTypeOrderStatusChanged, &order.OrderStatusChangedEvent{})
	return s
}

// Register registers an event type for deserialization.
// The eventType should match what EventType() returns on the event.
func (s *EventSerializer) Register(eventType string, eventInstance shared.DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := reflect.TypeOf(eventInstance)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	s.registry[eventType] = t
}

// Serialize serializes a domain event to JSON bytes
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", event.EventType(), err)
	}
	return data, nil
}

// Deserialize turns a payload back into the registered event type
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.registry[eventType]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	eventPtr := reflect.New(t).Interface()
	if err := json.Unmarshal(data, eventPtr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	event, ok := eventPtr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("%s does not implement DomainEvent", t)
	}
	return event, nil
}

// RegisteredTypes returns all registered event types, sorted
func (s *EventSerializer) RegisteredTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	types := make([]string, 0, len(s.registry))
	for t := range s.registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
