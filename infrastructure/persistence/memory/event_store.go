package memory

import (
	"context"
	"sync"

	"ideaforge/domain/events"
)

// EventStore keeps the per-aggregate event log in insertion order
type EventStore struct {
	mu  sync.RWMutex
	log map[string][]events.DomainEvent
}

// NewEventStore creates an empty in-memory event store
func NewEventStore() *EventStore {
	return &EventStore{
		log: make(map[string][]events.DomainEvent),
	}
}

// SaveEvents persists domain events
func (s *EventStore) SaveEvents(ctx context.Context, domainEvents []events.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(domainEvents)
	return nil
}

func (s *EventStore) saveLocked(domainEvents []events.DomainEvent) {
	for _, event := range domainEvents {
		key := event.GetAggregateID()
		s.log[key] = append(s.log[key], event)
	}
}

// GetEvents retrieves events for an aggregate in insertion order
func (s *EventStore) GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.log[aggregateID]
	out := make([]events.DomainEvent, len(stored))
	copy(out, stored)
	return out, nil
}

// DeleteEvents removes all events for an aggregate
func (s *EventStore) DeleteEvents(ctx context.Context, aggregateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.log, aggregateID)
	return nil
}
