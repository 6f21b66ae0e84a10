package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ideaforge/application/ports"
	"ideaforge/domain/events"
)

// MockEventStore mocks ports.EventStore
type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) SaveEvents(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

func (m *MockEventStore) GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error) {
	args := m.Called(ctx, aggregateID)
	if evts := args.Get(0); evts != nil {
		return evts.([]events.DomainEvent), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEventStore) DeleteEvents(ctx context.Context, aggregateID string) error {
	args := m.Called(ctx, aggregateID)
	return args.Error(0)
}

// MockEventPublisher mocks ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	args := m.Called(ctx, evts)
	return args.Error(0)
}

// MockUnitOfWork mocks ports.UnitOfWork. The repository accessors
// return whatever mocks the test wires into the struct fields.
type MockUnitOfWork struct {
	mock.Mock

	ConversationsRepo ports.ConversationRepository
	SnapshotsRepo     ports.SnapshotStore
	EventsRepo        ports.EventStore
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Conversations() ports.ConversationRepository {
	return m.ConversationsRepo
}

func (m *MockUnitOfWork) Snapshots() ports.SnapshotStore {
	return m.SnapshotsRepo
}

func (m *MockUnitOfWork) Events() ports.EventStore {
	return m.EventsRepo
}
