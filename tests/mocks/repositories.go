// Package mocks provides testify mock implementations of the
// application ports for handler and service tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ideaforge/application/ports"
	"ideaforge/domain/core/aggregates"
	"ideaforge/domain/core/entities"
	"ideaforge/domain/core/valueobjects"
	"ideaforge/domain/versioning"
)

// MockConversationRepository mocks ports.ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

func (m *MockConversationRepository) Save(ctx context.Context, conv *aggregates.Conversation) error {
	args := m.Called(ctx, conv)
	return args.Error(0)
}

func (m *MockConversationRepository) GetByID(ctx context.Context, id valueobjects.SessionID) (*aggregates.Conversation, error) {
	args := m.Called(ctx, id)
	if conv := args.Get(0); conv != nil {
		return conv.(*aggregates.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockConversationRepository) Delete(ctx context.Context, id valueobjects.SessionID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockChunkIndex mocks ports.ChunkIndex
type MockChunkIndex struct {
	mock.Mock
}

func (m *MockChunkIndex) Insert(ctx context.Context, chunk *entities.MemoryChunk) error {
	args := m.Called(ctx, chunk)
	return args.Error(0)
}

func (m *MockChunkIndex) FindLiveByQuestion(ctx context.Context, sessionID valueobjects.SessionID, questionText string) (*entities.MemoryChunk, error) {
	args := m.Called(ctx, sessionID, questionText)
	if chunk := args.Get(0); chunk != nil {
		return chunk.(*entities.MemoryChunk), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChunkIndex) ExistsByHash(ctx context.Context, sessionID valueobjects.SessionID, contentHash string) (bool, error) {
	args := m.Called(ctx, sessionID, contentHash)
	return args.Bool(0), args.Error(1)
}

func (m *MockChunkIndex) Search(ctx context.Context, sessionID valueobjects.SessionID, query []float32, limit int) ([]ports.ScoredChunk, error) {
	args := m.Called(ctx, sessionID, query, limit)
	if chunks := args.Get(0); chunks != nil {
		return chunks.([]ports.ScoredChunk), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChunkIndex) Retire(ctx context.Context, sessionID valueobjects.SessionID, id valueobjects.ChunkID) error {
	args := m.Called(ctx, sessionID, id)
	return args.Error(0)
}

func (m *MockChunkIndex) CountLive(ctx context.Context, sessionID valueobjects.SessionID) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *MockChunkIndex) DeleteBySession(ctx context.Context, sessionID valueobjects.SessionID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockSnapshotStore mocks ports.SnapshotStore
type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Save(ctx context.Context, snapshot *versioning.SessionSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *MockSnapshotStore) Latest(ctx context.Context, sessionID string) (*versioning.SessionSnapshot, error) {
	args := m.Called(ctx, sessionID)
	if snap := args.Get(0); snap != nil {
		return snap.(*versioning.SessionSnapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSnapshotStore) ListBySession(ctx context.Context, sessionID string, limit int) ([]*versioning.SessionSnapshot, error) {
	args := m.Called(ctx, sessionID, limit)
	if snaps := args.Get(0); snaps != nil {
		return snaps.([]*versioning.SessionSnapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSnapshotStore) Prune(ctx context.Context, sessionID string, keep int) error {
	args := m.Called(ctx, sessionID, keep)
	return args.Error(0)
}
