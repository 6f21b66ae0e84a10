package ports

import (
	"context"

	"ideaforge/domain/core/aggregates"
	"ideaforge/domain/core/entities"
	"ideaforge/domain/core/valueobjects"
	"ideaforge/domain/events"
	"ideaforge/domain/versioning"
)

// ConversationRepository defines the interface for session persistence.
// This is a port in hexagonal architecture - the domain doesn't know about the implementation.
type ConversationRepository interface {
	// Save persists a conversation (create or update). Implementations
	// compare the stored version and return ErrConcurrentModification
	// when another writer got there first.
	Save(ctx context.Context, conv *aggregates.Conversation) error

	// GetByID retrieves a conversation with its full transcript.
	// Unknown sessions return ErrSessionNotFound.
	GetByID(ctx context.Context, id valueobjects.SessionID) (*aggregates.Conversation, error)

	// Delete removes a conversation and its transcript
	Delete(ctx context.Context, id valueobjects.SessionID) error
}

// ScoredChunk pairs a candidate chunk with its raw cosine similarity to
// the query embedding. Hybrid rescoring happens above this port.
type ScoredChunk struct {
	Chunk      *entities.MemoryChunk
	Similarity float64
}

// ChunkIndex defines the interface for the per-session memory index.
// Every operation is hard-scoped to one session; there is no cross-session
// read path.
type ChunkIndex interface {
	// Insert stores a live chunk
	Insert(ctx context.Context, chunk *entities.MemoryChunk) error

	// FindLiveByQuestion returns the live chunk whose question text matches
	// exactly, or ErrChunkNotFound when none exists
	FindLiveByQuestion(ctx context.Context, sessionID valueobjects.SessionID, questionText string) (*entities.MemoryChunk, error)

	// ExistsByHash reports whether a live chunk with the given content hash
	// already exists for the session
	ExistsByHash(ctx context.Context, sessionID valueobjects.SessionID, contentHash string) (bool, error)

	// Search returns up to limit live chunks ranked by cosine similarity
	// to the query embedding, most similar first
	Search(ctx context.Context, sessionID valueobjects.SessionID, query []float32, limit int) ([]ScoredChunk, error)

	// Retire removes a chunk from the retrievable set
	Retire(ctx context.Context, sessionID valueobjects.SessionID, id valueobjects.ChunkID) error

	// CountLive returns the number of retrievable chunks for a session
	CountLive(ctx context.Context, sessionID valueobjects.SessionID) (int, error)

	// DeleteBySession removes all chunks for a session
	DeleteBySession(ctx context.Context, sessionID valueobjects.SessionID) error
}

// SnapshotStore defines the interface for session snapshot persistence
type SnapshotStore interface {
	// Save persists a snapshot
	Save(ctx context.Context, snapshot *versioning.SessionSnapshot) error

	// Latest returns the most recent snapshot for a session, nil when the
	// session has none
	Latest(ctx context.Context, sessionID string) (*versioning.SessionSnapshot, error)

	// ListBySession returns snapshots for a session, newest first
	ListBySession(ctx context.Context, sessionID string, limit int) ([]*versioning.SessionSnapshot, error)

	// Prune deletes all but the newest keep snapshots for a session
	Prune(ctx context.Context, sessionID string, keep int) error
}

// EventStore defines the interface for event persistence
type EventStore interface {
	// SaveEvents persists domain events
	SaveEvents(ctx context.Context, events []events.DomainEvent) error

	// GetEvents retrieves events for an aggregate in insertion order
	GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error)

	// DeleteEvents removes all events for an aggregate
	DeleteEvents(ctx context.Context, aggregateID string) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// UnitOfWork defines a transaction boundary for aggregate operations.
// Chunk writes are deliberately outside the boundary: memory is
// best-effort and must not roll a conversation back.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit(ctx context.Context) error

	// Rollback rolls back the transaction; a no-op after Commit
	Rollback() error

	// Conversations returns the conversation repository for this transaction
	Conversations() ConversationRepository

	// Snapshots returns the snapshot store for this transaction
	Snapshots() SnapshotStore

	// Events returns the event store for this transaction
	Events() EventStore
}
