package memory

import (
	"context"
	"errors"
	"sync"

	"ideaforge/application/ports"
	"ideaforge/domain/core/aggregates"
	"ideaforge/domain/core/valueobjects"
	"ideaforge/domain/events"
	"ideaforge/domain/versioning"
)

// UnitOfWork gives the in-memory driver transactional behavior:
// conversation saves apply immediately but record an undo image, while
// snapshot and event writes are buffered until Commit. Full isolation
// is not attempted; the per-session lock above keeps same-session
// readers out while a turn is in flight.
type UnitOfWork struct {
	conversations *ConversationRepository
	snapshots     *SnapshotStore
	events        *EventStore

	mu      sync.Mutex
	active  bool
	pending []func()
	undo    []func()
}

// NewUnitOfWork creates a unit of work over the in-memory stores
func NewUnitOfWork(conversations *ConversationRepository, snapshots *SnapshotStore, events *EventStore) *UnitOfWork {
	return &UnitOfWork{
		conversations: conversations,
		snapshots:     snapshots,
		events:        events,
	}
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// Begin starts a new transaction
func (u *UnitOfWork) Begin(ctx context.Context) error {
	u.mu.Lock()
	u.active = true
	u.pending = nil
	u.undo = nil
	return nil
}

// Commit applies the buffered writes
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if !u.active {
		return errors.New("no active transaction to commit")
	}
	for _, apply := range u.pending {
		apply()
	}
	u.release()
	return nil
}

// Rollback restores the pre-transaction state; a no-op after Commit
func (u *UnitOfWork) Rollback() error {
	if !u.active {
		return nil
	}
	for idx := len(u.undo) - 1; idx >= 0; idx-- {
		u.undo[idx]()
	}
	u.release()
	return nil
}

// Conversations returns the conversation repository for this transaction
func (u *UnitOfWork) Conversations() ports.ConversationRepository {
	if u.active {
		return &txConversations{u: u}
	}
	return u.conversations
}

// Snapshots returns the snapshot store for this transaction
func (u *UnitOfWork) Snapshots() ports.SnapshotStore {
	if u.active {
		return &txSnapshots{u: u}
	}
	return u.snapshots
}

// Events returns the event store for this transaction
func (u *UnitOfWork) Events() ports.EventStore {
	if u.active {
		return &txEvents{u: u}
	}
	return u.events
}

func (u *UnitOfWork) release() {
	u.active = false
	u.pending = nil
	u.undo = nil
	u.mu.Unlock()
}

// txConversations applies saves eagerly so version conflicts surface at
// Save time, recording an undo image for Rollback.
type txConversations struct {
	u *UnitOfWork
}

func (t *txConversations) Save(ctx context.Context, conv *aggregates.Conversation) error {
	key := conv.ID().String()
	prev, existed := t.u.conversations.snapshotEntry(key)

	if err := t.u.conversations.Save(ctx, conv); err != nil {
		return err
	}

	t.u.undo = append(t.u.undo, func() {
		if existed {
			t.u.conversations.restoreEntry(key, prev)
		} else {
			t.u.conversations.restoreEntry(key, nil)
		}
	})
	return nil
}

func (t *txConversations) GetByID(ctx context.Context, id valueobjects.SessionID) (*aggregates.Conversation, error) {
	return t.u.conversations.GetByID(ctx, id)
}

func (t *txConversations) Delete(ctx context.Context, id valueobjects.SessionID) error {
	prev, existed := t.u.conversations.snapshotEntry(id.String())
	if err := t.u.conversations.Delete(ctx, id); err != nil {
		return err
	}
	if existed {
		key := id.String()
		t.u.undo = append(t.u.undo, func() {
			t.u.conversations.restoreEntry(key, prev)
		})
	}
	return nil
}

// txSnapshots buffers snapshot writes until Commit
type txSnapshots struct {
	u *UnitOfWork
}

func (t *txSnapshots) Save(ctx context.Context, snapshot *versioning.SessionSnapshot) error {
	clone := *snapshot
	clone.State = append([]byte(nil), snapshot.State...)
	t.u.pending = append(t.u.pending, func() {
		t.u.snapshots.mu.Lock()
		defer t.u.snapshots.mu.Unlock()
		t.u.snapshots.saveLocked(&clone)
	})
	return nil
}

func (t *txSnapshots) Latest(ctx context.Context, sessionID string) (*versioning.SessionSnapshot, error) {
	return t.u.snapshots.Latest(ctx, sessionID)
}

func (t *txSnapshots) ListBySession(ctx context.Context, sessionID string, limit int) ([]*versioning.SessionSnapshot, error) {
	return t.u.snapshots.ListBySession(ctx, sessionID, limit)
}

func (t *txSnapshots) Prune(ctx context.Context, sessionID string, keep int) error {
	return t.u.snapshots.Prune(ctx, sessionID, keep)
}

// txEvents buffers event appends until Commit
type txEvents struct {
	u *UnitOfWork
}

func (t *txEvents) SaveEvents(ctx context.Context, domainEvents []events.DomainEvent) error {
	buffered := make([]events.DomainEvent, len(domainEvents))
	copy(buffered, domainEvents)
	t.u.pending = append(t.u.pending, func() {
		t.u.events.mu.Lock()
		defer t.u.events.mu.Unlock()
		t.u.events.saveLocked(buffered)
	})
	return nil
}

func (t *txEvents) GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error) {
	return t.u.events.GetEvents(ctx, aggregateID)
}

func (t *txEvents) DeleteEvents(ctx context.Context, aggregateID string) error {
	return t.u.events.DeleteEvents(ctx, aggregateID)
}
