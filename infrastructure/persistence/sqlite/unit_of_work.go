package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"ideaforge/application/ports"
)

// UnitOfWork wraps a SQLite transaction as the aggregate write
// boundary. SQLite permits one writer at a time, so Begin serializes
// write transactions process-wide; the per-session lock above already
// serializes within a session, and cross-session writes are short.
type UnitOfWork struct {
	db     *sql.DB
	logger *zap.Logger

	mu            sync.Mutex
	tx            *sql.Tx
	conversations *ConversationRepository
	snapshots     *SnapshotStore
	events        *EventStore
}

// NewUnitOfWork creates a unit of work on the given database
func NewUnitOfWork(db *sql.DB, logger *zap.Logger) *UnitOfWork {
	return &UnitOfWork{db: db, logger: logger}
}

var _ ports.UnitOfWork = (*UnitOfWork)(nil)

// Begin starts a new transaction
func (u *UnitOfWork) Begin(ctx context.Context) error {
	u.mu.Lock()

	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		u.mu.Unlock()
		return fmt.Errorf("failed to begin sqlite transaction: %w", err)
	}

	u.tx = tx
	u.conversations = NewConversationRepository(tx)
	u.snapshots = NewSnapshotStore(tx)
	u.events = NewEventStore(tx)
	return nil
}

// Commit commits the transaction
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return errors.New("no active transaction to commit")
	}
	err := u.tx.Commit()
	u.release()
	if err != nil {
		return fmt.Errorf("failed to commit sqlite transaction: %w", err)
	}
	return nil
}

// Rollback rolls back the transaction; a no-op after Commit
func (u *UnitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback()
	u.release()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		u.logger.Warn("transaction rollback failed", zap.Error(err))
		return err
	}
	return nil
}

// Conversations returns the conversation repository for this transaction
func (u *UnitOfWork) Conversations() ports.ConversationRepository {
	if u.conversations != nil {
		return u.conversations
	}
	return NewConversationRepository(u.db)
}

// Snapshots returns the snapshot store for this transaction
func (u *UnitOfWork) Snapshots() ports.SnapshotStore {
	if u.snapshots != nil {
		return u.snapshots
	}
	return NewSnapshotStore(u.db)
}

// Events returns the event store for this transaction
func (u *UnitOfWork) Events() ports.EventStore {
	if u.events != nil {
		return u.events
	}
	return NewEventStore(u.db)
}

func (u *UnitOfWork) release() {
	u.tx = nil
	u.conversations = nil
	u.snapshots = nil
	u.events = nil
	u.mu.Unlock()
}
