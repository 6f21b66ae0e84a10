package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ideaforge/domain/versioning"
	pkgerrors "ideaforge/pkg/errors"
)

// SnapshotStore persists session snapshots. Snapshot IDs are ULIDs, so
// ordering by id matches creation order when timestamps collide.
type SnapshotStore struct {
	db Executor
}

// NewSnapshotStore creates a snapshot store on the given executor
func NewSnapshotStore(db Executor) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Save persists a snapshot
func (s *SnapshotStore) Save(ctx context.Context, snapshot *versioning.SessionSnapshot) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots
		 (id, session_id, number, category, message_count, answer_count, checksum, state, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshot.ID,
		snapshot.SessionID,
		snapshot.Number,
		snapshot.Category,
		snapshot.MessageCount,
		snapshot.AnswerCount,
		snapshot.Checksum,
		string(snapshot.State),
		snapshot.CreatedAt,
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("insert snapshot", err)
	}
	return nil
}

// Latest returns the most recent snapshot for a session, nil when the
// session has none.
func (s *SnapshotStore) Latest(ctx context.Context, sessionID string) (*versioning.SessionSnapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, number, category, message_count, answer_count, checksum, state, created_at
		 FROM snapshots WHERE session_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`, sessionID)

	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("load snapshot", err)
	}
	return snap, nil
}

// ListBySession returns snapshots for a session, newest first
func (s *SnapshotStore) ListBySession(ctx context.Context, sessionID string, limit int) ([]*versioning.SessionSnapshot, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, number, category, message_count, answer_count, checksum, state, created_at
		 FROM snapshots WHERE session_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list snapshots", err)
	}
	defer rows.Close()

	var out []*versioning.SessionSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("scan snapshot", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError("list snapshots", err)
	}
	return out, nil
}

// Prune deletes all but the newest keep snapshots for a session
func (s *SnapshotStore) Prune(ctx context.Context, sessionID string, keep int) error {
	if keep <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM snapshots
		 WHERE session_id = ? AND id NOT IN (
			SELECT id FROM snapshots WHERE session_id = ?
			ORDER BY created_at DESC, id DESC LIMIT ?
		 )`, sessionID, sessionID, keep)
	if err != nil {
		return pkgerrors.NewDatabaseError("prune snapshots", err)
	}
	return nil
}

func scanSnapshot(row rowScanner) (*versioning.SessionSnapshot, error) {
	var (
		snap      versioning.SessionSnapshot
		state     string
		createdAt time.Time
	)
	if err := row.Scan(&snap.ID, &snap.SessionID, &snap.Number, &snap.Category,
		&snap.MessageCount, &snap.AnswerCount, &snap.Checksum, &state, &createdAt); err != nil {
		return nil, err
	}
	snap.State = []byte(state)
	snap.CreatedAt = createdAt
	return &snap, nil
}
