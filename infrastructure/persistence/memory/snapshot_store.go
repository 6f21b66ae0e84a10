package memory

import (
	"context"
	"sync"

	"ideaforge/domain/versioning"
)

// SnapshotStore keeps session snapshots in per-session slices ordered
// oldest first.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string][]*versioning.SessionSnapshot
}

// NewSnapshotStore creates an empty in-memory snapshot store
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[string][]*versioning.SessionSnapshot),
	}
}

// Save persists a snapshot
func (s *SnapshotStore) Save(ctx context.Context, snapshot *versioning.SessionSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(snapshot)
	return nil
}

func (s *SnapshotStore) saveLocked(snapshot *versioning.SessionSnapshot) {
	clone := *snapshot
	clone.State = append([]byte(nil), snapshot.State...)
	s.snapshots[snapshot.SessionID] = append(s.snapshots[snapshot.SessionID], &clone)
}

// Latest returns the most recent snapshot, nil when the session has none
func (s *SnapshotStore) Latest(ctx context.Context, sessionID string) (*versioning.SessionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.snapshots[sessionID]
	if len(list) == 0 {
		return nil, nil
	}
	clone := *list[len(list)-1]
	return &clone, nil
}

// ListBySession returns snapshots newest first
func (s *SnapshotStore) ListBySession(ctx context.Context, sessionID string, limit int) ([]*versioning.SessionSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.snapshots[sessionID]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}

	out := make([]*versioning.SessionSnapshot, 0, limit)
	for idx := len(list) - 1; idx >= 0 && len(out) < limit; idx-- {
		clone := *list[idx]
		out = append(out, &clone)
	}
	return out, nil
}

// Prune deletes all but the newest keep snapshots
func (s *SnapshotStore) Prune(ctx context.Context, sessionID string, keep int) error {
	if keep <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.snapshots[sessionID]
	if len(list) <= keep {
		return nil
	}
	s.snapshots[sessionID] = append([]*versioning.SessionSnapshot(nil), list[len(list)-keep:]...)
	return nil
}
