// Package memory implements the persistence ports on process-local
// maps. It backs the ephemeral storage driver and the integration
// tests; semantics match the sqlite implementations, including
// optimistic version checks.
package memory

import (
	"context"
	"sync"
	"time"

	"ideaforge/domain/core/aggregates"
	"ideaforge/domain/core/entities"
	"ideaforge/domain/core/valueobjects"
	pkgerrors "ideaforge/pkg/errors"
)

// ConversationRepository stores conversations keyed by session ID.
// Aggregates are deep-copied on both save and load so callers never
// alias the stored state.
type ConversationRepository struct {
	mu       sync.RWMutex
	sessions map[string]*aggregates.Conversation
}

// NewConversationRepository creates an empty in-memory repository
func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		sessions: make(map[string]*aggregates.Conversation),
	}
}

// Save persists a conversation with the same version semantics as the
// durable driver.
func (r *ConversationRepository) Save(ctx context.Context, conv *aggregates.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked(conv)
}

func (r *ConversationRepository) saveLocked(conv *aggregates.Conversation) error {
	key := conv.ID().String()
	existing, ok := r.sessions[key]

	if conv.BaseVersion() == 0 {
		if ok {
			return pkgerrors.ErrConcurrentModification
		}
	} else {
		if !ok {
			return pkgerrors.ErrSessionNotFound
		}
		if existing.Version() != conv.BaseVersion() {
			return pkgerrors.ErrConcurrentModification
		}
	}

	clone, err := cloneConversation(conv)
	if err != nil {
		return pkgerrors.NewDatabaseError("store session", err)
	}
	r.sessions[key] = clone
	return nil
}

// GetByID retrieves a deep copy of the conversation
func (r *ConversationRepository) GetByID(ctx context.Context, id valueobjects.SessionID) (*aggregates.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.sessions[id.String()]
	if !ok {
		return nil, pkgerrors.ErrSessionNotFound
	}
	clone, err := cloneConversation(stored)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("load session", err)
	}
	return clone, nil
}

// Delete removes a conversation
func (r *ConversationRepository) Delete(ctx context.Context, id valueobjects.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id.String())
	return nil
}

// snapshotEntry returns the stored aggregate for transactional undo
func (r *ConversationRepository) snapshotEntry(id string) (*aggregates.Conversation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.sessions[id]
	return stored, ok
}

// restoreEntry puts a previous aggregate state back, or removes the
// entry when prev is nil.
func (r *ConversationRepository) restoreEntry(id string, prev *aggregates.Conversation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev == nil {
		delete(r.sessions, id)
		return
	}
	r.sessions[id] = prev
}

// cloneConversation rebuilds an aggregate from its observable state.
// The copy reports the stored version as its base version, exactly like
// a row loaded from the durable driver.
func cloneConversation(conv *aggregates.Conversation) (*aggregates.Conversation, error) {
	msgs := conv.Messages()
	copied := make([]*entities.Message, 0, len(msgs))
	for _, m := range msgs {
		var editedAt *time.Time
		if t := m.EditedAt(); t != nil {
			v := *t
			editedAt = &v
		}
		clone, err := entities.ReconstructMessage(
			m.ID(), m.SessionID(), m.Role(), m.Content(), m.Category(),
			m.IsFollowup(), m.IsFallback(), m.PreviousSkipped(), m.IsEdited(),
			editedAt, m.CreatedAt(),
		)
		if err != nil {
			return nil, err
		}
		copied = append(copied, clone)
	}

	skipped := make([]valueobjects.MessageID, len(conv.SkippedQuestionIDs()))
	copy(skipped, conv.SkippedQuestionIDs())

	var completedAt *time.Time
	if t := conv.CompletedAt(); t != nil {
		v := *t
		completedAt = &v
	}

	return aggregates.ReconstructConversation(
		conv.ID(), conv.Category(), copied, skipped,
		conv.CreatedAt(), conv.UpdatedAt(), completedAt, conv.Version(),
	)
}
