package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ideaforge/domain/core/aggregates"
	"ideaforge/domain/core/entities"
	"ideaforge/domain/core/valueobjects"
	pkgerrors "ideaforge/pkg/errors"
)

// ConversationRepository persists sessions and their transcripts.
// Optimistic concurrency rides on the sessions.version column: an update
// only matches when the stored version equals the version the aggregate
// was loaded at.
type ConversationRepository struct {
	db Executor
}

// NewConversationRepository creates a repository on the given executor
func NewConversationRepository(db Executor) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Save persists a conversation. A base version of zero means the
// aggregate was never stored and inserts; anything else updates with a
// version check and returns ErrConcurrentModification on a lost race.
func (r *ConversationRepository) Save(ctx context.Context, conv *aggregates.Conversation) error {
	skipped, err := marshalSkippedIDs(conv.SkippedQuestionIDs())
	if err != nil {
		return pkgerrors.NewDatabaseError("save session", err)
	}

	if conv.BaseVersion() == 0 {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO sessions (id, category, skipped_question_ids, version, created_at, updated_at, completed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			conv.ID().String(),
			conv.Category().String(),
			skipped,
			conv.Version(),
			conv.CreatedAt(),
			conv.UpdatedAt(),
			nullableTime(conv.CompletedAt()),
		)
		if err != nil {
			return pkgerrors.NewDatabaseError("insert session", err)
		}
	} else {
		res, err := r.db.ExecContext(ctx,
			`UPDATE sessions
			 SET category = ?, skipped_question_ids = ?, version = ?, updated_at = ?, completed_at = ?
			 WHERE id = ? AND version = ?`,
			conv.Category().String(),
			skipped,
			conv.Version(),
			conv.UpdatedAt(),
			nullableTime(conv.CompletedAt()),
			conv.ID().String(),
			conv.BaseVersion(),
		)
		if err != nil {
			return pkgerrors.NewDatabaseError("update session", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return pkgerrors.NewDatabaseError("update session", err)
		}
		if affected == 0 {
			var exists bool
			if err := r.db.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM sessions WHERE id = ?)`,
				conv.ID().String()).Scan(&exists); err != nil {
				return pkgerrors.NewDatabaseError("check session", err)
			}
			if !exists {
				return pkgerrors.ErrSessionNotFound
			}
			return pkgerrors.ErrConcurrentModification
		}
	}

	return r.saveMessages(ctx, conv)
}

// saveMessages upserts the transcript. Rows are append-mostly; the
// update arm exists for in-place answer edits.
func (r *ConversationRepository) saveMessages(ctx context.Context, conv *aggregates.Conversation) error {
	for seq, m := range conv.Messages() {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO messages
			 (id, session_id, seq, role, content, category, is_followup, fallback, previous_skipped, edited, edited_at, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
			 content = excluded.content,
			 fallback = excluded.fallback,
			 previous_skipped = excluded.previous_skipped,
			 edited = excluded.edited,
			 edited_at = excluded.edited_at`,
			m.ID().String(),
			m.SessionID().String(),
			seq,
			m.Role().String(),
			m.Content(),
			m.Category().String(),
			m.IsFollowup(),
			m.IsFallback(),
			m.PreviousSkipped(),
			m.IsEdited(),
			nullableTime(m.EditedAt()),
			m.CreatedAt(),
		)
		if err != nil {
			return pkgerrors.NewDatabaseError("save message", err)
		}
	}
	return nil
}

// GetByID loads a conversation with its full transcript so the session
// rehydrates exactly as it was saved.
func (r *ConversationRepository) GetByID(ctx context.Context, id valueobjects.SessionID) (*aggregates.Conversation, error) {
	var (
		categoryStr string
		skippedJSON string
		version     int
		createdAt   time.Time
		updatedAt   time.Time
		completedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT category, skipped_question_ids, version, created_at, updated_at, completed_at
		 FROM sessions WHERE id = ?`, id.String(),
	).Scan(&categoryStr, &skippedJSON, &version, &createdAt, &updatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("load session", err)
	}

	category, err := valueobjects.ParseCategory(categoryStr)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("load session", fmt.Errorf("stored category %q: %w", categoryStr, err))
	}

	skippedIDs, err := unmarshalSkippedIDs(skippedJSON)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("load session", err)
	}

	messages, err := r.loadMessages(ctx, id)
	if err != nil {
		return nil, err
	}

	var completed *time.Time
	if completedAt.Valid {
		t := completedAt.Time
		completed = &t
	}

	conv, err := aggregates.ReconstructConversation(id, category, messages, skippedIDs, createdAt, updatedAt, completed, version)
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("reconstruct session", err)
	}
	return conv, nil
}

func (r *ConversationRepository) loadMessages(ctx context.Context, sessionID valueobjects.SessionID) ([]*entities.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, role, content, category, is_followup, fallback, previous_skipped, edited, edited_at, created_at
		 FROM messages WHERE session_id = ? ORDER BY seq`, sessionID.String())
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("load messages", err)
	}
	defer rows.Close()

	var messages []*entities.Message
	for rows.Next() {
		var (
			idStr           string
			roleStr         string
			content         string
			categoryStr     string
			isFollowup      bool
			fallback        bool
			previousSkipped bool
			edited          bool
			editedAt        sql.NullTime
			createdAt       time.Time
		)
		if err := rows.Scan(&idStr, &roleStr, &content, &categoryStr,
			&isFollowup, &fallback, &previousSkipped, &edited, &editedAt, &createdAt); err != nil {
			return nil, pkgerrors.NewDatabaseError("scan message", err)
		}

		messageID, err := valueobjects.NewMessageIDFromString(idStr)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("scan message", err)
		}
		role, err := valueobjects.ParseRole(roleStr)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("scan message", err)
		}
		category, err := valueobjects.ParseCategory(categoryStr)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("scan message", err)
		}

		var editedTime *time.Time
		if editedAt.Valid {
			t := editedAt.Time
			editedTime = &t
		}

		msg, err := entities.ReconstructMessage(messageID, sessionID, role, content, category,
			isFollowup, fallback, previousSkipped, edited, editedTime, createdAt)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("reconstruct message", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError("load messages", err)
	}
	return messages, nil
}

// Delete removes a conversation and its transcript
func (r *ConversationRepository) Delete(ctx context.Context, id valueobjects.SessionID) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM messages WHERE session_id = ?`, id.String()); err != nil {
		return pkgerrors.NewDatabaseError("delete messages", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = ?`, id.String()); err != nil {
		return pkgerrors.NewDatabaseError("delete session", err)
	}
	return nil
}

func marshalSkippedIDs(ids []valueobjects.MessageID) (string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalSkippedIDs(raw string) ([]valueobjects.MessageID, error) {
	var strs []string
	if err := json.Unmarshal([]byte(raw), &strs); err != nil {
		return nil, fmt.Errorf("stored skipped ids: %w", err)
	}
	ids := make([]valueobjects.MessageID, 0, len(strs))
	for _, s := range strs {
		id, err := valueobjects.NewMessageIDFromString(s)
		if err != nil {
			return nil, fmt.Errorf("stored skipped id %q: %w", s, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
