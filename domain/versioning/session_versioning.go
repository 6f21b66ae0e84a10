package versioning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"ideaforge/domain/core/aggregates"
	"ideaforge/domain/core/valueobjects"
)

// SessionSnapshot is a point-in-time capture of a conversation. The
// payload holds the full transcript so a snapshot can stand on its own
// for audit and recovery.
type SessionSnapshot struct {
	ID           string          `json:"id"`
	SessionID    string          `json:"session_id"`
	Number       int             `json:"number"`
	Category     string          `json:"category"`
	MessageCount int             `json:"message_count"`
	AnswerCount  int             `json:"answer_count"`
	Checksum     string          `json:"checksum"`
	State        json.RawMessage `json:"state"`
	CreatedAt    time.Time       `json:"created_at"`
}

// SnapshotPayload is the canonical serialized form of a conversation.
// Field order is fixed so the checksum is stable.
type SnapshotPayload struct {
	SessionID string            `json:"session_id"`
	Category  string            `json:"category"`
	Version   int               `json:"version"`
	Messages  []SnapshotMessage `json:"messages"`
	Skipped   []string          `json:"skipped_question_ids"`
}

// SnapshotMessage is one serialized transcript entry
type SnapshotMessage struct {
	ID         string    `json:"id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Category   string    `json:"category"`
	IsFollowup bool      `json:"is_followup,omitempty"`
	Edited     bool      `json:"edited,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// SnapshotService captures and verifies session snapshots
type SnapshotService struct {
	policy SnapshotPolicy
}

// NewSnapshotService creates a snapshot service with the given policy
func NewSnapshotService(policy SnapshotPolicy) *SnapshotService {
	return &SnapshotService{policy: policy}
}

// Policy returns the active snapshot policy
func (s *SnapshotService) Policy() SnapshotPolicy {
	return s.policy
}

// CreateSnapshot captures the conversation's current state
func (s *SnapshotService) CreateSnapshot(conv *aggregates.Conversation) (*SessionSnapshot, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation cannot be nil")
	}

	payload := buildPayload(conv)
	state, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize snapshot state: %w", err)
	}

	hash := sha256.Sum256(state)

	return &SessionSnapshot{
		ID:           ulid.Make().String(),
		SessionID:    conv.ID().String(),
		Number:       conv.Version(),
		Category:     conv.Category().String(),
		MessageCount: conv.MessageCount(),
		AnswerCount:  conv.AnswerCount(),
		Checksum:     hex.EncodeToString(hash[:]),
		State:        state,
		CreatedAt:    time.Now(),
	}, nil
}

// Verify recomputes the checksum over the stored state and compares it
// with the recorded one.
func (s *SnapshotService) Verify(snapshot *SessionSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}

	hash := sha256.Sum256(snapshot.State)
	if hex.EncodeToString(hash[:]) != snapshot.Checksum {
		return fmt.Errorf("snapshot %s failed checksum verification", snapshot.ID)
	}
	return nil
}

// CompareSnapshots summarizes what changed between two snapshots
func (s *SnapshotService) CompareSnapshots(from, to *SessionSnapshot) (*SnapshotDiff, error) {
	if from == nil || to == nil {
		return nil, fmt.Errorf("snapshots cannot be nil")
	}
	if from.SessionID != to.SessionID {
		return nil, fmt.Errorf("snapshots belong to different sessions")
	}

	return &SnapshotDiff{
		FromNumber:    from.Number,
		ToNumber:      to.Number,
		MessagesAdded: to.MessageCount - from.MessageCount,
		AnswersAdded:  to.AnswerCount - from.AnswerCount,
		CategoryMoved: from.Category != to.Category,
		TimeDiff:      to.CreatedAt.Sub(from.CreatedAt),
	}, nil
}

func buildPayload(conv *aggregates.Conversation) SnapshotPayload {
	msgs := conv.Messages()
	serialized := make([]SnapshotMessage, 0, len(msgs))
	for _, m := range msgs {
		serialized = append(serialized, SnapshotMessage{
			ID:         m.ID().String(),
			Role:       m.Role().String(),
			Content:    m.Content(),
			Category:   m.Category().String(),
			IsFollowup: m.IsFollowup(),
			Edited:     m.IsEdited(),
			CreatedAt:  m.CreatedAt(),
		})
	}

	skippedIDs := conv.SkippedQuestionIDs()
	skipped := make([]string, 0, len(skippedIDs))
	for _, id := range skippedIDs {
		skipped = append(skipped, id.String())
	}

	return SnapshotPayload{
		SessionID: conv.ID().String(),
		Category:  conv.Category().String(),
		Version:   conv.Version(),
		Messages:  serialized,
		Skipped:   skipped,
	}
}

// SnapshotDiff represents the difference between two snapshots
type SnapshotDiff struct {
	FromNumber    int           `json:"from_number"`
	ToNumber      int           `json:"to_number"`
	MessagesAdded int           `json:"messages_added"`
	AnswersAdded  int           `json:"answers_added"`
	CategoryMoved bool          `json:"category_moved"`
	TimeDiff      time.Duration `json:"time_diff"`
}

// SnapshotPolicy defines when snapshots are captured and how many are kept
type SnapshotPolicy struct {
	Enabled      bool `json:"enabled"`
	EveryAnswers int  `json:"every_answers"`
	MaxSnapshots int  `json:"max_snapshots"`
}

// DefaultSnapshotPolicy returns the default snapshot policy
func DefaultSnapshotPolicy() SnapshotPolicy {
	return SnapshotPolicy{
		Enabled:      true,
		EveryAnswers: 5,
		MaxSnapshots: 10,
	}
}

// ShouldSnapshot determines if a snapshot is due. A snapshot is taken
// on every Nth answer, at most once per answer count, and always when
// the session completes.
func (p SnapshotPolicy) ShouldSnapshot(conv *aggregates.Conversation, last *SessionSnapshot) bool {
	if !p.Enabled || conv == nil {
		return false
	}

	count := conv.AnswerCount()
	if last != nil && last.AnswerCount >= count && !conv.IsComplete() {
		return false
	}

	if conv.IsComplete() {
		return last == nil || last.Category != valueobjects.CategoryComplete.String()
	}

	return count > 0 && count%p.EveryAnswers == 0
}
