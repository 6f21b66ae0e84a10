package queries

import "errors"

// GetStatusQuery requests a session's progress summary
type GetStatusQuery struct {
	SessionID string
}

// Validate validates the GetStatusQuery
func (q GetStatusQuery) Validate() error {
	if q.SessionID == "" {
		return errors.New("session ID is required")
	}
	return nil
}

// CacheKey scopes the cached status under the session
func (q GetStatusQuery) CacheKey() string {
	return q.SessionID + ":status"
}

// CategoryProgress counts the questions asked in one interview stage
type CategoryProgress struct {
	Category  string `json:"category"`
	Questions int    `json:"questions"`
}

// SnapshotInfo summarizes one stored snapshot
type SnapshotInfo struct {
	ID          string `json:"id"`
	Number      int    `json:"number"`
	Category    string `json:"category"`
	AnswerCount int    `json:"answer_count"`
	CreatedAt   string `json:"created_at"`
}

// GetStatusResult is the rehydration surface for a session: together
// with the history pages it carries everything a client needs to
// resume an interview.
type GetStatusResult struct {
	SessionID          string             `json:"session_id"`
	State              string             `json:"state"`
	Complete           bool               `json:"complete"`
	Progress           float64            `json:"progress"`
	MessageCount       int                `json:"message_count"`
	AnswerCount        int                `json:"answer_count"`
	SkippedQuestionIDs []string           `json:"skipped_question_ids"`
	MemoryChunks       int                `json:"memory_chunks"`
	Categories         []CategoryProgress `json:"categories"`
	Snapshots          []SnapshotInfo     `json:"snapshots"`
	CreatedAt          string             `json:"created_at"`
	UpdatedAt          string             `json:"updated_at"`
	CompletedAt        *string            `json:"completed_at,omitempty"`
}
