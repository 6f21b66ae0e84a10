package queries

import (
	"errors"
	"fmt"

	"ideaforge/pkg/common"
)

// GetHistoryQuery requests a page of a session's transcript
type GetHistoryQuery struct {
	SessionID string
	Page      int
	PageSize  int
	Order     string
}

// Validate validates the GetHistoryQuery
func (q GetHistoryQuery) Validate() error {
	if q.SessionID == "" {
		return errors.New("session ID is required")
	}
	if q.Page < 0 || q.PageSize < 0 {
		return errors.New("pagination values must not be negative")
	}
	if q.Order != "" && q.Order != "asc" && q.Order != "desc" {
		return errors.New("order must be asc or desc")
	}
	return nil
}

// CacheKey scopes the cached page under the session so one prefix
// delete invalidates every view of the session.
func (q GetHistoryQuery) CacheKey() string {
	return fmt.Sprintf("%s:history:%d:%d:%s", q.SessionID, q.Page, q.PageSize, q.Order)
}

// HistoryMessage is one transcript entry
type HistoryMessage struct {
	ID              string  `json:"id"`
	Role            string  `json:"role"`
	Content         string  `json:"content"`
	Category        string  `json:"category"`
	IsFollowup      bool    `json:"is_followup"`
	Fallback        bool    `json:"fallback"`
	PreviousSkipped bool    `json:"previous_skipped"`
	Skipped         bool    `json:"skipped"`
	Edited          bool    `json:"edited"`
	EditedAt        *string `json:"edited_at,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// GetHistoryResult is a transcript page in requested order
type GetHistoryResult struct {
	SessionID  string                 `json:"session_id"`
	Messages   []HistoryMessage       `json:"messages"`
	Pagination *common.PaginationInfo `json:"pagination"`
}
