package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ideaforge/application/ports"
	"ideaforge/application/queries"
	"ideaforge/domain/core/entities"
	"ideaforge/domain/core/valueobjects"
	"ideaforge/pkg/common"
)

// GetHistoryHandler serves paginated transcript reads
type GetHistoryHandler struct {
	conversations ports.ConversationRepository
	logger        *zap.Logger
}

// NewGetHistoryHandler creates a new history handler
func NewGetHistoryHandler(
	conversations ports.ConversationRepository,
	logger *zap.Logger,
) *GetHistoryHandler {
	return &GetHistoryHandler{
		conversations: conversations,
		logger:        logger,
	}
}

// Handle executes the history query
func (h *GetHistoryHandler) Handle(ctx context.Context, query queries.GetHistoryQuery) (*queries.GetHistoryResult, error) {
	sessionID, err := valueobjects.NewSessionIDFromString(query.SessionID)
	if err != nil {
		return nil, err
	}

	conv, err := h.conversations.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	page := query.Page
	if page <= 0 {
		page = 1
	}
	pageSize := query.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	msgs := conv.Messages()
	total := len(msgs)

	if query.Order == "desc" {
		reversed := make([]*entities.Message, total)
		for i, m := range msgs {
			reversed[total-1-i] = m
		}
		msgs = reversed
	}

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	skipped := make(map[string]bool, len(conv.SkippedQuestionIDs()))
	for _, id := range conv.SkippedQuestionIDs() {
		skipped[id.String()] = true
	}

	out := make([]queries.HistoryMessage, 0, end-start)
	for _, m := range msgs[start:end] {
		out = append(out, historyMessage(m, skipped))
	}

	return &queries.GetHistoryResult{
		SessionID:  sessionID.String(),
		Messages:   out,
		Pagination: common.BuildPaginationMeta(page, pageSize, total),
	}, nil
}

// historyMessage maps a transcript message to its read model
func historyMessage(m *entities.Message, skipped map[string]bool) queries.HistoryMessage {
	hm := queries.HistoryMessage{
		ID:              m.ID().String(),
		Role:            m.Role().String(),
		Content:         m.Content(),
		Category:        m.Category().String(),
		IsFollowup:      m.IsFollowup(),
		Fallback:        m.IsFallback(),
		PreviousSkipped: m.PreviousSkipped(),
		Skipped:         skipped[m.ID().String()],
		Edited:          m.IsEdited(),
		CreatedAt:       m.CreatedAt().Format(time.RFC3339),
	}
	if at := m.EditedAt(); at != nil {
		s := at.Format(time.RFC3339)
		hm.EditedAt = &s
	}
	return hm
}
