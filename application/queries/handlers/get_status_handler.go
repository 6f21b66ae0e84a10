package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ideaforge/application/ports"
	"ideaforge/application/queries"
	"ideaforge/application/services"
	"ideaforge/domain/core/valueobjects"
)

const snapshotListLimit = 10

// GetStatusHandler serves the session status read model. The result
// carries enough state for a client to rehydrate a session after a
// reconnect without replaying the transcript.
type GetStatusHandler struct {
	conversations ports.ConversationRepository
	memory        *services.MemoryService
	snapshots     ports.SnapshotStore
	logger        *zap.Logger
}

// NewGetStatusHandler creates a new status handler
func NewGetStatusHandler(
	conversations ports.ConversationRepository,
	memory *services.MemoryService,
	snapshots ports.SnapshotStore,
	logger *zap.Logger,
) *GetStatusHandler {
	return &GetStatusHandler{
		conversations: conversations,
		memory:        memory,
		snapshots:     snapshots,
		logger:        logger,
	}
}

// Handle executes the status query
func (h *GetStatusHandler) Handle(ctx context.Context, query queries.GetStatusQuery) (*queries.GetStatusResult, error) {
	sessionID, err := valueobjects.NewSessionIDFromString(query.SessionID)
	if err != nil {
		return nil, err
	}

	conv, err := h.conversations.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	skipped := make([]string, 0, len(conv.SkippedQuestionIDs()))
	for _, id := range conv.SkippedQuestionIDs() {
		skipped = append(skipped, id.String())
	}

	coverage := conv.CategoryCoverage()
	categories := make([]queries.CategoryProgress, 0, len(coverage))
	for _, cat := range valueobjects.AllCategories() {
		n, ok := coverage[cat]
		if !ok {
			continue
		}
		categories = append(categories, queries.CategoryProgress{
			Category:  cat.String(),
			Questions: n,
		})
	}

	result := &queries.GetStatusResult{
		SessionID:          sessionID.String(),
		State:              conv.Category().String(),
		Complete:           conv.IsComplete(),
		Progress:           progressOf(conv.Category()),
		MessageCount:       conv.MessageCount(),
		AnswerCount:        conv.AnswerCount(),
		SkippedQuestionIDs: skipped,
		MemoryChunks:       h.memory.Count(ctx, sessionID),
		Categories:         categories,
		CreatedAt:          conv.CreatedAt().Format(time.RFC3339),
		UpdatedAt:          conv.UpdatedAt().Format(time.RFC3339),
	}
	if done := conv.CompletedAt(); done != nil {
		s := done.Format(time.RFC3339)
		result.CompletedAt = &s
	}

	snaps, err := h.snapshots.ListBySession(ctx, sessionID.String(), snapshotListLimit)
	if err != nil {
		// Snapshot listing is advisory; status stays useful without it.
		h.logger.Warn("failed to list snapshots",
			zap.String("sessionID", sessionID.String()),
			zap.Error(err),
		)
	} else {
		result.Snapshots = make([]queries.SnapshotInfo, 0, len(snaps))
		for _, snap := range snaps {
			result.Snapshots = append(result.Snapshots, queries.SnapshotInfo{
				ID:          snap.ID,
				Number:      snap.Number,
				Category:    snap.Category,
				AnswerCount: snap.AnswerCount,
				CreatedAt:   snap.CreatedAt.Format(time.RFC3339),
			})
		}
	}

	return result, nil
}

// progressOf maps a category to its fraction of the full progression.
// Start is 0.0 and Complete is 1.0.
func progressOf(cat valueobjects.Category) float64 {
	i := cat.Index()
	if i < 0 {
		return 0
	}
	last := len(valueobjects.AllCategories()) - 1
	if last <= 0 {
		return 1
	}
	return float64(i) / float64(last)
}
