package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ideaforge/application/commands"
	"ideaforge/application/ports"
	"ideaforge/application/services"
	"ideaforge/domain/config"
	"ideaforge/domain/core/aggregates"
	"ideaforge/domain/core/entities"
	"ideaforge/domain/core/valueobjects"
	domainevents "ideaforge/domain/events"
	"ideaforge/domain/versioning"
	"ideaforge/pkg/locking"
	"ideaforge/pkg/observability"
)

// SubmitAnswerHandler runs one interview turn: it records the answer,
// feeds it to the recall store, asks the generator for the next
// question, and persists the session in a single short transaction.
// Backend calls happen against the in-memory aggregate before the
// transaction begins so the write lock is never held across them.
type SubmitAnswerHandler struct {
	uow           ports.UnitOfWork
	conversations ports.ConversationRepository
	snapshotStore ports.SnapshotStore
	publisher     ports.EventPublisher
	cache         ports.Cache
	memory        *services.MemoryService
	questions     *services.QuestionService
	snapshots     *versioning.SnapshotService
	locks         *locking.SessionLocks
	metrics       *observability.Collector
	cfg           *config.DomainConfig
	logger        *zap.Logger
}

// NewSubmitAnswerHandler creates a new handler instance
func NewSubmitAnswerHandler(
	uow ports.UnitOfWork,
	conversations ports.ConversationRepository,
	snapshotStore ports.SnapshotStore,
	publisher ports.EventPublisher,
	cache ports.Cache,
	memory *services.MemoryService,
	questions *services.QuestionService,
	snapshots *versioning.SnapshotService,
	locks *locking.SessionLocks,
	metrics *observability.Collector,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *SubmitAnswerHandler {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &SubmitAnswerHandler{
		uow:           uow,
		conversations: conversations,
		snapshotStore: snapshotStore,
		publisher:     publisher,
		cache:         cache,
		memory:        memory,
		questions:     questions,
		snapshots:     snapshots,
		locks:         locks,
		metrics:       metrics,
		cfg:           cfg,
		logger:        logger,
	}
}

// Handle executes the submit answer command
func (h *SubmitAnswerHandler) Handle(ctx context.Context, cmd commands.SubmitAnswerCommand) (*commands.TurnResult, error) {
	sessionID, err := valueobjects.NewSessionIDFromString(cmd.SessionID)
	if err != nil {
		return nil, err
	}

	release := h.locks.Acquire(sessionID.String())
	defer release()

	conv, err := h.conversations.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	answer, err := valueobjects.NewAnswerWithConfig(cmd.Answer, h.cfg)
	if err != nil {
		return nil, err
	}

	pending, hasPending := conv.CurrentQuestion()

	if _, err := conv.RecordAnswer(answer); err != nil {
		return nil, err
	}

	// Recall writes run outside the transaction: persisting before
	// retrieving makes the answer visible to its own follow-up query,
	// and a failed write only degrades retrieval.
	if hasPending {
		h.memory.Persist(ctx, sessionID, pending.Content(), answer.Text())
	}
	retrieved := h.memory.Retrieve(ctx, sessionID, answer.Text(), h.cfg.RetrievalTopK)
	contextTexts := make([]string, 0, len(retrieved))
	for _, rc := range retrieved {
		contextTexts = append(contextTexts, rc.Chunk.Content())
	}

	gen, err := h.questions.Next(ctx, conv, answer, contextTexts)
	if err != nil {
		h.metrics.ObserveTurn(observability.TurnOutcomeError)
		return nil, err
	}

	result := &commands.TurnResult{SessionID: sessionID.String()}
	var asked *entities.Message

	if gen == nil {
		// The final stage has been answered; the state machine lands on
		// the terminal stage here.
		conv.Advance()
		result.Complete = true
	} else {
		if !gen.IsFollowup {
			conv.Advance()
		}
		asked, err = conv.AppendQuestion(gen.Question, gen.IsFollowup, gen.Fallback, false)
		if err != nil {
			h.metrics.ObserveTurn(observability.TurnOutcomeError)
			return nil, err
		}
	}
	result.Category = conv.Category().String()

	snap := h.maybeSnapshot(ctx, conv)

	if err := h.uow.Begin(ctx); err != nil {
		h.metrics.ObserveTurn(observability.TurnOutcomeError)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer h.uow.Rollback()

	if err := h.uow.Conversations().Save(ctx, conv); err != nil {
		h.metrics.ObserveTurn(observability.TurnOutcomeError)
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	if snap != nil {
		// A snapshot is diagnostics; losing one must not lose the turn.
		if err := h.uow.Snapshots().Save(ctx, snap); err != nil {
			h.logger.Warn("failed to save session snapshot",
				zap.String("sessionID", sessionID.String()),
				zap.Error(err),
			)
			snap = nil
		}
	}

	evts := conv.GetUncommittedEvents()
	if snap != nil {
		evts = append(evts, domainevents.NewSnapshotCreated(sessionID, snap.ID, conv.AnswerCount(), snap.CreatedAt))
	}
	if len(evts) > 0 {
		if err := h.uow.Events().SaveEvents(ctx, evts); err != nil {
			h.metrics.ObserveTurn(observability.TurnOutcomeError)
			return nil, fmt.Errorf("failed to save events: %w", err)
		}
	}

	if err := h.uow.Commit(ctx); err != nil {
		h.metrics.ObserveTurn(observability.TurnOutcomeError)
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	conv.MarkSaved()

	publishEvents(ctx, h.publisher, conv, evts, h.logger)

	if snap != nil {
		h.metrics.SnapshotsCreated.Inc()
		if err := h.snapshotStore.Prune(ctx, sessionID.String(), h.cfg.MaxSnapshots); err != nil {
			h.logger.Warn("failed to prune old snapshots",
				zap.String("sessionID", sessionID.String()),
				zap.Error(err),
			)
		}
	}

	invalidateSession(ctx, h.cache, sessionID.String(), h.logger)

	switch {
	case result.Complete:
		h.metrics.ObserveTurn(observability.TurnOutcomeComplete)
		h.metrics.SessionsCompleted.Inc()
	case gen.IsFollowup:
		h.metrics.ObserveTurn(observability.TurnOutcomeFollowup)
	default:
		h.metrics.ObserveTurn(observability.TurnOutcomeQuestion)
	}

	if asked != nil {
		p := questionPayload(asked)
		result.Question = &p
	}

	h.logger.Info("turn completed",
		zap.String("sessionID", sessionID.String()),
		zap.String("category", result.Category),
		zap.Bool("complete", result.Complete),
		zap.Bool("followup", gen != nil && gen.IsFollowup),
		zap.Int("contextChunks", len(contextTexts)),
	)

	return result, nil
}

// maybeSnapshot builds a snapshot when the policy fires. Failures are
// logged and reported as no snapshot.
func (h *SubmitAnswerHandler) maybeSnapshot(ctx context.Context, conv *aggregates.Conversation) *versioning.SessionSnapshot {
	last, err := h.snapshotStore.Latest(ctx, conv.ID().String())
	if err != nil {
		h.logger.Warn("failed to load latest snapshot",
			zap.String("sessionID", conv.ID().String()),
			zap.Error(err),
		)
		return nil
	}
	if !h.snapshots.Policy().ShouldSnapshot(conv, last) {
		return nil
	}
	snap, err := h.snapshots.CreateSnapshot(conv)
	if err != nil {
		h.logger.Warn("failed to build session snapshot",
			zap.String("sessionID", conv.ID().String()),
			zap.Error(err),
		)
		return nil
	}
	return snap
}

// questionPayload maps a transcript question message to its command result form
func questionPayload(msg *entities.Message) commands.QuestionPayload {
	return commands.QuestionPayload{
		MessageID:  msg.ID().String(),
		Text:       msg.Content(),
		Category:   msg.Category().String(),
		IsFollowup: msg.IsFollowup(),
		Fallback:   msg.IsFallback(),
	}
}

// publishEvents sends the batch produced by a committed mutation and
// marks the aggregate's events committed when the publish succeeds.
// Publish failures are logged; the events stay queued for retry.
func publishEvents(ctx context.Context, publisher ports.EventPublisher, conv *aggregates.Conversation, evts []domainevents.DomainEvent, logger *zap.Logger) {
	if len(evts) == 0 {
		return
	}
	if err := publisher.PublishBatch(ctx, evts); err != nil {
		logger.Error("failed to publish domain events",
			zap.String("sessionID", conv.ID().String()),
			zap.Int("eventCount", len(evts)),
			zap.Error(err),
		)
		return
	}
	conv.MarkEventsAsCommitted()
}

// invalidateSession drops cached query results for a session after its
// state changed
func invalidateSession(ctx context.Context, cache ports.Cache, sessionID string, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.DeletePrefix(ctx, sessionID); err != nil {
		logger.Warn("failed to invalidate session cache",
			zap.String("sessionID", sessionID),
			zap.Error(err),
		)
	}
}
