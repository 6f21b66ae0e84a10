package handlers

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ideaforge/application/commands"
	"ideaforge/application/ports"
	"ideaforge/application/services"
	"ideaforge/domain/core/valueobjects"
	pkgerrors "ideaforge/pkg/errors"
	"ideaforge/pkg/locking"
	"ideaforge/pkg/observability"
)

// SkipQuestionHandler abandons the pending question and opens the next
// stage with a fresh question. The skipped question's ID is recorded
// for audit; no answer is stored and the recall store is not consulted,
// so the replacement question cannot probe the skipped one.
type SkipQuestionHandler struct {
	uow           ports.UnitOfWork
	conversations ports.ConversationRepository
	publisher     ports.EventPublisher
	cache         ports.Cache
	questions     *services.QuestionService
	locks         *locking.SessionLocks
	metrics       *observability.Collector
	logger        *zap.Logger
}

// NewSkipQuestionHandler creates a new handler instance
func NewSkipQuestionHandler(
	uow ports.UnitOfWork,
	conversations ports.ConversationRepository,
	publisher ports.EventPublisher,
	cache ports.Cache,
	questions *services.QuestionService,
	locks *locking.SessionLocks,
	metrics *observability.Collector,
	logger *zap.Logger,
) *SkipQuestionHandler {
	return &SkipQuestionHandler{
		uow:           uow,
		conversations: conversations,
		publisher:     publisher,
		cache:         cache,
		questions:     questions,
		locks:         locks,
		metrics:       metrics,
		logger:        logger,
	}
}

// Handle executes the skip question command
func (h *SkipQuestionHandler) Handle(ctx context.Context, cmd commands.SkipQuestionCommand) (*commands.SkipResult, error) {
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

	result := &commands.SkipResult{SessionID: sessionID.String()}

	skippedID, next, err := conv.SkipCurrentQuestion()
	if err != nil {
		if errors.Is(err, pkgerrors.ErrSessionComplete) {
			// Skipping a finished interview reports completion again
			// rather than failing; nothing changed, nothing to save.
			result.Category = conv.Category().String()
			result.Complete = true
			return result, nil
		}
		return nil, err
	}
	if !skippedID.IsZero() {
		result.SkippedMessageID = skippedID.String()
	}

	if next.IsTerminal() {
		result.Complete = true
	} else {
		// Fresh question only: no follow-up, no retrieved context.
		gen := h.questions.Fresh(ctx, conv, conv.Category(), nil)
		asked, err := conv.AppendQuestion(gen.Question, false, gen.Fallback, true)
		if err != nil {
			h.metrics.ObserveTurn(observability.TurnOutcomeError)
			return nil, err
		}
		p := questionPayload(asked)
		result.Question = &p
	}
	result.Category = conv.Category().String()

	if err := h.uow.Begin(ctx); err != nil {
		h.metrics.ObserveTurn(observability.TurnOutcomeError)
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer h.uow.Rollback()

	if err := h.uow.Conversations().Save(ctx, conv); err != nil {
		h.metrics.ObserveTurn(observability.TurnOutcomeError)
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	evts := conv.GetUncommittedEvents()
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
	invalidateSession(ctx, h.cache, sessionID.String(), h.logger)

	h.metrics.AnswersSkipped.Inc()
	if result.Complete {
		h.metrics.ObserveTurn(observability.TurnOutcomeComplete)
		h.metrics.SessionsCompleted.Inc()
	} else {
		h.metrics.ObserveTurn(observability.TurnOutcomeQuestion)
	}

	h.logger.Info("question skipped",
		zap.String("sessionID", sessionID.String()),
		zap.String("skippedMessageID", result.SkippedMessageID),
		zap.String("category", result.Category),
		zap.Bool("complete", result.Complete),
	)

	return result, nil
}
