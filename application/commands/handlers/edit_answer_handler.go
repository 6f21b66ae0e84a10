package handlers

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"ideaforge/application/commands"
	"ideaforge/application/ports"
	"ideaforge/application/services"
	"ideaforge/domain/config"
	"ideaforge/domain/core/valueobjects"
	pkgerrors "ideaforge/pkg/errors"
	"ideaforge/pkg/locking"
	"ideaforge/pkg/observability"
)

// EditAnswerHandler overwrites an earlier answer in place. Questions
// asked after the edited answer are not regenerated; the transcript is
// committed first and the recall store then follows best-effort, so a
// failed memory write degrades retrieval rather than the edit.
type EditAnswerHandler struct {
	uow           ports.UnitOfWork
	conversations ports.ConversationRepository
	publisher     ports.EventPublisher
	cache         ports.Cache
	memory        *services.MemoryService
	locks         *locking.SessionLocks
	metrics       *observability.Collector
	cfg           *config.DomainConfig
	logger        *zap.Logger
}

// NewEditAnswerHandler creates a new handler instance
func NewEditAnswerHandler(
	uow ports.UnitOfWork,
	conversations ports.ConversationRepository,
	publisher ports.EventPublisher,
	cache ports.Cache,
	memory *services.MemoryService,
	locks *locking.SessionLocks,
	metrics *observability.Collector,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *EditAnswerHandler {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &EditAnswerHandler{
		uow:           uow,
		conversations: conversations,
		publisher:     publisher,
		cache:         cache,
		memory:        memory,
		locks:         locks,
		metrics:       metrics,
		cfg:           cfg,
		logger:        logger,
	}
}

// Handle executes the edit answer command
func (h *EditAnswerHandler) Handle(ctx context.Context, cmd commands.EditAnswerCommand) (*commands.EditResult, error) {
	sessionID, err := valueobjects.NewSessionIDFromString(cmd.SessionID)
	if err != nil {
		return nil, err
	}
	messageID, err := valueobjects.NewMessageIDFromString(cmd.MessageID)
	if err != nil {
		return nil, err
	}

	release := h.locks.Acquire(sessionID.String())
	defer release()

	conv, err := h.conversations.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	answer, err := valueobjects.NewAnswerWithConfig(cmd.NewAnswer, h.cfg)
	if err != nil {
		return nil, err
	}

	result := &commands.EditResult{
		SessionID: sessionID.String(),
		MessageID: messageID.String(),
	}

	prevQuestion, hasQuestion := conv.PrecedingQuestion(messageID)

	if _, err := conv.EditAnswer(messageID, answer); err != nil {
		if errors.Is(err, pkgerrors.ErrMessageNotFound) || errors.Is(err, pkgerrors.ErrMessageNotEditable) {
			// A missing or non-answer target is a soft miss, not a fault.
			h.logger.Info("edit target rejected",
				zap.String("sessionID", sessionID.String()),
				zap.String("messageID", messageID.String()),
				zap.String("reason", err.Error()),
			)
			return result, nil
		}
		return nil, err
	}

	if err := h.uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer h.uow.Rollback()

	if err := h.uow.Conversations().Save(ctx, conv); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	evts := conv.GetUncommittedEvents()
	if len(evts) > 0 {
		if err := h.uow.Events().SaveEvents(ctx, evts); err != nil {
			return nil, fmt.Errorf("failed to save events: %w", err)
		}
	}

	if err := h.uow.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	conv.MarkSaved()
	result.Updated = true

	// Transcript is durable; bring the recall store in line with it.
	// Update reports false when the chunk is missing or the rewrite
	// failed, and the two are allowed to diverge.
	if hasQuestion {
		result.MemorySynced = h.memory.Update(ctx, sessionID, prevQuestion.Content(), answer.Text())
	} else {
		h.logger.Warn("edited answer has no preceding question, recall store not updated",
			zap.String("sessionID", sessionID.String()),
			zap.String("messageID", messageID.String()),
		)
	}

	publishEvents(ctx, h.publisher, conv, evts, h.logger)
	invalidateSession(ctx, h.cache, sessionID.String(), h.logger)

	h.metrics.AnswersEdited.Inc()

	h.logger.Info("answer edited",
		zap.String("sessionID", sessionID.String()),
		zap.String("messageID", messageID.String()),
		zap.Bool("memorySynced", result.MemorySynced),
	)

	return result, nil
}
