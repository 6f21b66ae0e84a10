package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ideaforge/application/commands"
	"ideaforge/application/ports"
	"ideaforge/application/sagas"
	"ideaforge/application/services"
	"ideaforge/domain/core/aggregates"
	"ideaforge/pkg/observability"
)

// StartInterviewHandler creates a session and emits the opening
// question. The two writes run as a compensating saga: when the append
// or its save fails, the session record created by the first step is
// deleted instead of being left behind with an empty transcript.
type StartInterviewHandler struct {
	conversations ports.ConversationRepository
	eventStore    ports.EventStore
	publisher     ports.EventPublisher
	questions     *services.QuestionService
	metrics       *observability.Collector
	logger        *zap.Logger
}

// NewStartInterviewHandler creates a new handler instance
func NewStartInterviewHandler(
	conversations ports.ConversationRepository,
	eventStore ports.EventStore,
	publisher ports.EventPublisher,
	questions *services.QuestionService,
	metrics *observability.Collector,
	logger *zap.Logger,
) *StartInterviewHandler {
	return &StartInterviewHandler{
		conversations: conversations,
		eventStore:    eventStore,
		publisher:     publisher,
		questions:     questions,
		metrics:       metrics,
		logger:        logger,
	}
}

// Handle executes the start interview command
func (h *StartInterviewHandler) Handle(ctx context.Context, cmd commands.StartInterviewCommand) (*commands.StartInterviewResult, error) {
	saga := sagas.NewSagaBuilder("start_interview", h.logger).
		WithCompensableStep(
			"create_session",
			func(ctx context.Context, _ interface{}) (interface{}, error) {
				conv, err := aggregates.NewConversation()
				if err != nil {
					return nil, fmt.Errorf("failed to create session: %w", err)
				}
				if err := h.conversations.Save(ctx, conv); err != nil {
					return nil, fmt.Errorf("failed to save session: %w", err)
				}
				conv.MarkSaved()
				return conv, nil
			},
			func(ctx context.Context, data interface{}) error {
				conv := data.(*aggregates.Conversation)
				return h.conversations.Delete(ctx, conv.ID())
			},
		).
		WithStep(
			"append_opening_question",
			func(ctx context.Context, data interface{}) (interface{}, error) {
				conv := data.(*aggregates.Conversation)
				// The opener comes straight from the template bank; the
				// generation backend is not consulted for it.
				gen := h.questions.InitialQuestion()
				if _, err := conv.AppendQuestion(gen.Question, false, gen.Fallback, false); err != nil {
					return nil, fmt.Errorf("failed to append opening question: %w", err)
				}
				if err := h.conversations.Save(ctx, conv); err != nil {
					return nil, fmt.Errorf("failed to save opening question: %w", err)
				}
				conv.MarkSaved()
				return conv, nil
			},
		).
		Build()

	data, err := saga.Execute(ctx, nil)
	if err != nil {
		return nil, err
	}
	conv := data.(*aggregates.Conversation)

	evts := conv.GetUncommittedEvents()
	if len(evts) > 0 {
		// The session row is already durable; losing the audit trail for
		// it is logged, not fatal.
		if err := h.eventStore.SaveEvents(ctx, evts); err != nil {
			h.logger.Warn("failed to persist session events",
				zap.String("sessionID", conv.ID().String()),
				zap.Error(err),
			)
		}
	}
	publishEvents(ctx, h.publisher, conv, evts, h.logger)

	h.metrics.SessionsStarted.Inc()

	opening, ok := conv.CurrentQuestion()
	if !ok {
		return nil, fmt.Errorf("session %s has no opening question", conv.ID())
	}

	h.logger.Info("interview started",
		zap.String("sessionID", conv.ID().String()),
		zap.String("category", conv.Category().String()),
	)

	return &commands.StartInterviewResult{
		SessionID: conv.ID().String(),
		Category:  conv.Category().String(),
		Question:  questionPayload(opening),
	}, nil
}
