package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"ideaforge/application/commands"
	"ideaforge/application/services"
	"ideaforge/domain/config"
	"ideaforge/domain/core/entities"
	"ideaforge/domain/core/valueobjects"
	pkgerrors "ideaforge/pkg/errors"
	"ideaforge/pkg/locking"
	"ideaforge/pkg/observability"
	"ideaforge/pkg/tokens"
	"ideaforge/tests/fixtures"
	"ideaforge/tests/mocks"
)

type editTestEnv struct {
	uow       *mocks.MockUnitOfWork
	convRepo  *mocks.MockConversationRepository
	txConvs   *mocks.MockConversationRepository
	txEvents  *mocks.MockEventStore
	publisher *mocks.MockEventPublisher
	cache     *mocks.MockCache
	index     *mocks.MockChunkIndex
	embedder  *mocks.MockEmbedder
	handler   *EditAnswerHandler
}

func newEditTestEnv() *editTestEnv {
	env := &editTestEnv{
		uow:       new(mocks.MockUnitOfWork),
		convRepo:  new(mocks.MockConversationRepository),
		txConvs:   new(mocks.MockConversationRepository),
		txEvents:  new(mocks.MockEventStore),
		publisher: new(mocks.MockEventPublisher),
		cache:     new(mocks.MockCache),
		index:     new(mocks.MockChunkIndex),
		embedder:  new(mocks.MockEmbedder),
	}
	env.uow.ConversationsRepo = env.txConvs
	env.uow.EventsRepo = env.txEvents

	cfg := config.DefaultDomainConfig()
	metrics := observability.NewCollector("test")
	memory := services.NewMemoryService(env.index, env.embedder, tokens.NewCounter(), cfg, metrics, zap.NewNop())

	env.handler = NewEditAnswerHandler(
		env.uow,
		env.convRepo,
		env.publisher,
		env.cache,
		memory,
		locking.NewSessionLocks(),
		metrics,
		cfg,
		zap.NewNop(),
	)
	return env
}

func (e *editTestEnv) happyTx(ctx context.Context) {
	e.uow.On("Begin", ctx).Return(nil)
	e.uow.On("Commit", ctx).Return(nil)
	e.uow.On("Rollback").Return(nil)
	e.txConvs.On("Save", ctx, mock.AnythingOfType("*aggregates.Conversation")).Return(nil)
	e.txEvents.On("SaveEvents", ctx, mock.AnythingOfType("[]events.DomainEvent")).Return(nil)
}

func TestEditAnswerHandler_Handle_EditsAnswerAndSyncsMemory(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newEditTestEnv()

	question := "What problem does your product solve?"
	oldAnswer := "It finds duplicate meeting notes for teams."
	newAnswer := "It keeps meeting knowledge searchable across every team tool."

	conv := fixtures.NewConversationBuilder().
		WithTurn(question, oldAnswer).
		WithoutPendingQuestion().
		MustBuild()
	sessionID := conv.ID()
	answerMsg := conv.Messages()[1]
	assert.True(t, answerMsg.Role().IsAnswer())

	env.convRepo.On("GetByID", ctx, sessionID).Return(conv, nil)
	env.happyTx(ctx)
	env.publisher.On("PublishBatch", ctx, mock.AnythingOfType("[]events.DomainEvent")).Return(nil)
	env.cache.On("DeletePrefix", ctx, sessionID.String()).Return(nil)

	prevChunk := fixtures.NewChunkBuilder(sessionID).
		WithQuestion(question).
		WithAnswer(oldAnswer).
		Build()
	env.index.On("FindLiveByQuestion", ctx, sessionID, question).Return(prevChunk, nil)
	env.embedder.On("Embed", ctx, mock.AnythingOfType("string")).Return([]float32{0.4, 0.6}, nil)
	env.index.On("Retire", ctx, sessionID, prevChunk.ID()).Return(nil)
	env.index.On("Insert", ctx, mock.MatchedBy(func(c *entities.MemoryChunk) bool {
		return c.IsEdited() && c.AnswerText() == newAnswer
	})).Return(nil)

	cmd := commands.EditAnswerCommand{
		SessionID: sessionID.String(),
		MessageID: answerMsg.ID().String(),
		NewAnswer: newAnswer,
	}

	// Act
	result, err := env.handler.Handle(ctx, cmd)

	// Assert
	assert.NoError(t, err)
	assert.True(t, result.Updated)
	assert.True(t, result.MemorySynced)
	assert.Equal(t, newAnswer, answerMsg.Content())
	assert.True(t, answerMsg.IsEdited())
	assert.NotNil(t, answerMsg.EditedAt())
	env.index.AssertExpectations(t)
	env.txConvs.AssertExpectations(t)
}

func TestEditAnswerHandler_Handle_MissingTargetReturnsFalse(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newEditTestEnv()

	conv := fixtures.NewConversationBuilder().
		WithAnsweredTurns(1).
		MustBuild()
	sessionID := conv.ID()

	env.convRepo.On("GetByID", ctx, sessionID).Return(conv, nil)

	cmd := commands.EditAnswerCommand{
		SessionID: sessionID.String(),
		MessageID: valueobjects.NewMessageID().String(),
		NewAnswer: "An answer aimed at a message that does not exist.",
	}

	// Act
	result, err := env.handler.Handle(ctx, cmd)

	// Assert: a soft miss, not an error, and nothing is written
	assert.NoError(t, err)
	assert.False(t, result.Updated)
	assert.False(t, result.MemorySynced)
	env.uow.AssertNotCalled(t, "Begin", mock.Anything)
	env.index.AssertNotCalled(t, "FindLiveByQuestion", mock.Anything, mock.Anything, mock.Anything)
}

func TestEditAnswerHandler_Handle_QuestionTargetRejected(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newEditTestEnv()

	conv := fixtures.NewConversationBuilder().
		WithTurn("What problem does your product solve?", "It organizes scattered research notes for students.").
		WithoutPendingQuestion().
		MustBuild()
	sessionID := conv.ID()
	questionMsg := conv.Messages()[0]
	assert.True(t, questionMsg.Role().IsQuestion())

	env.convRepo.On("GetByID", ctx, sessionID).Return(conv, nil)

	cmd := commands.EditAnswerCommand{
		SessionID: sessionID.String(),
		MessageID: questionMsg.ID().String(),
		NewAnswer: "Text aimed at a question slot.",
	}

	// Act
	result, err := env.handler.Handle(ctx, cmd)

	// Assert: only answers are editable
	assert.NoError(t, err)
	assert.False(t, result.Updated)
	env.uow.AssertNotCalled(t, "Begin", mock.Anything)
}

func TestEditAnswerHandler_Handle_MemoryDivergenceTolerated(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newEditTestEnv()

	question := "Who are the primary users of your product?"
	conv := fixtures.NewConversationBuilder().
		WithTurn(question, "Mostly students working on group projects together every week.").
		WithoutPendingQuestion().
		MustBuild()
	sessionID := conv.ID()
	answerMsg := conv.Messages()[1]

	env.convRepo.On("GetByID", ctx, sessionID).Return(conv, nil)
	env.happyTx(ctx)
	env.publisher.On("PublishBatch", ctx, mock.AnythingOfType("[]events.DomainEvent")).Return(nil)
	env.cache.On("DeletePrefix", ctx, sessionID.String()).Return(nil)
	// The recall store never saw this turn.
	env.index.On("FindLiveByQuestion", ctx, sessionID, question).
		Return(nil, pkgerrors.ErrChunkNotFound)

	cmd := commands.EditAnswerCommand{
		SessionID: sessionID.String(),
		MessageID: answerMsg.ID().String(),
		NewAnswer: "Teachers preparing lesson plans, more than the students themselves.",
	}

	// Act
	result, err := env.handler.Handle(ctx, cmd)

	// Assert: the transcript edit sticks even though memory diverged
	assert.NoError(t, err)
	assert.True(t, result.Updated)
	assert.False(t, result.MemorySynced)
	assert.Equal(t, cmd.NewAnswer, answerMsg.Content())
}

func TestEditAnswerHandler_Handle_SaveFailureLeavesMemoryUntouched(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newEditTestEnv()

	conv := fixtures.NewConversationBuilder().
		WithTurn("What problem does your product solve?", "It tracks home energy usage in real time.").
		WithoutPendingQuestion().
		MustBuild()
	sessionID := conv.ID()
	answerMsg := conv.Messages()[1]

	env.convRepo.On("GetByID", ctx, sessionID).Return(conv, nil)
	env.uow.On("Begin", ctx).Return(nil)
	env.uow.On("Rollback").Return(nil)
	env.txConvs.On("Save", ctx, mock.AnythingOfType("*aggregates.Conversation")).
		Return(errors.New("disk full"))

	cmd := commands.EditAnswerCommand{
		SessionID: sessionID.String(),
		MessageID: answerMsg.ID().String(),
		NewAnswer: "It tracks and optimizes home energy usage in real time.",
	}

	// Act
	result, err := env.handler.Handle(ctx, cmd)

	// Assert: memory follows the transcript, so an uncommitted edit
	// must not touch the recall store
	assert.Nil(t, result)
	assert.Error(t, err)
	env.uow.AssertNotCalled(t, "Commit", mock.Anything)
	env.index.AssertNotCalled(t, "FindLiveByQuestion", mock.Anything, mock.Anything, mock.Anything)
}

func TestEditAnswerHandler_Handle_EditAllowedAfterCompletion(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newEditTestEnv()

	conv := fixtures.NewConversationBuilder().Completed().MustBuild()
	sessionID := conv.ID()
	answerMsg := conv.Messages()[1]
	assert.True(t, answerMsg.Role().IsAnswer())
	originalQuestion := conv.Messages()[0].Content()

	env.convRepo.On("GetByID", ctx, sessionID).Return(conv, nil)
	env.happyTx(ctx)
	env.publisher.On("PublishBatch", ctx, mock.AnythingOfType("[]events.DomainEvent")).Return(nil)
	env.cache.On("DeletePrefix", ctx, sessionID.String()).Return(nil)
	env.index.On("FindLiveByQuestion", ctx, sessionID, originalQuestion).
		Return(nil, pkgerrors.ErrChunkNotFound)

	cmd := commands.EditAnswerCommand{
		SessionID: sessionID.String(),
		MessageID: answerMsg.ID().String(),
		NewAnswer: "A refined answer written after the interview finished.",
	}

	// Act
	result, err := env.handler.Handle(ctx, cmd)

	// Assert: completion blocks new turns, not corrections
	assert.NoError(t, err)
	assert.True(t, result.Updated)
	assert.True(t, conv.IsComplete())
}
