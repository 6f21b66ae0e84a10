package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"ideaforge/application/commands"
	"ideaforge/application/ports"
	"ideaforge/application/services"
	"ideaforge/domain/config"
	"ideaforge/domain/core/validators"
	"ideaforge/domain/core/valueobjects"
	"ideaforge/pkg/locking"
	"ideaforge/pkg/observability"
	"ideaforge/tests/fixtures"
	"ideaforge/tests/mocks"
)

type skipTestEnv struct {
	uow       *mocks.MockUnitOfWork
	convRepo  *mocks.MockConversationRepository
	txConvs   *mocks.MockConversationRepository
	txEvents  *mocks.MockEventStore
	publisher *mocks.MockEventPublisher
	cache     *mocks.MockCache
	backend   *mocks.MockGenerationClient
	handler   *SkipQuestionHandler
}

func newSkipTestEnv() *skipTestEnv {
	env := &skipTestEnv{
		uow:       new(mocks.MockUnitOfWork),
		convRepo:  new(mocks.MockConversationRepository),
		txConvs:   new(mocks.MockConversationRepository),
		txEvents:  new(mocks.MockEventStore),
		publisher: new(mocks.MockEventPublisher),
		cache:     new(mocks.MockCache),
		backend:   new(mocks.MockGenerationClient),
	}
	env.uow.ConversationsRepo = env.txConvs
	env.uow.EventsRepo = env.txEvents

	cfg := config.DefaultDomainConfig()
	metrics := observability.NewCollector("test")
	questions := services.NewQuestionService(env.backend, validators.NewAnswerValidatorWithConfig(cfg), cfg, metrics, zap.NewNop())

	env.handler = NewSkipQuestionHandler(
		env.uow,
		env.convRepo,
		env.publisher,
		env.cache,
		questions,
		locking.NewSessionLocks(),
		metrics,
		zap.NewNop(),
	)
	return env
}

func (e *skipTestEnv) happyTx(ctx context.Context) {
	e.uow.On("Begin", ctx).Return(nil)
	e.uow.On("Commit", ctx).Return(nil)
	e.uow.On("Rollback").Return(nil)
	e.txConvs.On("Save", ctx, mock.AnythingOfType("*aggregates.Conversation")).Return(nil)
	e.txEvents.On("SaveEvents", ctx, mock.AnythingOfType("[]events.DomainEvent")).Return(nil)
}

func TestSkipQuestionHandler_Handle_SkipsAndAsksFreshQuestion(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newSkipTestEnv()

	conv := fixtures.NewConversationBuilder().MustBuild()
	sessionID := conv.ID()
	pending, ok := conv.CurrentQuestion()
	assert.True(t, ok)

	env.convRepo.On("GetByID", ctx, sessionID).Return(conv, nil)
	env.happyTx(ctx)
	env.publisher.On("PublishBatch", ctx, mock.AnythingOfType("[]events.DomainEvent")).Return(nil)
	env.cache.On("DeletePrefix", ctx, sessionID.String()).Return(nil)

	var captured ports.CompletionRequest
	env.backend.On("Complete", ctx, mock.AnythingOfType("ports.CompletionRequest")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(ports.CompletionRequest)
		}).
		Return("What should users see when they first open the app?", nil)

	// Act
	result, err := env.handler.Handle(ctx, commands.SkipQuestionCommand{SessionID: sessionID.String()})

	// Assert
	assert.NoError(t, err)
	assert.False(t, result.Complete)
	assert.Equal(t, pending.ID().String(), result.SkippedMessageID)
	assert.Equal(t, valueobjects.CategoryFunctionality.String(), result.Category)
	assert.NotNil(t, result.Question)
	assert.False(t, result.Question.IsFollowup)
	// The replacement never sees recall context for the skipped turn
	assert.NotContains(t, captured.Prompt, "Previous context:")

	// The new question remembers its predecessor was skipped
	msgs := conv.Messages()
	last := msgs[len(msgs)-1]
	assert.True(t, last.PreviousSkipped())
	assert.Contains(t, conv.SkippedQuestionIDs(), pending.ID())
}

func TestSkipQuestionHandler_Handle_CompleteSessionReportsComplete(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newSkipTestEnv()

	conv := fixtures.NewConversationBuilder().Completed().MustBuild()
	sessionID := conv.ID()

	env.convRepo.On("GetByID", ctx, sessionID).Return(conv, nil)

	// Act
	result, err := env.handler.Handle(ctx, commands.SkipQuestionCommand{SessionID: sessionID.String()})

	// Assert: skipping a finished interview is an idempotent completion
	// signal, not an error, and nothing is written
	assert.NoError(t, err)
	assert.True(t, result.Complete)
	assert.Equal(t, valueobjects.CategoryComplete.String(), result.Category)
	assert.Empty(t, result.SkippedMessageID)
	assert.Nil(t, result.Question)
	env.uow.AssertNotCalled(t, "Begin", mock.Anything)
	env.publisher.AssertNotCalled(t, "PublishBatch", mock.Anything, mock.Anything)
}

func TestSkipQuestionHandler_Handle_SkippingReviewCompletes(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newSkipTestEnv()

	conv := fixtures.NewConversationBuilder().
		WithAnsweredTurns(7).
		WithPendingQuestion("Is there anything important we haven't covered yet?").
		MustBuild()
	sessionID := conv.ID()
	assert.Equal(t, valueobjects.CategoryReview, conv.Category())

	env.convRepo.On("GetByID", ctx, sessionID).Return(conv, nil)
	env.happyTx(ctx)
	env.publisher.On("PublishBatch", ctx, mock.AnythingOfType("[]events.DomainEvent")).Return(nil)
	env.cache.On("DeletePrefix", ctx, sessionID.String()).Return(nil)

	// Act
	result, err := env.handler.Handle(ctx, commands.SkipQuestionCommand{SessionID: sessionID.String()})

	// Assert: skipping the final stage finishes the interview
	assert.NoError(t, err)
	assert.True(t, result.Complete)
	assert.NotEmpty(t, result.SkippedMessageID)
	assert.Nil(t, result.Question)
	assert.True(t, conv.IsComplete())
	env.backend.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestSkipQuestionHandler_Handle_NoPendingQuestionStillAdvances(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newSkipTestEnv()

	conv := fixtures.NewConversationBuilder().WithoutPendingQuestion().MustBuild()
	sessionID := conv.ID()

	env.convRepo.On("GetByID", ctx, sessionID).Return(conv, nil)
	env.happyTx(ctx)
	env.publisher.On("PublishBatch", ctx, mock.AnythingOfType("[]events.DomainEvent")).Return(nil)
	env.cache.On("DeletePrefix", ctx, sessionID.String()).Return(nil)
	env.backend.On("Complete", ctx, mock.AnythingOfType("ports.CompletionRequest")).
		Return("What can users do with the product on day one?", nil)

	// Act
	result, err := env.handler.Handle(ctx, commands.SkipQuestionCommand{SessionID: sessionID.String()})

	// Assert: nothing to record as skipped, but the stage still moves
	assert.NoError(t, err)
	assert.Empty(t, result.SkippedMessageID)
	assert.Equal(t, valueobjects.CategoryFunctionality.String(), result.Category)
	assert.NotNil(t, result.Question)
	assert.Empty(t, conv.SkippedQuestionIDs())
}

func TestSkipQuestionHandler_Handle_BackendFailureFallsBack(t *testing.T) {
	// Arrange
	ctx := context.Background()
	env := newSkipTestEnv()

	conv := fixtures.NewConversationBuilder().MustBuild()
	sessionID := conv.ID()

	env.convRepo.On("GetByID", ctx, sessionID).Return(conv, nil)
	env.happyTx(ctx)
	env.publisher.On("PublishBatch", ctx, mock.AnythingOfType("[]events.DomainEvent")).Return(nil)
	env.cache.On("DeletePrefix", ctx, sessionID.String()).Return(nil)
	env.backend.On("Complete", ctx, mock.AnythingOfType("ports.CompletionRequest")).
		Return("", errors.New("backend timeout"))

	// Act
	result, err := env.handler.Handle(ctx, commands.SkipQuestionCommand{SessionID: sessionID.String()})

	// Assert
	assert.NoError(t, err)
	assert.NotNil(t, result.Question)
	assert.True(t, result.Question.Fallback)
	assert.Equal(t, "What are the main features users will interact with?", result.Question.Text)
}
