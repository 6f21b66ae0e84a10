package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ideaforge/application/commands"
	"ideaforge/application/commands/bus"
	"ideaforge/application/ports"
	"ideaforge/application/queries"
	querybus "ideaforge/application/queries/bus"
	"ideaforge/application/services"
	domainconfig "ideaforge/domain/config"
	"ideaforge/domain/core/validators"
	"ideaforge/domain/core/valueobjects"
	domainevents "ideaforge/domain/events"
	"ideaforge/domain/versioning"
	"ideaforge/infrastructure/config"
	"ideaforge/infrastructure/di"
	"ideaforge/infrastructure/embedding"
	"ideaforge/infrastructure/messaging/localbus"
	memstore "ideaforge/infrastructure/persistence/memory"
	pkgerrors "ideaforge/pkg/errors"
	"ideaforge/pkg/locking"
	"ideaforge/pkg/observability"
	"ideaforge/pkg/tokens"
)

// scriptedBackend stands in for the OpenAI-compatible client. It can be
// switched into failure mode to exercise the template fallback path.
type scriptedBackend struct {
	mu    sync.Mutex
	fail  bool
	calls int
}

func (b *scriptedBackend) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.fail {
		return "", fmt.Errorf("backend unavailable")
	}
	return fmt.Sprintf("Scripted question %d about your idea?", b.calls), nil
}

func (b *scriptedBackend) IsAvailable() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.fail
}

func (b *scriptedBackend) setFail(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = fail
}

// staticCatalog is a fixed two-provider registry for query tests
type staticCatalog struct {
	mu     sync.Mutex
	active string
}

func (c *staticCatalog) List() []ports.ProviderInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return []ports.ProviderInfo{
		{Name: "openai", Model: "gpt-4o-mini", Active: c.active == "openai", Enabled: true},
		{Name: "local", Model: "llama3.1", Active: c.active == "local", Enabled: true},
	}
}

func (c *staticCatalog) Active() (ports.ProviderInfo, error) {
	for _, p := range c.List() {
		if p.Active {
			return p, nil
		}
	}
	return ports.ProviderInfo{}, fmt.Errorf("no active provider")
}

func (c *staticCatalog) Switch(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = name
	return nil
}

// harness wires the full application stack on in-memory adapters, the
// same way the container does in production.
type harness struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	backend    *scriptedBackend
	chunks     *memstore.ChunkIndex
	events     *memstore.EventStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewCollector("ideaforge")
	domainCfg := domainconfig.DefaultDomainConfig()

	conversations := memstore.NewConversationRepository()
	chunks := memstore.NewChunkIndex()
	snapshots := memstore.NewSnapshotStore()
	events := memstore.NewEventStore()
	uow := memstore.NewUnitOfWork(conversations, snapshots, events)

	backend := &scriptedBackend{}
	embedder := embedding.NewHashingEmbedder(64)
	counter := tokens.NewCounter()
	validator := validators.NewAnswerValidatorWithConfig(domainCfg)

	memory := services.NewMemoryService(chunks, embedder, counter, domainCfg, metrics, logger)
	questions := services.NewQuestionService(backend, validator, domainCfg, metrics, logger)
	snapshotSvc := versioning.NewSnapshotService(versioning.DefaultSnapshotPolicy())

	publisher := localbus.NewPublisher(logger)
	locks := locking.NewSessionLocks()
	cache := di.NewInMemoryCache()
	t.Cleanup(cache.Stop)

	commandBus, err := di.ProvideCommandBus(
		uow, conversations, snapshots, events, publisher, cache,
		memory, questions, snapshotSvc, locks, metrics, domainCfg, logger,
	)
	require.NoError(t, err)

	cfg := &config.Config{CacheTTL: time.Minute}
	queryBus, err := di.ProvideQueryBus(
		conversations, memory, snapshots, &staticCatalog{active: "openai"},
		cache, cfg, logger,
	)
	require.NoError(t, err)

	return &harness{
		commandBus: commandBus,
		queryBus:   queryBus,
		backend:    backend,
		chunks:     chunks,
		events:     events,
	}
}

func (h *harness) start(t *testing.T) *commands.StartInterviewResult {
	t.Helper()
	res, err := h.commandBus.Send(context.Background(), commands.StartInterviewCommand{})
	require.NoError(t, err)
	result, ok := res.(*commands.StartInterviewResult)
	require.True(t, ok, "unexpected result type %T", res)
	return result
}

func (h *harness) submit(t *testing.T, sessionID, answer string) *commands.TurnResult {
	t.Helper()
	res, err := h.commandBus.Send(context.Background(), commands.SubmitAnswerCommand{
		SessionID: sessionID,
		Answer:    answer,
	})
	require.NoError(t, err)
	result, ok := res.(*commands.TurnResult)
	require.True(t, ok, "unexpected result type %T", res)
	return result
}

func (h *harness) skip(t *testing.T, sessionID string) *commands.SkipResult {
	t.Helper()
	res, err := h.commandBus.Send(context.Background(), commands.SkipQuestionCommand{
		SessionID: sessionID,
	})
	require.NoError(t, err)
	result, ok := res.(*commands.SkipResult)
	require.True(t, ok, "unexpected result type %T", res)
	return result
}

func (h *harness) status(t *testing.T, sessionID string) *queries.GetStatusResult {
	t.Helper()
	res, err := h.queryBus.Ask(context.Background(), queries.GetStatusQuery{SessionID: sessionID})
	require.NoError(t, err)
	result, ok := res.(*queries.GetStatusResult)
	require.True(t, ok, "unexpected result type %T", res)
	return result
}

func (h *harness) history(t *testing.T, q queries.GetHistoryQuery) *queries.GetHistoryResult {
	t.Helper()
	res, err := h.queryBus.Ask(context.Background(), q)
	require.NoError(t, err)
	result, ok := res.(*queries.GetHistoryResult)
	require.True(t, ok, "unexpected result type %T", res)
	return result
}

// sufficientAnswers is one well-formed answer per interview stage, each
// clearing the ten-word sufficiency bar.
var sufficientAnswers = []string{
	"A meal planning app that builds weekly menus from whatever is already in your fridge.",
	"It scans receipts, tracks pantry stock and suggests recipes that use ingredients before they expire.",
	"Busy families and students who want to cook at home but never plan ahead properly.",
	"Mostly urban households between twenty five and forty with two incomes and little free time.",
	"A calm mobile-first interface with a weekly board you can rearrange by dragging meals around.",
	"Grocery budgets keep rising, so an app that cuts food waste saves real money monthly.",
	"A cross-platform mobile app backed by a small API and a barcode lookup service.",
	"The fridge-first planning angle matters most; everything else can be simplified for the first release.",
}

func TestInterviewFlow_RunsToCompletion(t *testing.T) {
	h := newHarness(t)

	started := h.start(t)
	_, err := uuid.Parse(started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "START", started.Category)
	assert.NotEmpty(t, started.Question.Text)
	assert.False(t, started.Question.IsFollowup)
	assert.False(t, started.Question.Fallback)

	var visited []string
	var final *commands.TurnResult
	for i, answer := range sufficientAnswers {
		result := h.submit(t, started.SessionID, answer)
		visited = append(visited, result.Category)
		if i < len(sufficientAnswers)-1 {
			require.NotNil(t, result.Question, "expected a question after answer %d", i+1)
			assert.False(t, result.Question.IsFollowup)
			assert.False(t, result.Complete)
		}
		final = result
	}

	assert.Equal(t, []string{
		"FUNCTIONALITY", "USERS", "DEMOGRAPHICS", "DESIGN",
		"MARKET", "TECHNICAL", "REVIEW", "COMPLETE",
	}, visited)
	require.True(t, final.Complete)
	assert.Nil(t, final.Question)

	// The terminal stage rejects further answers.
	_, err = h.commandBus.Send(context.Background(), commands.SubmitAnswerCommand{
		SessionID: started.SessionID,
		Answer:    "One more thought about the product that arrived far too late.",
	})
	require.ErrorIs(t, err, pkgerrors.ErrSessionComplete)

	st := h.status(t, started.SessionID)
	assert.Equal(t, "COMPLETE", st.State)
	assert.True(t, st.Complete)
	assert.Equal(t, len(sufficientAnswers), st.AnswerCount)
	assert.NotNil(t, st.CompletedAt)
	assert.Positive(t, st.MemoryChunks)

	// The event log brackets the session with its lifecycle events.
	evts, err := h.events.GetEvents(context.Background(), started.SessionID)
	require.NoError(t, err)
	seen := make(map[string]bool, len(evts))
	for _, e := range evts {
		seen[e.GetEventType()] = true
	}
	assert.True(t, seen[domainevents.TypeSessionStarted])
	assert.True(t, seen[domainevents.TypeAnswerRecorded])
	assert.True(t, seen[domainevents.TypeCategoryAdvanced])
	assert.True(t, seen[domainevents.TypeSessionCompleted])
}

func TestInterviewFlow_ShortAnswerGetsFollowup(t *testing.T) {
	h := newHarness(t)
	started := h.start(t)

	result := h.submit(t, started.SessionID, "Just a social app.")
	require.NotNil(t, result.Question)
	assert.True(t, result.Question.IsFollowup)
	assert.Equal(t, "START", result.Category, "a follow-up must not advance the stage")

	// A vague answer is probed too, regardless of length.
	result = h.submit(t, started.SessionID,
		"I am not sure yet, maybe something social, it could honestly be anything at this point.")
	require.NotNil(t, result.Question)
	assert.True(t, result.Question.IsFollowup)
	assert.Equal(t, "START", result.Category)

	// A substantial answer moves the interview on.
	result = h.submit(t, started.SessionID, sufficientAnswers[0])
	require.NotNil(t, result.Question)
	assert.False(t, result.Question.IsFollowup)
	assert.Equal(t, "FUNCTIONALITY", result.Category)
}

func TestInterviewFlow_ReviewStageNeverProbes(t *testing.T) {
	h := newHarness(t)
	started := h.start(t)

	for i := 0; i < 7; i++ {
		h.submit(t, started.SessionID, sufficientAnswers[i])
	}
	require.Equal(t, "REVIEW", h.status(t, started.SessionID).State)

	// Three words would trigger a follow-up anywhere else.
	result := h.submit(t, started.SessionID, "Ship it now.")
	assert.True(t, result.Complete)
	assert.Nil(t, result.Question)
}

func TestInterviewFlow_BackendFailureFallsBackToTemplates(t *testing.T) {
	h := newHarness(t)
	h.backend.setFail(true)

	// The opener is template-built, so a dead backend does not mark it
	// as a fallback.
	started := h.start(t)
	assert.False(t, started.Question.Fallback)

	var final *commands.TurnResult
	for i, answer := range sufficientAnswers {
		final = h.submit(t, started.SessionID, answer)
		if final.Question != nil {
			assert.True(t, final.Question.Fallback, "turn %d should have fallen back", i+1)
			assert.NotEmpty(t, final.Question.Text)
		}
	}
	assert.True(t, final.Complete, "the interview must finish with the backend down")
}

func TestInterviewFlow_SkipAdvancesWithFreshQuestion(t *testing.T) {
	h := newHarness(t)
	started := h.start(t)

	result := h.skip(t, started.SessionID)
	assert.Equal(t, started.Question.MessageID, result.SkippedMessageID)
	assert.Equal(t, "FUNCTIONALITY", result.Category)
	require.NotNil(t, result.Question)
	assert.False(t, result.Question.IsFollowup, "a skip must never produce a follow-up")

	// Skipping the rest walks every remaining stage without answers.
	var last *commands.SkipResult
	for i := 0; i < 7; i++ {
		last = h.skip(t, started.SessionID)
	}
	require.True(t, last.Complete)
	assert.Nil(t, last.Question)

	// Skipping a finished interview reports completion again.
	again := h.skip(t, started.SessionID)
	assert.True(t, again.Complete)
	assert.Empty(t, again.SkippedMessageID)

	st := h.status(t, started.SessionID)
	assert.True(t, st.Complete)
	assert.Zero(t, st.AnswerCount)
	assert.Len(t, st.SkippedQuestionIDs, 8)
}

func TestInterviewFlow_EditAnswerRewritesTranscriptAndMemory(t *testing.T) {
	h := newHarness(t)
	started := h.start(t)
	h.submit(t, started.SessionID, sufficientAnswers[0])

	hist := h.history(t, queries.GetHistoryQuery{SessionID: started.SessionID})
	var answerID string
	for _, msg := range hist.Messages {
		if msg.Role == "USER_ANSWER" {
			answerID = msg.ID
		}
	}
	require.NotEmpty(t, answerID)

	sid, err := valueobjects.NewSessionIDFromString(started.SessionID)
	require.NoError(t, err)
	liveBefore, err := h.chunks.CountLive(context.Background(), sid)
	require.NoError(t, err)

	res, err := h.commandBus.Send(context.Background(), commands.EditAnswerCommand{
		SessionID: started.SessionID,
		MessageID: answerID,
		NewAnswer: "Actually it plans meals for shared student flats, splitting cost and cooking duty fairly.",
	})
	require.NoError(t, err)
	edited, ok := res.(*commands.EditResult)
	require.True(t, ok)
	assert.True(t, edited.Updated)
	assert.True(t, edited.MemorySynced)

	// The rewrite retires the old chunk before inserting the new one,
	// so the live count does not grow.
	liveAfter, err := h.chunks.CountLive(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, liveBefore, liveAfter)

	hist = h.history(t, queries.GetHistoryQuery{SessionID: started.SessionID})
	found := false
	for _, msg := range hist.Messages {
		if msg.ID == answerID {
			found = true
			assert.True(t, msg.Edited)
			assert.NotNil(t, msg.EditedAt)
			assert.Contains(t, msg.Content, "student flats")
		}
	}
	require.True(t, found)

	// An unknown message is a soft miss, not an error.
	res, err = h.commandBus.Send(context.Background(), commands.EditAnswerCommand{
		SessionID: started.SessionID,
		MessageID: uuid.NewString(),
		NewAnswer: "This edit has nowhere to land but must not blow up the request.",
	})
	require.NoError(t, err)
	missed, ok := res.(*commands.EditResult)
	require.True(t, ok)
	assert.False(t, missed.Updated)
	assert.False(t, missed.MemorySynced)
}

func TestInterviewFlow_UnknownSessionIsNotFound(t *testing.T) {
	h := newHarness(t)
	ghost := uuid.NewString()

	_, err := h.commandBus.Send(context.Background(), commands.SubmitAnswerCommand{
		SessionID: ghost,
		Answer:    "An answer addressed to a session that was never started at all.",
	})
	require.ErrorIs(t, err, pkgerrors.ErrSessionNotFound)

	_, err = h.commandBus.Send(context.Background(), commands.SkipQuestionCommand{SessionID: ghost})
	require.ErrorIs(t, err, pkgerrors.ErrSessionNotFound)

	_, err = h.commandBus.Send(context.Background(), commands.EditAnswerCommand{
		SessionID: ghost,
		MessageID: uuid.NewString(),
		NewAnswer: "Editing inside a missing session is a hard failure, unlike a missing message.",
	})
	require.ErrorIs(t, err, pkgerrors.ErrSessionNotFound)

	_, err = h.queryBus.Ask(context.Background(), queries.GetStatusQuery{SessionID: ghost})
	require.ErrorIs(t, err, pkgerrors.ErrSessionNotFound)
}

func TestInterviewFlow_HistoryPagination(t *testing.T) {
	h := newHarness(t)
	started := h.start(t)
	for i := 0; i < 3; i++ {
		h.submit(t, started.SessionID, sufficientAnswers[i])
	}

	// 1 opener + 3 answers + 3 generated questions.
	full := h.history(t, queries.GetHistoryQuery{SessionID: started.SessionID})
	require.Len(t, full.Messages, 7)

	page := h.history(t, queries.GetHistoryQuery{
		SessionID: started.SessionID,
		Page:      2,
		PageSize:  3,
	})
	require.NotNil(t, page.Pagination)
	assert.Equal(t, 7, page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.Len(t, page.Messages, 3)
	assert.Equal(t, full.Messages[3].ID, page.Messages[0].ID)

	// Descending order reverses the transcript.
	desc := h.history(t, queries.GetHistoryQuery{
		SessionID: started.SessionID,
		Order:     "desc",
	})
	assert.Equal(t, full.Messages[len(full.Messages)-1].ID, desc.Messages[0].ID)
}

func TestInterviewFlow_SnapshotsAccumulate(t *testing.T) {
	h := newHarness(t)
	started := h.start(t)

	// The default policy snapshots every five answers.
	for i := 0; i < len(sufficientAnswers); i++ {
		h.submit(t, started.SessionID, sufficientAnswers[i])
	}

	st := h.status(t, started.SessionID)
	require.NotEmpty(t, st.Snapshots)
	assert.Equal(t, 5, st.Snapshots[0].AnswerCount)
}

func TestInterviewFlow_ProviderSwitchIsVisibleToQueries(t *testing.T) {
	h := newHarness(t)

	res, err := h.queryBus.Ask(context.Background(), queries.GetProvidersQuery{})
	require.NoError(t, err)
	listed, ok := res.(*queries.GetProvidersResult)
	require.True(t, ok)
	assert.Equal(t, "openai", listed.Active)
	assert.Len(t, listed.Providers, 2)
}
