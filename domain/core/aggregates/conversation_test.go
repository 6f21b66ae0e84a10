package aggregates

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideaforge/domain/core/valueobjects"
	"ideaforge/domain/events"
	pkgerrors "ideaforge/pkg/errors"
)

func mustQuestion(t *testing.T, text string) valueobjects.Question {
	t.Helper()
	q, err := valueobjects.NewQuestion(text)
	require.NoError(t, err)
	return q
}

func mustAnswer(t *testing.T, text string) valueobjects.Answer {
	t.Helper()
	a, err := valueobjects.NewAnswer(text)
	require.NoError(t, err)
	return a
}

func TestNewConversation(t *testing.T) {
	conv, err := NewConversation()
	require.NoError(t, err)
	require.NotNil(t, conv)

	assert.False(t, conv.ID().IsZero())
	assert.Equal(t, valueobjects.CategoryStart, conv.Category())
	assert.False(t, conv.IsComplete())
	assert.Equal(t, 0, conv.MessageCount())
	assert.Equal(t, 1, conv.Version())
	assert.Nil(t, conv.CompletedAt())

	uncommitted := conv.GetUncommittedEvents()
	require.Len(t, uncommitted, 1)
	assert.Equal(t, "session.started", uncommitted[0].GetEventType())
}

func TestConversation_AppendQuestionAndRecordAnswer(t *testing.T) {
	conv, _ := NewConversation()
	conv.MarkEventsAsCommitted()

	q, err := conv.AppendQuestion(mustQuestion(t, "What problem does your product solve?"), false, false, false)
	require.NoError(t, err)
	assert.Equal(t, valueobjects.CategoryStart, q.Category())
	assert.True(t, q.Role().IsQuestion())

	a, err := conv.RecordAnswer(mustAnswer(t, "It removes timezone pain from scheduling meetings across offices."))
	require.NoError(t, err)
	assert.True(t, a.Role().IsAnswer())
	assert.Equal(t, 1, conv.AnswerCount())
	assert.Equal(t, 2, conv.MessageCount())

	uncommitted := conv.GetUncommittedEvents()
	require.Len(t, uncommitted, 2)
	assert.Equal(t, "session.question_asked", uncommitted[0].GetEventType())
	assert.Equal(t, "session.answer_recorded", uncommitted[1].GetEventType())

	recorded, ok := uncommitted[1].(events.AnswerRecorded)
	require.True(t, ok)
	assert.True(t, recorded.QuestionID.Equals(q.ID()))
}

func TestConversation_CurrentQuestion(t *testing.T) {
	conv, _ := NewConversation()

	_, ok := conv.CurrentQuestion()
	assert.False(t, ok)

	first, _ := conv.AppendQuestion(mustQuestion(t, "First question?"), false, false, false)
	got, ok := conv.CurrentQuestion()
	require.True(t, ok)
	assert.True(t, got.ID().Equals(first.ID()))

	conv.RecordAnswer(mustAnswer(t, "A long enough answer about the product idea and its users."))
	second, _ := conv.AppendQuestion(mustQuestion(t, "Second question?"), false, false, false)

	got, ok = conv.CurrentQuestion()
	require.True(t, ok)
	assert.True(t, got.ID().Equals(second.ID()))
}

func TestConversation_AdvanceWalksToComplete(t *testing.T) {
	conv, _ := NewConversation()
	conv.MarkEventsAsCommitted()

	seen := []valueobjects.Category{}
	for !conv.IsComplete() {
		seen = append(seen, conv.Advance())
	}

	assert.Equal(t, valueobjects.CategoryComplete, conv.Category())
	assert.Len(t, seen, len(valueobjects.AllCategories())-1)
	require.NotNil(t, conv.CompletedAt())

	// Advancing again stays terminal and emits nothing new.
	before := len(conv.GetUncommittedEvents())
	assert.Equal(t, valueobjects.CategoryComplete, conv.Advance())
	assert.Len(t, conv.GetUncommittedEvents(), before)

	// The final transition emits session.completed instead of a
	// category advance.
	uncommitted := conv.GetUncommittedEvents()
	last := uncommitted[len(uncommitted)-1]
	assert.Equal(t, "session.completed", last.GetEventType())
}

func TestConversation_RecordAnswerAfterComplete(t *testing.T) {
	conv, _ := NewConversation()
	for !conv.IsComplete() {
		conv.Advance()
	}

	_, err := conv.RecordAnswer(mustAnswer(t, "too late"))
	assert.True(t, errors.Is(err, pkgerrors.ErrSessionComplete))

	_, err = conv.AppendQuestion(mustQuestion(t, "One more?"), false, false, false)
	assert.True(t, errors.Is(err, pkgerrors.ErrSessionComplete))
}

func TestConversation_SkipCurrentQuestion(t *testing.T) {
	conv, _ := NewConversation()
	q, _ := conv.AppendQuestion(mustQuestion(t, "What problem does your product solve?"), false, false, false)
	conv.MarkEventsAsCommitted()

	skippedID, next, err := conv.SkipCurrentQuestion()
	require.NoError(t, err)

	assert.True(t, skippedID.Equals(q.ID()))
	assert.Equal(t, valueobjects.CategoryFunctionality, next)
	require.Len(t, conv.SkippedQuestionIDs(), 1)
	assert.True(t, conv.SkippedQuestionIDs()[0].Equals(q.ID()))

	types := []string{}
	for _, e := range conv.GetUncommittedEvents() {
		types = append(types, e.GetEventType())
	}
	assert.Equal(t, []string{"session.question_skipped", "session.category_advanced"}, types)
}

func TestConversation_SkipWithoutPendingQuestion(t *testing.T) {
	conv, _ := NewConversation()

	skippedID, next, err := conv.SkipCurrentQuestion()
	require.NoError(t, err)

	assert.True(t, skippedID.IsZero())
	assert.Equal(t, valueobjects.CategoryFunctionality, next)
	assert.Empty(t, conv.SkippedQuestionIDs())
}

func TestConversation_SkipAtReviewCompletes(t *testing.T) {
	conv, _ := NewConversation()
	for conv.Category() != valueobjects.CategoryReview {
		conv.Advance()
	}
	conv.AppendQuestion(mustQuestion(t, "Anything we missed?"), false, false, false)

	_, next, err := conv.SkipCurrentQuestion()
	require.NoError(t, err)
	assert.Equal(t, valueobjects.CategoryComplete, next)
	assert.True(t, conv.IsComplete())

	// Skip on a finished session is rejected.
	_, _, err = conv.SkipCurrentQuestion()
	assert.True(t, errors.Is(err, pkgerrors.ErrSessionComplete))
}

func TestConversation_EditAnswer(t *testing.T) {
	conv, _ := NewConversation()
	conv.AppendQuestion(mustQuestion(t, "Who are your users?"), false, false, false)
	answer, _ := conv.RecordAnswer(mustAnswer(t, "Mostly students I think, maybe teachers as well."))
	conv.MarkEventsAsCommitted()

	edited, err := conv.EditAnswer(answer.ID(), mustAnswer(t, "University students aged 18 to 25 and their teaching assistants."))
	require.NoError(t, err)

	assert.Equal(t, "University students aged 18 to 25 and their teaching assistants.", edited.Content())
	assert.True(t, edited.IsEdited())
	require.NotNil(t, edited.EditedAt())

	uncommitted := conv.GetUncommittedEvents()
	require.Len(t, uncommitted, 1)
	assert.Equal(t, "session.answer_edited", uncommitted[0].GetEventType())
}

func TestConversation_EditAnswer_Missing(t *testing.T) {
	conv, _ := NewConversation()

	_, err := conv.EditAnswer(valueobjects.NewMessageID(), mustAnswer(t, "does not matter here."))
	assert.True(t, errors.Is(err, pkgerrors.ErrMessageNotFound))
}

func TestConversation_EditAnswer_QuestionRejected(t *testing.T) {
	conv, _ := NewConversation()
	q, _ := conv.AppendQuestion(mustQuestion(t, "Who are your users?"), false, false, false)

	_, err := conv.EditAnswer(q.ID(), mustAnswer(t, "Trying to rewrite the interviewer."))
	assert.True(t, errors.Is(err, pkgerrors.ErrMessageNotEditable))
}

func TestConversation_PrecedingQuestion(t *testing.T) {
	conv, _ := NewConversation()
	q1, _ := conv.AppendQuestion(mustQuestion(t, "First question?"), false, false, false)
	a1, _ := conv.RecordAnswer(mustAnswer(t, "An answer that is comfortably longer than ten words total here."))
	conv.Advance()
	q2, _ := conv.AppendQuestion(mustQuestion(t, "Second question?"), false, false, false)
	a2, _ := conv.RecordAnswer(mustAnswer(t, "Another answer that is comfortably longer than ten words total here."))

	got, ok := conv.PrecedingQuestion(a1.ID())
	require.True(t, ok)
	assert.True(t, got.ID().Equals(q1.ID()))

	got, ok = conv.PrecedingQuestion(a2.ID())
	require.True(t, ok)
	assert.True(t, got.ID().Equals(q2.ID()))

	_, ok = conv.PrecedingQuestion(valueobjects.NewMessageID())
	assert.False(t, ok)
}

func TestConversation_CountQuestionsInCategory(t *testing.T) {
	conv, _ := NewConversation()
	conv.AppendQuestion(mustQuestion(t, "Opening question?"), false, false, false)
	conv.Advance()
	conv.AppendQuestion(mustQuestion(t, "Feature question?"), false, false, false)
	conv.AppendQuestion(mustQuestion(t, "Feature follow-up?"), true, false, false)

	assert.Equal(t, 1, conv.CountQuestionsInCategory(valueobjects.CategoryStart))
	assert.Equal(t, 2, conv.CountQuestionsInCategory(valueobjects.CategoryFunctionality))
	assert.Equal(t, 1, conv.CountFollowupsInCategory(valueobjects.CategoryFunctionality))
	assert.Equal(t, 0, conv.CountQuestionsInCategory(valueobjects.CategoryUsers))

	coverage := conv.CategoryCoverage()
	assert.Equal(t, 1, coverage[valueobjects.CategoryStart])
	assert.Equal(t, 2, coverage[valueobjects.CategoryFunctionality])
}

func TestConversation_ReconstructRecomputesAnswerCount(t *testing.T) {
	conv, _ := NewConversation()
	conv.AppendQuestion(mustQuestion(t, "Opening question?"), false, false, false)
	conv.RecordAnswer(mustAnswer(t, "A sufficiently descriptive answer about the product under discussion."))

	restored, err := ReconstructConversation(
		conv.ID(),
		conv.Category(),
		conv.Messages(),
		conv.SkippedQuestionIDs(),
		conv.CreatedAt(),
		conv.UpdatedAt(),
		nil,
		conv.Version(),
	)
	require.NoError(t, err)

	assert.Equal(t, 1, restored.AnswerCount())
	assert.Equal(t, conv.MessageCount(), restored.MessageCount())
	assert.Empty(t, restored.GetUncommittedEvents())
	assert.NoError(t, restored.Validate())
}

func TestConversation_VersionBumpsOnMutation(t *testing.T) {
	conv, _ := NewConversation()
	v := conv.Version()

	conv.AppendQuestion(mustQuestion(t, "Opening question?"), false, false, false)
	assert.Equal(t, v+1, conv.Version())

	conv.RecordAnswer(mustAnswer(t, "A sufficiently descriptive answer about the product under discussion."))
	assert.Equal(t, v+2, conv.Version())

	conv.Advance()
	assert.Equal(t, v+3, conv.Version())
}

func TestConversation_BaseVersionTracksSaves(t *testing.T) {
	conv, _ := NewConversation()
	assert.Equal(t, 0, conv.BaseVersion(), "fresh aggregate has never been persisted")

	conv.MarkSaved()
	assert.Equal(t, conv.Version(), conv.BaseVersion())

	conv.AppendQuestion(mustQuestion(t, "Opening question?"), false, false, false)
	assert.Greater(t, conv.Version(), conv.BaseVersion())

	restored, err := ReconstructConversation(
		conv.ID(),
		conv.Category(),
		conv.Messages(),
		conv.SkippedQuestionIDs(),
		conv.CreatedAt(),
		conv.UpdatedAt(),
		nil,
		conv.Version(),
	)
	require.NoError(t, err)
	assert.Equal(t, restored.Version(), restored.BaseVersion())
}
