package aggregates

import (
	"time"

	"ideaforge/domain/core/entities"
	"ideaforge/domain/core/valueobjects"
	"ideaforge/domain/events"
	pkgerrors "ideaforge/pkg/errors"
)

// Conversation is the aggregate root for one interview session. It owns
// the ordered transcript, the current category, and the skip ledger, and
// it is the only place transcript state changes.
type Conversation struct {
	id          valueobjects.SessionID
	category    valueobjects.Category
	messages    []*entities.Message
	skippedIDs  []valueobjects.MessageID
	answerCount int
	createdAt   time.Time
	updatedAt   time.Time
	completedAt *time.Time
	version     int
	baseVersion int
	events      []events.DomainEvent
}

// NewConversation starts a fresh interview session in the Start category
func NewConversation() (*Conversation, error) {
	now := time.Now()
	conv := &Conversation{
		id:         valueobjects.NewSessionID(),
		category:   valueobjects.CategoryStart,
		messages:   []*entities.Message{},
		skippedIDs: []valueobjects.MessageID{},
		createdAt:  now,
		updatedAt:  now,
		version:    1,
		events:     []events.DomainEvent{},
	}

	conv.addEvent(events.NewSessionStarted(conv.id, conv.category, now))

	return conv, nil
}

// ReconstructConversation recreates a conversation from stored data
func ReconstructConversation(
	id valueobjects.SessionID,
	category valueobjects.Category,
	messages []*entities.Message,
	skippedIDs []valueobjects.MessageID,
	createdAt, updatedAt time.Time,
	completedAt *time.Time,
	version int,
) (*Conversation, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("session ID required for reconstruction")
	}
	if !category.IsValid() {
		return nil, pkgerrors.ErrInvalidCategory
	}

	answerCount := 0
	for _, m := range messages {
		if m.Role().IsAnswer() {
			answerCount++
		}
	}

	return &Conversation{
		id:          id,
		category:    category,
		messages:    messages,
		skippedIDs:  skippedIDs,
		answerCount: answerCount,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
		completedAt: completedAt,
		version:     version,
		baseVersion: version,
		events:      []events.DomainEvent{},
	}, nil
}

// ID returns the session's unique identifier
func (c *Conversation) ID() valueobjects.SessionID {
	return c.id
}

// Category returns the current interview stage
func (c *Conversation) Category() valueobjects.Category {
	return c.category
}

// IsComplete reports whether the session reached the terminal state
func (c *Conversation) IsComplete() bool {
	return c.category.IsTerminal()
}

// Messages returns the transcript in order
func (c *Conversation) Messages() []*entities.Message {
	// Return a copy to maintain encapsulation
	msgs := make([]*entities.Message, len(c.messages))
	copy(msgs, c.messages)
	return msgs
}

// MessageCount returns the transcript length
func (c *Conversation) MessageCount() int {
	return len(c.messages)
}

// AnswerCount returns how many answers have been recorded
func (c *Conversation) AnswerCount() int {
	return c.answerCount
}

// SkippedQuestionIDs returns the IDs of skipped questions in skip order
func (c *Conversation) SkippedQuestionIDs() []valueobjects.MessageID {
	ids := make([]valueobjects.MessageID, len(c.skippedIDs))
	copy(ids, c.skippedIDs)
	return ids
}

// Version returns the aggregate version for optimistic locking
func (c *Conversation) Version() int {
	return c.version
}

// BaseVersion returns the version the conversation was loaded at. Zero
// means the aggregate has never been persisted. Repositories compare
// the stored row against this when saving.
func (c *Conversation) BaseVersion() int {
	return c.baseVersion
}

// MarkSaved records a successful write so that a later save in the same
// request compares against the version just stored.
func (c *Conversation) MarkSaved() {
	c.baseVersion = c.version
}

// CreatedAt returns when the session was created
func (c *Conversation) CreatedAt() time.Time {
	return c.createdAt
}

// UpdatedAt returns when the session was last updated
func (c *Conversation) UpdatedAt() time.Time {
	return c.updatedAt
}

// CompletedAt returns when the session completed, nil while in progress
func (c *Conversation) CompletedAt() *time.Time {
	return c.completedAt
}

// CurrentQuestion returns the most recent interviewer question
func (c *Conversation) CurrentQuestion() (*entities.Message, bool) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role().IsQuestion() {
			return c.messages[i], true
		}
	}
	return nil, false
}

// LastAnswer returns the most recent interviewee answer
func (c *Conversation) LastAnswer() (*entities.Message, bool) {
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role().IsAnswer() {
			return c.messages[i], true
		}
	}
	return nil, false
}

// FindMessage retrieves a transcript entry by ID
func (c *Conversation) FindMessage(id valueobjects.MessageID) (*entities.Message, bool) {
	for _, m := range c.messages {
		if m.ID().Equals(id) {
			return m, true
		}
	}
	return nil, false
}

// PrecedingQuestion returns the nearest question before the given
// message. The memory store pairs an edited answer with this question.
func (c *Conversation) PrecedingQuestion(id valueobjects.MessageID) (*entities.Message, bool) {
	idx := -1
	for i, m := range c.messages {
		if m.ID().Equals(id) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false
	}

	for i := idx - 1; i >= 0; i-- {
		if c.messages[i].Role().IsQuestion() {
			return c.messages[i], true
		}
	}
	return nil, false
}

// CountQuestionsInCategory counts interviewer questions asked in a
// stage. Template rotation keys off this count.
func (c *Conversation) CountQuestionsInCategory(category valueobjects.Category) int {
	count := 0
	for _, m := range c.messages {
		if m.Role().IsQuestion() && m.Category() == category {
			count++
		}
	}
	return count
}

// CountFollowupsInCategory counts follow-up questions asked in a stage
func (c *Conversation) CountFollowupsInCategory(category valueobjects.Category) int {
	count := 0
	for _, m := range c.messages {
		if m.Role().IsQuestion() && m.IsFollowup() && m.Category() == category {
			count++
		}
	}
	return count
}

// CategoryCoverage returns the number of questions asked per stage
func (c *Conversation) CategoryCoverage() map[valueobjects.Category]int {
	coverage := make(map[valueobjects.Category]int)
	for _, m := range c.messages {
		if m.Role().IsQuestion() {
			coverage[m.Category()]++
		}
	}
	return coverage
}

// AppendQuestion adds an interviewer question to the transcript
func (c *Conversation) AppendQuestion(question valueobjects.Question, isFollowup, fallback, previousSkipped bool) (*entities.Message, error) {
	if c.IsComplete() {
		return nil, pkgerrors.ErrSessionComplete
	}

	msg, err := entities.NewQuestionMessage(c.id, question, c.category, isFollowup)
	if err != nil {
		return nil, err
	}
	if fallback {
		msg.MarkFallback()
	}
	if previousSkipped {
		msg.MarkPreviousSkipped()
	}

	c.messages = append(c.messages, msg)
	c.touch()

	c.addEvent(events.NewQuestionAsked(c.id, msg.ID(), c.category, isFollowup, fallback, c.updatedAt))

	return msg, nil
}

// RecordAnswer adds an interviewee answer to the transcript. The answer
// is attributed to the current question when one exists.
func (c *Conversation) RecordAnswer(answer valueobjects.Answer) (*entities.Message, error) {
	if c.IsComplete() {
		return nil, pkgerrors.ErrSessionComplete
	}

	msg, err := entities.NewAnswerMessage(c.id, answer, c.category)
	if err != nil {
		return nil, err
	}

	var questionID valueobjects.MessageID
	if q, ok := c.CurrentQuestion(); ok {
		questionID = q.ID()
	}

	c.messages = append(c.messages, msg)
	c.answerCount++
	c.touch()

	c.addEvent(events.NewAnswerRecorded(c.id, msg.ID(), questionID, c.category, answer.WordCount(), c.updatedAt))

	return msg, nil
}

// Advance moves the session to the next stage and returns it. Advancing
// a complete session is a no-op that reports Complete again.
func (c *Conversation) Advance() valueobjects.Category {
	if c.IsComplete() {
		return c.category
	}

	from := c.category
	c.category = c.category.Next()
	c.touch()

	if c.category.IsTerminal() {
		now := c.updatedAt
		c.completedAt = &now
		c.addEvent(events.NewSessionCompleted(c.id, c.answerCount, now))
	} else {
		c.addEvent(events.NewCategoryAdvanced(c.id, from, c.category, c.updatedAt))
	}

	return c.category
}

// SkipCurrentQuestion records the pending question as skipped and
// advances to the next stage. The returned ID is zero when no question
// was awaiting an answer.
func (c *Conversation) SkipCurrentQuestion() (valueobjects.MessageID, valueobjects.Category, error) {
	if c.IsComplete() {
		return valueobjects.MessageID{}, c.category, pkgerrors.ErrSessionComplete
	}

	var questionID valueobjects.MessageID
	if q, ok := c.CurrentQuestion(); ok {
		questionID = q.ID()
		c.skippedIDs = append(c.skippedIDs, questionID)
		c.addEvent(events.NewQuestionSkipped(c.id, questionID, c.category, time.Now()))
	}

	next := c.Advance()
	return questionID, next, nil
}

// EditAnswer overwrites an earlier answer in place. Later questions are
// not regenerated; only the stored text and the edited flags change.
func (c *Conversation) EditAnswer(messageID valueobjects.MessageID, answer valueobjects.Answer) (*entities.Message, error) {
	msg, ok := c.FindMessage(messageID)
	if !ok {
		return nil, pkgerrors.ErrMessageNotFound
	}

	if err := msg.Edit(answer); err != nil {
		return nil, err
	}

	c.touch()
	c.addEvent(events.NewAnswerEdited(c.id, messageID, c.updatedAt))

	return msg, nil
}

// Validate ensures aggregate invariants
func (c *Conversation) Validate() error {
	if !c.category.IsValid() {
		return pkgerrors.ErrInvalidCategory
	}

	answers := 0
	for _, m := range c.messages {
		if !m.SessionID().Equals(c.id) {
			return pkgerrors.NewValidationError("message belongs to another session")
		}
		if m.Role().IsAnswer() {
			answers++
		}
	}
	if answers != c.answerCount {
		return pkgerrors.NewValidationError("answer count mismatch")
	}

	if c.IsComplete() && c.completedAt == nil {
		return pkgerrors.NewValidationError("complete session missing completion time")
	}

	return nil
}

// GetUncommittedEvents returns all uncommitted domain events
func (c *Conversation) GetUncommittedEvents() []events.DomainEvent {
	all := make([]events.DomainEvent, len(c.events))
	copy(all, c.events)
	return all
}

// MarkEventsAsCommitted clears all uncommitted events
func (c *Conversation) MarkEventsAsCommitted() {
	c.events = []events.DomainEvent{}
}

func (c *Conversation) addEvent(event events.DomainEvent) {
	c.events = append(c.events, event)
}

func (c *Conversation) touch() {
	c.updatedAt = time.Now()
	c.version++
}
