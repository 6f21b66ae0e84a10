package entities

import (
	"time"

	"ideaforge/domain/core/valueobjects"
	pkgerrors "ideaforge/pkg/errors"
)

// Message is one transcript entry: either an interviewer question or an
// interviewee answer. Messages belong to the Conversation aggregate and
// are mutated only through it.
type Message struct {
	id              valueobjects.MessageID
	sessionID       valueobjects.SessionID
	role            valueobjects.Role
	content         string
	category        valueobjects.Category
	isFollowup      bool
	fallback        bool
	previousSkipped bool
	edited          bool
	editedAt        *time.Time
	createdAt       time.Time
}

// NewQuestionMessage creates a transcript entry for an interviewer question
func NewQuestionMessage(sessionID valueobjects.SessionID, question valueobjects.Question, category valueobjects.Category, isFollowup bool) (*Message, error) {
	if sessionID.IsZero() {
		return nil, pkgerrors.NewValidationError("sessionID cannot be empty")
	}
	if question.IsEmpty() {
		return nil, pkgerrors.NewValidationError("question cannot be empty")
	}
	if !category.IsValid() {
		return nil, pkgerrors.ErrInvalidCategory
	}

	return &Message{
		id:         valueobjects.NewMessageID(),
		sessionID:  sessionID,
		role:       valueobjects.RoleSystemQuestion,
		content:    question.Text(),
		category:   category,
		isFollowup: isFollowup,
		createdAt:  time.Now(),
	}, nil
}

// NewAnswerMessage creates a transcript entry for an interviewee answer
func NewAnswerMessage(sessionID valueobjects.SessionID, answer valueobjects.Answer, category valueobjects.Category) (*Message, error) {
	if sessionID.IsZero() {
		return nil, pkgerrors.NewValidationError("sessionID cannot be empty")
	}
	if answer.IsEmpty() {
		return nil, pkgerrors.ErrAnswerEmpty
	}
	if !category.IsValid() {
		return nil, pkgerrors.ErrInvalidCategory
	}

	return &Message{
		id:        valueobjects.NewMessageID(),
		sessionID: sessionID,
		role:      valueobjects.RoleUserAnswer,
		content:   answer.Text(),
		category:  category,
		createdAt: time.Now(),
	}, nil
}

// ReconstructMessage reconstructs a message from repository data with
// preserved timestamps and flags
func ReconstructMessage(
	id valueobjects.MessageID,
	sessionID valueobjects.SessionID,
	role valueobjects.Role,
	content string,
	category valueobjects.Category,
	isFollowup, fallback, previousSkipped, edited bool,
	editedAt *time.Time,
	createdAt time.Time,
) (*Message, error) {
	if !role.IsValid() {
		return nil, pkgerrors.ErrInvalidRole
	}
	if !category.IsValid() {
		return nil, pkgerrors.ErrInvalidCategory
	}

	return &Message{
		id:              id,
		sessionID:       sessionID,
		role:            role,
		content:         content,
		category:        category,
		isFollowup:      isFollowup,
		fallback:        fallback,
		previousSkipped: previousSkipped,
		edited:          edited,
		editedAt:        editedAt,
		createdAt:       createdAt,
	}, nil
}

// ID returns the message's unique identifier
func (m *Message) ID() valueobjects.MessageID {
	return m.id
}

// SessionID returns the session this message belongs to
func (m *Message) SessionID() valueobjects.SessionID {
	return m.sessionID
}

// Role returns who authored the message
func (m *Message) Role() valueobjects.Role {
	return m.role
}

// Content returns the message text
func (m *Message) Content() string {
	return m.content
}

// Category returns the interview stage the message was created in
func (m *Message) Category() valueobjects.Category {
	return m.category
}

// IsFollowup reports whether a question probes the previous answer
func (m *Message) IsFollowup() bool {
	return m.isFollowup
}

// IsFallback reports whether a question came from the template bank
func (m *Message) IsFallback() bool {
	return m.fallback
}

// PreviousSkipped reports whether the question before this one was skipped
func (m *Message) PreviousSkipped() bool {
	return m.previousSkipped
}

// IsEdited reports whether the answer was overwritten after submission
func (m *Message) IsEdited() bool {
	return m.edited
}

// EditedAt returns when the answer was last edited, nil if never
func (m *Message) EditedAt() *time.Time {
	return m.editedAt
}

// CreatedAt returns when the message was created
func (m *Message) CreatedAt() time.Time {
	return m.createdAt
}

// IsSkipped reports whether this entry is the skip placeholder answer.
func (m *Message) IsSkipped() bool {
	return m.role.IsAnswer() && m.content == valueobjects.SkippedAnswerText
}

// MarkFallback records that the question text came from a template.
func (m *Message) MarkFallback() {
	m.fallback = true
}

// MarkPreviousSkipped records that the preceding question was skipped.
func (m *Message) MarkPreviousSkipped() {
	m.previousSkipped = true
}

// Edit overwrites an answer's content in place. The transcript position
// and creation time are preserved; only user answers can be edited.
func (m *Message) Edit(answer valueobjects.Answer) error {
	if !m.role.IsAnswer() {
		return pkgerrors.ErrMessageNotEditable
	}
	if answer.IsEmpty() {
		return pkgerrors.ErrAnswerEmpty
	}

	now := time.Now()
	m.content = answer.Text()
	m.edited = true
	m.editedAt = &now

	return nil
}
