package events

import (
	"time"

	"ideaforge/domain/core/valueobjects"
)

// Session Events

// SessionStarted is raised when a new interview session begins
type SessionStarted struct {
	BaseEvent
	SessionID valueobjects.SessionID `json:"session_id"`
	Category  valueobjects.Category  `json:"category"`
}

// NewSessionStarted creates a SessionStarted event
func NewSessionStarted(sessionID valueobjects.SessionID, category valueobjects.Category, timestamp time.Time) SessionStarted {
	return SessionStarted{
		BaseEvent: BaseEvent{
			AggregateID: sessionID.String(),
			EventType:   TypeSessionStarted,
			Timestamp:   timestamp,
			Version:     1,
		},
		SessionID: sessionID,
		Category:  category,
	}
}

// SessionCompleted is raised when a session reaches the terminal state
type SessionCompleted struct {
	BaseEvent
	SessionID   valueobjects.SessionID `json:"session_id"`
	AnswerCount int                    `json:"answer_count"`
}

// NewSessionCompleted creates a SessionCompleted event
func NewSessionCompleted(sessionID valueobjects.SessionID, answerCount int, timestamp time.Time) SessionCompleted {
	return SessionCompleted{
		BaseEvent: BaseEvent{
			AggregateID: sessionID.String(),
			EventType:   TypeSessionCompleted,
			Timestamp:   timestamp,
			Version:     1,
		},
		SessionID:   sessionID,
		AnswerCount: answerCount,
	}
}

// Turn Events

// QuestionAsked is raised when the interviewer appends a question
type QuestionAsked struct {
	BaseEvent
	SessionID  valueobjects.SessionID `json:"session_id"`
	MessageID  valueobjects.MessageID `json:"message_id"`
	Category   valueobjects.Category  `json:"category"`
	IsFollowup bool                   `json:"is_followup"`
	Fallback   bool                   `json:"fallback"`
}

// NewQuestionAsked creates a QuestionAsked event
func NewQuestionAsked(sessionID valueobjects.SessionID, messageID valueobjects.MessageID, category valueobjects.Category, isFollowup, fallback bool, timestamp time.Time) QuestionAsked {
	return QuestionAsked{
		BaseEvent: BaseEvent{
			AggregateID: sessionID.String(),
			EventType:   TypeQuestionAsked,
			Timestamp:   timestamp,
			Version:     1,
		},
		SessionID:  sessionID,
		MessageID:  messageID,
		Category:   category,
		IsFollowup: isFollowup,
		Fallback:   fallback,
	}
}

// AnswerRecorded is raised when the interviewee answers a question
type AnswerRecorded struct {
	BaseEvent
	SessionID  valueobjects.SessionID `json:"session_id"`
	MessageID  valueobjects.MessageID `json:"message_id"`
	QuestionID valueobjects.MessageID `json:"question_id"`
	Category   valueobjects.Category  `json:"category"`
	WordCount  int                    `json:"word_count"`
}

// NewAnswerRecorded creates an AnswerRecorded event
func NewAnswerRecorded(sessionID valueobjects.SessionID, messageID, questionID valueobjects.MessageID, category valueobjects.Category, wordCount int, timestamp time.Time) AnswerRecorded {
	return AnswerRecorded{
		BaseEvent: BaseEvent{
			AggregateID: sessionID.String(),
			EventType:   TypeAnswerRecorded,
			Timestamp:   timestamp,
			Version:     1,
		},
		SessionID:  sessionID,
		MessageID:  messageID,
		QuestionID: questionID,
		Category:   category,
		WordCount:  wordCount,
	}
}

// CategoryAdvanced is raised when the session moves to the next stage
type CategoryAdvanced struct {
	BaseEvent
	SessionID valueobjects.SessionID `json:"session_id"`
	From      valueobjects.Category  `json:"from"`
	To        valueobjects.Category  `json:"to"`
}

// NewCategoryAdvanced creates a CategoryAdvanced event
func NewCategoryAdvanced(sessionID valueobjects.SessionID, from, to valueobjects.Category, timestamp time.Time) CategoryAdvanced {
	return CategoryAdvanced{
		BaseEvent: BaseEvent{
			AggregateID: sessionID.String(),
			EventType:   TypeCategoryAdvanced,
			Timestamp:   timestamp,
			Version:     1,
		},
		SessionID: sessionID,
		From:      from,
		To:        to,
	}
}

// QuestionSkipped is raised when the interviewee skips a question
type QuestionSkipped struct {
	BaseEvent
	SessionID  valueobjects.SessionID `json:"session_id"`
	QuestionID valueobjects.MessageID `json:"question_id"`
	Category   valueobjects.Category  `json:"category"`
}

// NewQuestionSkipped creates a QuestionSkipped event
func NewQuestionSkipped(sessionID valueobjects.SessionID, questionID valueobjects.MessageID, category valueobjects.Category, timestamp time.Time) QuestionSkipped {
	return QuestionSkipped{
		BaseEvent: BaseEvent{
			AggregateID: sessionID.String(),
			EventType:   TypeQuestionSkipped,
			Timestamp:   timestamp,
			Version:     1,
		},
		SessionID:  sessionID,
		QuestionID: questionID,
		Category:   category,
	}
}

// AnswerEdited is raised when an earlier answer is overwritten in place
type AnswerEdited struct {
	BaseEvent
	SessionID valueobjects.SessionID `json:"session_id"`
	MessageID valueobjects.MessageID `json:"message_id"`
}

// NewAnswerEdited creates an AnswerEdited event
func NewAnswerEdited(sessionID valueobjects.SessionID, messageID valueobjects.MessageID, timestamp time.Time) AnswerEdited {
	return AnswerEdited{
		BaseEvent: BaseEvent{
			AggregateID: sessionID.String(),
			EventType:   TypeAnswerEdited,
			Timestamp:   timestamp,
			Version:     1,
		},
		SessionID: sessionID,
		MessageID: messageID,
	}
}

// SnapshotCreated is raised when the versioning policy captures a snapshot
type SnapshotCreated struct {
	BaseEvent
	SessionID   valueobjects.SessionID `json:"session_id"`
	SnapshotID  string                 `json:"snapshot_id"`
	AnswerCount int                    `json:"answer_count"`
}

// NewSnapshotCreated creates a SnapshotCreated event
func NewSnapshotCreated(sessionID valueobjects.SessionID, snapshotID string, answerCount int, timestamp time.Time) SnapshotCreated {
	return SnapshotCreated{
		BaseEvent: BaseEvent{
			AggregateID: sessionID.String(),
			EventType:   TypeSnapshotCreated,
			Timestamp:   timestamp,
			Version:     1,
		},
		SessionID:   sessionID,
		SnapshotID:  snapshotID,
		AnswerCount: answerCount,
	}
}
