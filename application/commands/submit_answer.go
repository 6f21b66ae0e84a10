package commands

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// SubmitAnswerCommand records the interviewee's answer to the pending
// question and requests the next turn.
type SubmitAnswerCommand struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
	Answer    string `json:"answer" validate:"required"`
}

// Validate validates the command
func (cmd SubmitAnswerCommand) Validate() error {
	if cmd.SessionID == "" {
		return errors.New("session ID is required")
	}
	if strings.TrimSpace(cmd.Answer) == "" {
		return errors.New("answer is required")
	}
	if utf8.RuneCountInString(cmd.Answer) > MaxAnswerLength {
		return errors.New("answer exceeds maximum length")
	}
	return nil
}

const MaxAnswerLength = 10000

// TurnResult is the outcome of a recorded answer: either the next
// question to ask, or the signal that the interview is complete.
type TurnResult struct {
	SessionID string           `json:"session_id"`
	Category  string           `json:"category"`
	Complete  bool             `json:"complete"`
	Question  *QuestionPayload `json:"question,omitempty"`
}
