package commands

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// EditAnswerCommand overwrites an earlier answer in place. The turn
// history after the edited message is deliberately left untouched:
// questions asked since then are not regenerated.
type EditAnswerCommand struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
	MessageID string `json:"message_id" validate:"required,uuid"`
	NewAnswer string `json:"new_answer" validate:"required"`
}

// Validate validates the command
func (cmd EditAnswerCommand) Validate() error {
	if cmd.SessionID == "" {
		return errors.New("session ID is required")
	}
	if cmd.MessageID == "" {
		return errors.New("message ID is required")
	}
	if strings.TrimSpace(cmd.NewAnswer) == "" {
		return errors.New("new answer is required")
	}
	if utf8.RuneCountInString(cmd.NewAnswer) > MaxAnswerLength {
		return errors.New("new answer exceeds maximum length")
	}
	return nil
}

// EditResult reports whether the edit landed. Updated is false when the
// message does not exist or is not an editable answer. MemorySynced is
// false when the transcript changed but the recall store could not be
// brought in line with it.
type EditResult struct {
	SessionID    string `json:"session_id"`
	MessageID    string `json:"message_id"`
	Updated      bool   `json:"updated"`
	MemorySynced bool   `json:"memory_synced"`
}
