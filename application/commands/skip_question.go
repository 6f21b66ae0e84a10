package commands

import "errors"

// SkipQuestionCommand abandons the pending question and moves the
// session to the next stage without recording an answer.
type SkipQuestionCommand struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}

// Validate validates the command
func (cmd SkipQuestionCommand) Validate() error {
	if cmd.SessionID == "" {
		return errors.New("session ID is required")
	}
	return nil
}

// SkipResult carries the question that replaced the skipped one, or the
// completion signal when the skip exhausted the final stage.
type SkipResult struct {
	SessionID        string           `json:"session_id"`
	Category         string           `json:"category"`
	Complete         bool             `json:"complete"`
	SkippedMessageID string           `json:"skipped_message_id,omitempty"`
	Question         *QuestionPayload `json:"question,omitempty"`
}
