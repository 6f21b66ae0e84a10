package commands

// StartInterviewCommand begins a new interview session. The session
// identifier is minted by the aggregate, not the caller, so the command
// carries no fields.
type StartInterviewCommand struct{}

// Validate validates the command
func (cmd StartInterviewCommand) Validate() error {
	return nil
}

// QuestionPayload describes a question emitted by the engine.
type QuestionPayload struct {
	MessageID  string `json:"message_id"`
	Text       string `json:"text"`
	Category   string `json:"category"`
	IsFollowup bool   `json:"is_followup"`
	Fallback   bool   `json:"fallback"`
}

// StartInterviewResult carries the new session and its opening question.
type StartInterviewResult struct {
	SessionID string          `json:"session_id"`
	Category  string          `json:"category"`
	Question  QuestionPayload `json:"question"`
}
