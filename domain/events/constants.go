package events

// Event types - These define the types of events in the system
const (
	// Session lifecycle events
	TypeSessionStarted   = "session.started"
	TypeSessionCompleted = "session.completed"

	// Turn events
	TypeQuestionAsked    = "session.question_asked"
	TypeAnswerRecorded   = "session.answer_recorded"
	TypeCategoryAdvanced = "session.category_advanced"
	TypeQuestionSkipped  = "session.question_skipped"
	TypeAnswerEdited     = "session.answer_edited"

	// Versioning events
	TypeSnapshotCreated = "session.snapshot_created"
)
