// Package fixtures provides builders for test conversations and
// memory chunks with sensible defaults.
package fixtures

import (
	"fmt"
	"time"

	"ideaforge/domain/core/aggregates"
	"ideaforge/domain/core/entities"
	"ideaforge/domain/core/valueobjects"
)

// turn is one scripted question/answer exchange
type turn struct {
	question string
	answer   string
}

// ConversationBuilder helps create test conversations with default
// values. The default build is a fresh session with one pending
// opening question.
type ConversationBuilder struct {
	turns    []turn
	pending  string
	complete bool
}

func NewConversationBuilder() *ConversationBuilder {
	return &ConversationBuilder{
		pending: "What product idea would you like to explore today?",
	}
}

// WithTurn appends an answered exchange. Each turn advances the
// session one stage, so two turns leave the session in USERS.
func (b *ConversationBuilder) WithTurn(question, answer string) *ConversationBuilder {
	b.turns = append(b.turns, turn{question: question, answer: answer})
	return b
}

// WithAnsweredTurns appends n scripted exchanges with generated text
func (b *ConversationBuilder) WithAnsweredTurns(n int) *ConversationBuilder {
	for i := 0; i < n; i++ {
		k := len(b.turns) + 1
		b.turns = append(b.turns, turn{
			question: fmt.Sprintf("Scripted question number %d?", k),
			answer:   fmt.Sprintf("Scripted answer number %d with comfortably more than ten words in it.", k),
		})
	}
	return b
}

func (b *ConversationBuilder) WithPendingQuestion(question string) *ConversationBuilder {
	b.pending = question
	return b
}

func (b *ConversationBuilder) WithoutPendingQuestion() *ConversationBuilder {
	b.pending = ""
	return b
}

// Completed walks the session through every remaining stage so the
// built conversation is terminal.
func (b *ConversationBuilder) Completed() *ConversationBuilder {
	b.complete = true
	b.pending = ""
	return b
}

func (b *ConversationBuilder) Build() (*aggregates.Conversation, error) {
	conv, err := aggregates.NewConversation()
	if err != nil {
		return nil, err
	}

	for _, t := range b.turns {
		if err := playTurn(conv, t.question, t.answer); err != nil {
			return nil, err
		}
	}

	if b.complete {
		for !conv.IsComplete() {
			k := conv.MessageCount() + 1
			err := playTurn(conv,
				fmt.Sprintf("Filler question number %d?", k),
				fmt.Sprintf("Filler answer number %d with comfortably more than ten words in it.", k),
			)
			if err != nil {
				return nil, err
			}
		}
	}

	if b.pending != "" {
		q, err := valueobjects.NewQuestion(b.pending)
		if err != nil {
			return nil, err
		}
		if _, err := conv.AppendQuestion(q, false, false, false); err != nil {
			return nil, err
		}
	}

	return conv, nil
}

func (b *ConversationBuilder) MustBuild() *aggregates.Conversation {
	conv, err := b.Build()
	if err != nil {
		panic(err)
	}
	// Look like a loaded aggregate: setup events committed, version
	// in sync with the store.
	conv.MarkEventsAsCommitted()
	conv.MarkSaved()
	return conv
}

// playTurn asks a question, answers it and advances the stage
func playTurn(conv *aggregates.Conversation, question, answer string) error {
	q, err := valueobjects.NewQuestion(question)
	if err != nil {
		return err
	}
	if _, err := conv.AppendQuestion(q, false, false, false); err != nil {
		return err
	}
	a, err := valueobjects.NewAnswer(answer)
	if err != nil {
		return err
	}
	if _, err := conv.RecordAnswer(a); err != nil {
		return err
	}
	conv.Advance()
	return nil
}

// ChunkBuilder helps create test memory chunks. Chunks are built
// through the reconstruction path so tests can control timestamps.
type ChunkBuilder struct {
	sessionID  valueobjects.SessionID
	question   string
	answer     string
	embedding  []float32
	tokenCount int
	edited     bool
	createdAt  time.Time
}

func NewChunkBuilder(sessionID valueobjects.SessionID) *ChunkBuilder {
	return &ChunkBuilder{
		sessionID:  sessionID,
		question:   "What problem does your product solve?",
		answer:     "It helps remote teams keep meeting notes searchable.",
		embedding:  []float32{1, 0, 0},
		tokenCount: 24,
		createdAt:  time.Now(),
	}
}

func (b *ChunkBuilder) WithQuestion(question string) *ChunkBuilder {
	b.question = question
	return b
}

func (b *ChunkBuilder) WithAnswer(answer string) *ChunkBuilder {
	b.answer = answer
	return b
}

func (b *ChunkBuilder) WithEmbedding(vec []float32) *ChunkBuilder {
	b.embedding = vec
	return b
}

func (b *ChunkBuilder) WithTokenCount(n int) *ChunkBuilder {
	b.tokenCount = n
	return b
}

func (b *ChunkBuilder) Edited() *ChunkBuilder {
	b.edited = true
	return b
}

// WithAge backdates the chunk so recency scoring can be exercised
func (b *ChunkBuilder) WithAge(age time.Duration) *ChunkBuilder {
	b.createdAt = time.Now().Add(-age)
	return b
}

func (b *ChunkBuilder) Build() *entities.MemoryChunk {
	content := entities.ComposeChunkContent(b.question, b.answer)
	return entities.ReconstructMemoryChunk(
		valueobjects.NewChunkID(),
		b.sessionID,
		b.question,
		b.answer,
		content,
		entities.ChunkContentHash(content),
		b.embedding,
		b.tokenCount,
		b.edited,
		false,
		b.createdAt,
	)
}
