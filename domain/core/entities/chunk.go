package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"ideaforge/domain/core/valueobjects"
	pkgerrors "ideaforge/pkg/errors"
)

// MemoryChunk is one retrievable unit of interview memory: a question and
// its answer combined into a single embeddable document. Chunks are
// immutable once stored; an edit retires the old chunk and inserts a new
// one so that at most one live chunk exists per (session, question) pair.
type MemoryChunk struct {
	id           valueobjects.ChunkID
	sessionID    valueobjects.SessionID
	questionText string
	answerText   string
	content      string
	contentHash  string
	embedding    []float32
	tokenCount   int
	edited       bool
	retired      bool
	createdAt    time.Time
}

// ComposeChunkContent builds the canonical document embedded and stored for
// a question/answer pair. Retrieval quality depends on the question text
// being part of the document, not just the answer.
func ComposeChunkContent(questionText, answerText string) string {
	return "Q: " + strings.TrimSpace(questionText) + "\nA: " + strings.TrimSpace(answerText)
}

// ChunkContentHash returns the hex-encoded SHA-256 of a chunk document.
// Identical re-submissions hash identically, which is how duplicate
// persists are detected.
func ChunkContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// NewMemoryChunk creates a live chunk for a question/answer pair
func NewMemoryChunk(
	sessionID valueobjects.SessionID,
	questionText, answerText string,
	embedding []float32,
	tokenCount int,
) (*MemoryChunk, error) {
	if sessionID.IsZero() {
		return nil, pkgerrors.NewValidationError("sessionID cannot be empty")
	}
	if strings.TrimSpace(questionText) == "" {
		return nil, pkgerrors.NewValidationError("questionText cannot be empty")
	}
	if strings.TrimSpace(answerText) == "" {
		return nil, pkgerrors.NewValidationError("answerText cannot be empty")
	}
	if len(embedding) == 0 {
		return nil, pkgerrors.NewValidationError("embedding cannot be empty")
	}

	content := ComposeChunkContent(questionText, answerText)

	return &MemoryChunk{
		id:           valueobjects.NewChunkID(),
		sessionID:    sessionID,
		questionText: strings.TrimSpace(questionText),
		answerText:   strings.TrimSpace(answerText),
		content:      content,
		contentHash:  ChunkContentHash(content),
		embedding:    embedding,
		tokenCount:   tokenCount,
		createdAt:    time.Now(),
	}, nil
}

// ReconstructMemoryChunk rebuilds a chunk from repository data
func ReconstructMemoryChunk(
	id valueobjects.ChunkID,
	sessionID valueobjects.SessionID,
	questionText, answerText, content, contentHash string,
	embedding []float32,
	tokenCount int,
	edited, retired bool,
	createdAt time.Time,
) *MemoryChunk {
	return &MemoryChunk{
		id:           id,
		sessionID:    sessionID,
		questionText: questionText,
		answerText:   answerText,
		content:      content,
		contentHash:  contentHash,
		embedding:    embedding,
		tokenCount:   tokenCount,
		edited:       edited,
		retired:      retired,
		createdAt:    createdAt,
	}
}

// ID returns the chunk's unique identifier
func (c *MemoryChunk) ID() valueobjects.ChunkID {
	return c.id
}

// SessionID returns the session this chunk belongs to
func (c *MemoryChunk) SessionID() valueobjects.SessionID {
	return c.sessionID
}

// QuestionText returns the question half of the chunk document
func (c *MemoryChunk) QuestionText() string {
	return c.questionText
}

// AnswerText returns the answer half of the chunk document
func (c *MemoryChunk) AnswerText() string {
	return c.answerText
}

// Content returns the combined document that was embedded
func (c *MemoryChunk) Content() string {
	return c.content
}

// ContentHash returns the SHA-256 of the combined document
func (c *MemoryChunk) ContentHash() string {
	return c.contentHash
}

// Embedding returns a copy of the chunk's embedding vector
func (c *MemoryChunk) Embedding() []float32 {
	out := make([]float32, len(c.embedding))
	copy(out, c.embedding)
	return out
}

// TokenCount returns the token length of the combined document
func (c *MemoryChunk) TokenCount() int {
	return c.tokenCount
}

// IsEdited reports whether this chunk replaced an earlier one
func (c *MemoryChunk) IsEdited() bool {
	return c.edited
}

// IsRetired reports whether this chunk has been superseded
func (c *MemoryChunk) IsRetired() bool {
	return c.retired
}

// CreatedAt returns when the chunk was stored
func (c *MemoryChunk) CreatedAt() time.Time {
	return c.createdAt
}

// MarkEdited flags the chunk as the replacement written by an answer edit.
func (c *MemoryChunk) MarkEdited() {
	c.edited = true
}

// Retire removes the chunk from the retrievable set. Retired chunks stay
// on disk for audit but never appear in search results.
func (c *MemoryChunk) Retire() {
	c.retired = true
}
