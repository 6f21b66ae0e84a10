package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideaforge/domain/core/valueobjects"
)

func TestComposeChunkContent(t *testing.T) {
	content := ComposeChunkContent("  What problem does it solve?  ", " It tracks tasks. ")
	assert.Equal(t, "Q: What problem does it solve?\nA: It tracks tasks.", content)
}

func TestChunkContentHash(t *testing.T) {
	a := ChunkContentHash("Q: one\nA: two")
	b := ChunkContentHash("Q: one\nA: two")
	c := ChunkContentHash("Q: one\nA: three")

	assert.Equal(t, a, b, "identical documents should hash identically")
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestNewMemoryChunk(t *testing.T) {
	sessionID := valueobjects.NewSessionID()
	embedding := []float32{0.1, 0.2, 0.3}

	tests := []struct {
		name      string
		sessionID valueobjects.SessionID
		question  string
		answer    string
		embedding []float32
		wantErr   bool
	}{
		{
			name:      "valid chunk",
			sessionID: sessionID,
			question:  "What does the product do?",
			answer:    "It helps teams plan sprints.",
			embedding: embedding,
			wantErr:   false,
		},
		{
			name:      "zero session ID",
			sessionID: valueobjects.SessionID{},
			question:  "What does the product do?",
			answer:    "It helps teams plan sprints.",
			embedding: embedding,
			wantErr:   true,
		},
		{
			name:      "blank question",
			sessionID: sessionID,
			question:  "   ",
			answer:    "It helps teams plan sprints.",
			embedding: embedding,
			wantErr:   true,
		},
		{
			name:      "blank answer",
			sessionID: sessionID,
			question:  "What does the product do?",
			answer:    "",
			embedding: embedding,
			wantErr:   true,
		},
		{
			name:      "missing embedding",
			sessionID: sessionID,
			question:  "What does the product do?",
			answer:    "It helps teams plan sprints.",
			embedding: nil,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk, err := NewMemoryChunk(tt.sessionID, tt.question, tt.answer, tt.embedding, 12)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, chunk)
				return
			}

			require.NoError(t, err)
			assert.False(t, chunk.ID().IsZero())
			assert.True(t, chunk.SessionID().Equals(tt.sessionID))
			assert.Equal(t, ComposeChunkContent(tt.question, tt.answer), chunk.Content())
			assert.Equal(t, ChunkContentHash(chunk.Content()), chunk.ContentHash())
			assert.Equal(t, 12, chunk.TokenCount())
			assert.False(t, chunk.IsEdited())
			assert.False(t, chunk.IsRetired())
		})
	}
}

func TestMemoryChunkLifecycle(t *testing.T) {
	chunk, err := NewMemoryChunk(
		valueobjects.NewSessionID(),
		"Who are the target users?",
		"Freelance designers and small studios.",
		[]float32{0.5, 0.5},
		9,
	)
	require.NoError(t, err)

	chunk.MarkEdited()
	assert.True(t, chunk.IsEdited())

	chunk.Retire()
	assert.True(t, chunk.IsRetired())
}

func TestMemoryChunkEmbeddingIsCopied(t *testing.T) {
	original := []float32{1, 2, 3}
	chunk, err := NewMemoryChunk(
		valueobjects.NewSessionID(),
		"What makes it different?",
		"Offline-first sync with no account required.",
		original,
		10,
	)
	require.NoError(t, err)

	got := chunk.Embedding()
	got[0] = 99

	assert.Equal(t, float32(1), chunk.Embedding()[0], "mutating the returned slice must not touch the chunk")
}
