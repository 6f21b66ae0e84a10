package valueobjects

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideaforge/domain/config"
)

func TestNewQuestion_Normalization(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already well formed",
			input: "What problem does your product solve?",
			want:  "What problem does your product solve?",
		},
		{
			name:  "missing question mark",
			input: "Tell me about your users",
			want:  "Tell me about your users?",
		},
		{
			name:  "surrounding whitespace",
			input: "  Who is your first customer?  \n",
			want:  "Who is your first customer?",
		},
		{
			name:  "wrapping double quotes",
			input: `"What makes your approach different?"`,
			want:  "What makes your approach different?",
		},
		{
			name:  "wrapping single quotes with whitespace",
			input: " 'How will users find the product?' ",
			want:  "How will users find the product?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := NewQuestion(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Text())
		})
	}
}

func TestNewQuestion_Empty(t *testing.T) {
	_, err := NewQuestion("   ")
	assert.Error(t, err)
}

func TestNewQuestionWithConfig_LengthCap(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxQuestionLength = 20

	q, err := NewQuestionWithConfig(strings.Repeat("x", 50), cfg)
	require.NoError(t, err)

	// Capped text still ends with a question mark.
	assert.LessOrEqual(t, len(q.Text()), cfg.MaxQuestionLength+1)
	assert.True(t, strings.HasSuffix(q.Text(), "?"))
}

func TestNewQuestionWithConfig_LengthCapBreaksAtWord(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxQuestionLength = 25

	q, err := NewQuestionWithConfig("What are the main features users will interact with", cfg)
	require.NoError(t, err)

	// The cut lands between words, never inside one.
	assert.Equal(t, "What are the main?", q.Text())
}

func TestQuestion_Equals(t *testing.T) {
	q1, _ := NewQuestion("Same question?")
	q2, _ := NewQuestion("Same question")
	q3, _ := NewQuestion("Other question?")

	assert.True(t, q1.Equals(q2))
	assert.False(t, q1.Equals(q3))
}
