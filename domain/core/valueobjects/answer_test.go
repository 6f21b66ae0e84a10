package valueobjects

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideaforge/domain/config"
	pkgerrors "ideaforge/pkg/errors"
)

func TestNewAnswer(t *testing.T) {
	a, err := NewAnswer("  A scheduling app for distributed teams.  ")
	require.NoError(t, err)

	assert.Equal(t, "A scheduling app for distributed teams.", a.Text())
	assert.False(t, a.IsEmpty())
	assert.False(t, a.IsSkipped())
}

func TestNewAnswer_Empty(t *testing.T) {
	tests := []string{"", "   ", "\n\t"}

	for _, input := range tests {
		_, err := NewAnswer(input)
		assert.True(t, errors.Is(err, pkgerrors.ErrAnswerEmpty), "input %q", input)
	}
}

func TestNewAnswerWithConfig_TooLong(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxAnswerLength = 10

	_, err := NewAnswerWithConfig(strings.Repeat("a", 11), cfg)
	assert.True(t, errors.Is(err, pkgerrors.ErrAnswerTooLong))

	// The shared sentinel keeps its original detail.
	assert.Equal(t, 10000, pkgerrors.ErrAnswerTooLong.Details["max_length"])

	a, err := NewAnswerWithConfig(strings.Repeat("a", 10), cfg)
	require.NoError(t, err)
	assert.Equal(t, 10, len(a.Text()))
}

func TestAnswer_WordCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{text: "one", want: 1},
		{text: "a scheduling app for busy remote teams", want: 7},
		{text: "spaced    out   words", want: 3},
	}

	for _, tt := range tests {
		a, err := NewAnswer(tt.text)
		require.NoError(t, err)
		assert.Equal(t, tt.want, a.WordCount(), tt.text)
	}
}

func TestSkippedAnswer(t *testing.T) {
	a := SkippedAnswer()

	assert.True(t, a.IsSkipped())
	assert.Equal(t, SkippedAnswerText, a.Text())
	assert.Equal(t, 1, a.WordCount())
}

func TestAnswer_Equals(t *testing.T) {
	a1, _ := NewAnswer("same text")
	a2, _ := NewAnswer("same text")
	a3, _ := NewAnswer("different text")

	assert.True(t, a1.Equals(a2))
	assert.False(t, a1.Equals(a3))
}
