package valueobjects

import (
	"strings"
	"unicode/utf8"

	"ideaforge/domain/config"
	pkgerrors "ideaforge/pkg/errors"
)

// SkippedAnswerText marks a transcript slot whose question was skipped.
const SkippedAnswerText = "[SKIPPED]"

// Answer is a value object for one interviewee reply
type Answer struct {
	text string
}

// NewAnswer creates an answer with validation using default configuration
func NewAnswer(text string) (Answer, error) {
	return NewAnswerWithConfig(text, config.DefaultDomainConfig())
}

// NewAnswerWithConfig creates an answer with validation and configuration
func NewAnswerWithConfig(text string, cfg *config.DomainConfig) (Answer, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return Answer{}, pkgerrors.ErrAnswerEmpty
	}
	if utf8.RuneCountInString(text) > cfg.MaxAnswerLength {
		return Answer{}, pkgerrors.ErrAnswerTooLong.WithDetail("max_length", cfg.MaxAnswerLength)
	}

	return Answer{text: text}, nil
}

// SkippedAnswer returns the placeholder recorded for a skipped question.
func SkippedAnswer() Answer {
	return Answer{text: SkippedAnswerText}
}

// Text returns the answer text
func (a Answer) Text() string {
	return a.text
}

// WordCount returns the number of whitespace-separated words
func (a Answer) WordCount() int {
	return len(strings.Fields(a.text))
}

// IsSkipped reports whether this answer is the skip placeholder.
func (a Answer) IsSkipped() bool {
	return a.text == SkippedAnswerText
}

// IsEmpty checks if the answer is empty
func (a Answer) IsEmpty() bool {
	return a.text == ""
}

// Equals checks if two answers are equal
func (a Answer) Equals(other Answer) bool {
	return a.text == other.text
}
