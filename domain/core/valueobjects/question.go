package valueobjects

import (
	"errors"
	"strings"
	"unicode/utf8"

	"ideaforge/domain/config"
)

// Question is a value object for one interviewer prompt. Construction
// normalizes the text: surrounding whitespace and wrapping quotes are
// trimmed, overlong text is cut at the configured cap on a word boundary,
// and a terminal question mark is guaranteed.
type Question struct {
	text string
}

// NewQuestion creates a question with default configuration
func NewQuestion(text string) (Question, error) {
	return NewQuestionWithConfig(text, config.DefaultDomainConfig())
}

// NewQuestionWithConfig creates a question with normalization and configuration
func NewQuestionWithConfig(text string, cfg *config.DomainConfig) (Question, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	// Generation backends sometimes wrap the question in quotes.
	text = strings.TrimSpace(text)
	text = strings.Trim(text, `"'`)
	text = strings.TrimSpace(text)
	if text == "" {
		return Question{}, errors.New("question text cannot be empty")
	}

	if utf8.RuneCountInString(text) > cfg.MaxQuestionLength {
		runes := []rune(text)
		cut := string(runes[:cfg.MaxQuestionLength])
		if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
			cut = cut[:idx]
		}
		text = strings.TrimSpace(cut)
	}

	if !strings.HasSuffix(text, "?") {
		text += "?"
	}

	return Question{text: text}, nil
}

// Text returns the question text
func (q Question) Text() string {
	return q.text
}

// IsEmpty checks if the question is empty
func (q Question) IsEmpty() bool {
	return q.text == ""
}

// Equals checks if two questions are equal
func (q Question) Equals(other Question) bool {
	return q.text == other.text
}
