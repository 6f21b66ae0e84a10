package validators

import (
	"strings"

	"ideaforge/domain/config"
	"ideaforge/domain/core/valueobjects"
)

// AnswerValidator decides whether an answer carries enough substance to
// move the interview forward or needs a clarifying follow-up.
type AnswerValidator struct {
	minWords     int
	vaguePhrases []string
}

// NewAnswerValidator creates a validator with default rules
func NewAnswerValidator() *AnswerValidator {
	return NewAnswerValidatorWithConfig(config.DefaultDomainConfig())
}

// NewAnswerValidatorWithConfig creates a validator from configuration
func NewAnswerValidatorWithConfig(cfg *config.DomainConfig) *AnswerValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	phrases := make([]string, len(cfg.VaguePhrases))
	copy(phrases, cfg.VaguePhrases)

	return &AnswerValidator{
		minWords:     cfg.MinAnswerWords,
		vaguePhrases: phrases,
	}
}

// NeedsFollowup reports whether the answer should trigger a clarifying
// follow-up instead of advancing the interview. Review answers never
// trigger follow-ups; everywhere else, short or vague answers do.
func (v *AnswerValidator) NeedsFollowup(answer valueobjects.Answer, category valueobjects.Category) bool {
	if category.IsReview() {
		return false
	}

	if answer.WordCount() < v.minWords {
		return true
	}

	return v.ContainsVaguePhrase(answer.Text())
}

// IsSufficient is the inverse of NeedsFollowup.
func (v *AnswerValidator) IsSufficient(answer valueobjects.Answer, category valueobjects.Category) bool {
	return !v.NeedsFollowup(answer, category)
}

// ContainsVaguePhrase checks the text against the vague answer lexicon.
// Matching is case-insensitive substring matching.
func (v *AnswerValidator) ContainsVaguePhrase(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range v.vaguePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// MinWords returns the sufficiency threshold in words.
func (v *AnswerValidator) MinWords() int {
	return v.minWords
}
