package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"ideaforge/application/ports"
	"ideaforge/domain/config"
	"ideaforge/domain/core/aggregates"
	"ideaforge/domain/core/validators"
	"ideaforge/domain/core/valueobjects"
	"ideaforge/pkg/observability"
)

const (
	followupSystemPrompt = `You are an expert product investigator conducting a discovery interview.
Your goal is to deeply understand the user's product idea through thoughtful questions.

Generate a concise follow-up question that:
1. Digs deeper into their latest answer
2. Helps clarify vague or incomplete information
3. Reveals important details about their product
4. Is specific and actionable
5. Is friendly and conversational

Keep the question under 20 words. Do not include any preamble or explanation.`

	freshSystemPrompt = `You are an expert product investigator conducting a discovery interview.
Your goal is to deeply understand the user's product idea through thoughtful questions.

Generate the next interview question that:
1. Opens the given investigation category
2. Builds on what the user has already shared
3. Reveals important details about their product
4. Is specific and actionable
5. Is friendly and conversational

Keep the question under 20 words. Do not include any preamble or explanation.`

	// generationTemperature matches the interviewer persona: varied
	// phrasing without drifting off the category.
	generationTemperature = 0.7
	generationMaxTokens   = 120

	// promptHistoryMessages bounds the transcript excerpt in prompts
	promptHistoryMessages = 8
	// promptContextChunks bounds the retrieved fragments in prompts
	promptContextChunks = 3
)

// GeneratedQuestion is the outcome of one generator call
type GeneratedQuestion struct {
	Question    valueobjects.Question
	Category    valueobjects.Category
	IsFollowup  bool
	Fallback    bool
	ContextUsed int
}

// QuestionService produces interviewer questions. The generation backend
// is consulted for every question except the opener; any backend failure
// degrades to the deterministic template bank, never to an error. The
// follow-up gate itself is pure and never consults the backend.
type QuestionService struct {
	backend   ports.GenerationClient
	validator *validators.AnswerValidator
	cfg       *config.DomainConfig
	metrics   *observability.Collector
	logger    *zap.Logger
}

// NewQuestionService creates a new question service
func NewQuestionService(
	backend ports.GenerationClient,
	validator *validators.AnswerValidator,
	cfg *config.DomainConfig,
	metrics *observability.Collector,
	logger *zap.Logger,
) *QuestionService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &QuestionService{
		backend:   backend,
		validator: validator,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
	}
}

// NeedsFollowup reports whether the latest answer warrants one more
// probing question before the interview moves on
func (s *QuestionService) NeedsFollowup(answer valueobjects.Answer, category valueobjects.Category) bool {
	return s.validator.NeedsFollowup(answer, category)
}

// InitialQuestion returns the interview opener. The backend is never
// consulted here: with no answers yet there is nothing to ground a
// generated question in.
func (s *QuestionService) InitialQuestion() GeneratedQuestion {
	text, _ := categoryTemplate(valueobjects.CategoryStart, 0)
	question, _ := valueobjects.NewQuestionWithConfig(text, s.cfg)
	return GeneratedQuestion{
		Question:   question,
		Category:   valueobjects.CategoryStart,
		IsFollowup: false,
		Fallback:   false,
	}
}

// Next produces the next question for a conversation, or nil when the
// interview is over. The decision order is fixed: terminal state first,
// then the follow-up gate, then a fresh question for the successor
// category. Callers advance the aggregate when the result is not a
// follow-up; the category on the result names the target stage.
func (s *QuestionService) Next(
	ctx context.Context,
	conv *aggregates.Conversation,
	latestAnswer valueobjects.Answer,
	contextChunks []string,
) (*GeneratedQuestion, error) {
	category := conv.Category()
	if category.IsTerminal() {
		return nil, nil
	}
	if !category.IsValid() {
		return nil, fmt.Errorf("conversation %s has invalid category %q", conv.ID(), category)
	}

	if s.NeedsFollowup(latestAnswer, category) {
		gen := s.Followup(ctx, conv, latestAnswer, contextChunks)
		return &gen, nil
	}

	next := category.Next()
	if next.IsTerminal() {
		return nil, nil
	}

	gen := s.Fresh(ctx, conv, next, contextChunks)
	return &gen, nil
}

// Followup produces a probing question for the current category, grounded
// in the answer that needs clarification
func (s *QuestionService) Followup(
	ctx context.Context,
	conv *aggregates.Conversation,
	latestAnswer valueobjects.Answer,
	contextChunks []string,
) GeneratedQuestion {
	category := conv.Category()
	prompt := s.buildFollowupPrompt(conv, latestAnswer, contextChunks)

	raw, err := s.complete(ctx, followupSystemPrompt, prompt)
	rotation := conv.CountFollowupsInCategory(category)
	text, fallback := s.textOrFallback(raw, err, followupTemplate(category, rotation), "followup", conv, len(prompt))

	question, qErr := valueobjects.NewQuestionWithConfig(text, s.cfg)
	if qErr != nil {
		// Backend returned something unusable (blank after normalization).
		question, _ = valueobjects.NewQuestionWithConfig(followupTemplate(category, rotation), s.cfg)
		fallback = true
	}

	return GeneratedQuestion{
		Question:    question,
		Category:    category,
		IsFollowup:  true,
		Fallback:    fallback,
		ContextUsed: min(len(contextChunks), promptContextChunks),
	}
}

// Fresh produces the opening question for a category. Skip flows call
// this directly with no context so the new question never probes the
// skipped one.
func (s *QuestionService) Fresh(
	ctx context.Context,
	conv *aggregates.Conversation,
	category valueobjects.Category,
	contextChunks []string,
) GeneratedQuestion {
	rotation := conv.CountQuestionsInCategory(category)
	template, ok := categoryTemplate(category, rotation)
	if !ok {
		// COMPLETE has no bank; callers check for terminal state first,
		// so reaching here means the state machine was bypassed.
		template = followupTemplate(category, 0)
	}

	prompt := s.buildFreshPrompt(conv, category, contextChunks)
	raw, err := s.complete(ctx, freshSystemPrompt, prompt)
	text, fallback := s.textOrFallback(raw, err, template, "fresh", conv, len(prompt))

	question, qErr := valueobjects.NewQuestionWithConfig(text, s.cfg)
	if qErr != nil {
		question, _ = valueobjects.NewQuestionWithConfig(template, s.cfg)
		fallback = true
	}

	return GeneratedQuestion{
		Question:    question,
		Category:    category,
		IsFollowup:  false,
		Fallback:    fallback,
		ContextUsed: min(len(contextChunks), promptContextChunks),
	}
}

// complete runs one backend call with latency observation
func (s *QuestionService) complete(ctx context.Context, system, prompt string) (string, error) {
	start := time.Now()
	raw, err := s.backend.Complete(ctx, ports.CompletionRequest{
		System:      system,
		Prompt:      prompt,
		Temperature: generationTemperature,
		MaxTokens:   generationMaxTokens,
	})
	s.metrics.ObserveGeneration(time.Since(start))
	return raw, err
}

// textOrFallback is the single conversion point from a backend result to
// question text. Every failure subtype lands here and is treated the
// same: log the degradation, count it, use the template.
func (s *QuestionService) textOrFallback(
	raw string,
	err error,
	template string,
	kind string,
	conv *aggregates.Conversation,
	promptLen int,
) (string, bool) {
	if err == nil {
		return raw, false
	}

	s.metrics.ObserveFallback(kind)
	s.logger.Warn("generation failed, using template",
		zap.String("kind", kind),
		zap.String("sessionID", conv.ID().String()),
		zap.String("category", conv.Category().String()),
		zap.Int("promptLength", promptLen),
		zap.Error(err),
	)
	return template, true
}

// buildFollowupPrompt assembles the user-turn prompt for a follow-up
func (s *QuestionService) buildFollowupPrompt(
	conv *aggregates.Conversation,
	latestAnswer valueobjects.Answer,
	contextChunks []string,
) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Current investigation category: %s\n\n", conv.Category())
	fmt.Fprintf(&b, "Recent conversation:\n%s\n\n", transcriptExcerpt(conv, promptHistoryMessages))
	fmt.Fprintf(&b, "User's latest answer (needs clarification): %s\n", latestAnswer.Text())

	if section := contextSection(contextChunks); section != "" {
		b.WriteString(section)
	}

	b.WriteString("\nGenerate a follow-up question to better understand their product.")
	return b.String()
}

// buildFreshPrompt assembles the user-turn prompt for a category opener
func (s *QuestionService) buildFreshPrompt(
	conv *aggregates.Conversation,
	category valueobjects.Category,
	contextChunks []string,
) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Next investigation category: %s\n\n", category)
	fmt.Fprintf(&b, "Recent conversation:\n%s\n", transcriptExcerpt(conv, promptHistoryMessages))

	if section := contextSection(contextChunks); section != "" {
		b.WriteString(section)
	}

	b.WriteString("\nGenerate the opening question for this category.")
	return b.String()
}

// transcriptExcerpt renders the last n transcript messages as Q/A lines
func transcriptExcerpt(conv *aggregates.Conversation, n int) string {
	messages := conv.Messages()
	if len(messages) > n {
		messages = messages[len(messages)-n:]
	}

	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		prefix := "A"
		if m.Role().IsQuestion() {
			prefix = "Q"
		}
		lines = append(lines, prefix+": "+m.Content())
	}
	return strings.Join(lines, "\n")
}

// contextSection renders the most relevant retrieved fragments, empty
// string when there are none
func contextSection(chunks []string) string {
	if len(chunks) == 0 {
		return ""
	}
	if len(chunks) > promptContextChunks {
		chunks = chunks[:promptContextChunks]
	}
	return "\nPrevious context:\n" + strings.Join(chunks, "\n\n") + "\n"
}
