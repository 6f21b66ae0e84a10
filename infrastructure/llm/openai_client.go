// Package llm adapts OpenAI-compatible chat completion APIs to the
// generation port. The adapter owns every resilience concern: bounded
// timeouts, exponential retry, and a circuit breaker. Callers see a
// single opaque error; the fallback decision lives above this layer.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"ideaforge/application/ports"
	pkgerrors "ideaforge/pkg/errors"
	"ideaforge/pkg/observability"
)

const (
	breakerConsecutiveFailures = 5
	responseBodyLimit          = 1 << 20
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// OpenAIClient calls whichever provider the catalog currently marks
// active, so a registry switch applies to the next completion without a
// restart.
type OpenAIClient struct {
	catalog       ports.ProviderCatalog
	apiKey        string
	httpClient    *http.Client
	timeout       time.Duration
	maxTries      uint
	retryInterval time.Duration
	breaker       *gobreaker.CircuitBreaker
	metrics       *observability.Collector
	logger        *zap.Logger
}

var _ ports.GenerationClient = (*OpenAIClient)(nil)

// NewOpenAIClient creates a generation client over the provider catalog
func NewOpenAIClient(
	catalog ports.ProviderCatalog,
	apiKey string,
	timeout time.Duration,
	retries int,
	metrics *observability.Collector,
	logger *zap.Logger,
) *OpenAIClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if retries <= 0 {
		retries = 3
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "generation",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.Set(breakerStateValue(to))
			logger.Warn("generation breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &OpenAIClient{
		catalog:       catalog,
		apiKey:        apiKey,
		httpClient:    &http.Client{Timeout: timeout},
		timeout:       timeout,
		maxTries:      uint(retries),
		retryInterval: 500 * time.Millisecond,
		breaker:       breaker,
		metrics:       metrics,
		logger:        logger,
	}
}

// Complete returns the generated text for a request
func (c *OpenAIClient) Complete(ctx context.Context, req ports.CompletionRequest) (string, error) {
	provider, err := c.catalog.Active()
	if err != nil {
		return "", pkgerrors.NewGenerationError("resolve provider", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		expo := backoff.NewExponentialBackOff()
		expo.InitialInterval = c.retryInterval
		return backoff.Retry(ctx, func() (string, error) {
			return c.post(ctx, provider, req)
		}, backoff.WithBackOff(expo), backoff.WithMaxTries(c.maxTries))
	})
	c.metrics.ObserveGeneration(time.Since(start))

	if err != nil {
		c.logger.Warn("generation request failed",
			zap.String("provider", provider.Name),
			zap.String("model", provider.Model),
			zap.Int("promptLength", len(req.Prompt)),
			zap.Error(err),
		)
		return "", pkgerrors.NewGenerationError("complete", err)
	}
	return result.(string), nil
}

// IsAvailable reports whether the backend is currently usable
func (c *OpenAIClient) IsAvailable() bool {
	return c.breaker.State() != gobreaker.StateOpen
}

// post performs one HTTP attempt. Server-side and rate-limit failures
// return plain errors so the retry policy runs; client errors and
// malformed payloads are permanent.
func (c *OpenAIClient) post(ctx context.Context, provider ports.ProviderInfo, req ports.CompletionRequest) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: provider.Model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", backoff.Permanent(err)
	}

	url := strings.TrimSuffix(provider.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", backoff.Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return "", err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decoding
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", fmt.Errorf("generation backend returned %d: %s", resp.StatusCode, excerpt(body))
	default:
		return "", backoff.Permanent(
			fmt.Errorf("generation backend returned %d: %s", resp.StatusCode, excerpt(body)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", backoff.Permanent(fmt.Errorf("malformed completion response: %w", err))
	}
	if len(parsed.Choices) == 0 {
		return "", backoff.Permanent(errors.New("completion response has no choices"))
	}
	return parsed.Choices[0].Message.Content, nil
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// excerpt trims a response body for error messages
func excerpt(body []byte) string {
	const max = 200
	text := strings.TrimSpace(string(body))
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}
