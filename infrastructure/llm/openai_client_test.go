package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ideaforge/application/ports"
	pkgerrors "ideaforge/pkg/errors"
	"ideaforge/pkg/observability"
	"ideaforge/tests/mocks"
)

func newTestClient(t *testing.T, baseURL string, retries int) (*OpenAIClient, *mocks.MockProviderCatalog) {
	t.Helper()
	catalog := new(mocks.MockProviderCatalog)
	catalog.On("Active").Return(ports.ProviderInfo{
		Name:    "test",
		Model:   "test-model",
		BaseURL: baseURL,
		Enabled: true,
		Active:  true,
	}, nil)

	client := NewOpenAIClient(catalog, "secret-key", 5*time.Second, retries,
		observability.NewCollector("test"), zap.NewNop())
	client.retryInterval = time.Millisecond
	return client, catalog
}

func completionJSON(text string) string {
	return `{"choices":[{"message":{"role":"assistant","content":` + jsonString(text) + `}}]}`
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestOpenAIClient_Complete_ReturnsGeneratedText(t *testing.T) {
	// Arrange
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionJSON("What does a typical day with your product look like?")))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL+"/v1", 3)

	// Act
	text, err := client.Complete(context.Background(), ports.CompletionRequest{
		System:      "You are an interviewer.",
		Prompt:      "The user builds a recipe planner.",
		Temperature: 0.7,
		MaxTokens:   120,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "What does a typical day with your product look like?", text)
	assert.Equal(t, "test-model", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.InDelta(t, 0.7, captured.Temperature, 0.001)
	assert.Equal(t, 120, captured.MaxTokens)
}

func TestOpenAIClient_Complete_RetriesServerErrors(t *testing.T) {
	// Arrange
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			http.Error(w, "upstream overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(completionJSON("Who uses the planner most often?")))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL, 3)

	// Act
	text, err := client.Complete(context.Background(), ports.CompletionRequest{Prompt: "hello"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Who uses the planner most often?", text)
	assert.Equal(t, int32(2), attempts.Load())
}

func TestOpenAIClient_Complete_DoesNotRetryClientErrors(t *testing.T) {
	// Arrange
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "bad api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL, 3)

	// Act
	_, err := client.Complete(context.Background(), ports.CompletionRequest{Prompt: "hello"})

	// Assert: auth failures are permanent, one attempt only
	assert.Error(t, err)
	assert.True(t, pkgerrors.IsGeneration(err))
	assert.Equal(t, int32(1), attempts.Load())
}

func TestOpenAIClient_Complete_EmptyChoicesFails(t *testing.T) {
	// Arrange
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL, 3)

	// Act
	_, err := client.Complete(context.Background(), ports.CompletionRequest{Prompt: "hello"})

	// Assert
	assert.Error(t, err)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestOpenAIClient_Complete_ProviderResolutionFails(t *testing.T) {
	// Arrange
	catalog := new(mocks.MockProviderCatalog)
	catalog.On("Active").Return(ports.ProviderInfo{}, errors.New("registry unreadable"))
	client := NewOpenAIClient(catalog, "", time.Second, 1,
		observability.NewCollector("test"), zap.NewNop())

	// Act
	_, err := client.Complete(context.Background(), ports.CompletionRequest{Prompt: "hello"})

	// Assert
	assert.Error(t, err)
	assert.True(t, pkgerrors.IsGeneration(err))
}

func TestOpenAIClient_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	// Arrange
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL, 1)

	// Act: five consecutive failures trip the breaker
	for i := 0; i < 5; i++ {
		_, err := client.Complete(context.Background(), ports.CompletionRequest{Prompt: "hello"})
		assert.Error(t, err)
	}

	// Assert: the next call is rejected without reaching the backend
	assert.False(t, client.IsAvailable())
	_, err := client.Complete(context.Background(), ports.CompletionRequest{Prompt: "hello"})
	assert.Error(t, err)
	assert.Equal(t, int32(5), attempts.Load())
}
