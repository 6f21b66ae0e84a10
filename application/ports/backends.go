package ports

import "context"

// CompletionRequest configures one generation backend call
type CompletionRequest struct {
	// System is the instruction prompt establishing the interviewer persona
	System string

	// Prompt is the user-turn content: transcript excerpt, retrieved
	// context and the latest answer
	Prompt string

	// Temperature controls sampling randomness
	Temperature float64

	// MaxTokens bounds the completion length
	MaxTokens int
}

// GenerationClient defines the interface for the question-generation
// backend (OpenAI-compatible chat completion APIs). Callers treat every
// failure identically; the adapter owns retries, circuit breaking and
// timeouts.
type GenerationClient interface {
	// Complete returns the generated text for a request
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// IsAvailable reports whether the backend is currently usable
	IsAvailable() bool
}

// Embedder defines the interface for turning text into fixed-width
// embedding vectors. Vectors from one Embedder are only comparable with
// vectors from the same Embedder.
type Embedder interface {
	// Embed returns the embedding vector for a text
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the width of produced vectors
	Dimensions() int
}

// ProviderInfo describes one configured generation provider
type ProviderInfo struct {
	Name    string `json:"name"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url"`
	Active  bool   `json:"active"`
	Enabled bool   `json:"enabled"`
}

// ProviderCatalog defines the interface for the generation provider
// registry. The active provider is resolved per generation call, so a
// switch applies from the next turn without a restart.
type ProviderCatalog interface {
	// List returns all configured providers
	List() []ProviderInfo

	// Active returns the currently selected provider
	Active() (ProviderInfo, error)

	// Switch selects a different provider by name
	Switch(name string) error
}

// Cache defines the interface for the query result cache
type Cache interface {
	// Get retrieves a cached value
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value with a TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a single key
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key with the given prefix. Commands use
	// this to drop a session's cached reads after a mutation.
	DeletePrefix(ctx context.Context, prefix string) error
}
