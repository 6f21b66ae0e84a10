package config

import "fmt"

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Answer sufficiency
	MinAnswerWords  int
	VaguePhrases    []string
	MaxAnswerLength int

	// Question shaping
	MaxQuestionLength int

	// Memory retrieval
	RetrievalTopK      int
	CandidateFactor    int
	CandidateCap       int
	ContextTokenBudget int
	SimilarityWeight   float64
	RecencyWeight      float64
	RecencyScaleHours  float64

	// Snapshot policy
	SnapshotEveryAnswers int
	MaxSnapshots         int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Answer sufficiency
		MinAnswerWords: 10,
		VaguePhrases: []string{
			"i don't know",
			"not sure",
			"maybe",
			"possibly",
			"whatever",
			"anything",
			"doesn't matter",
		},
		MaxAnswerLength: 10000,

		// Question shaping
		MaxQuestionLength: 280,

		// Memory retrieval
		RetrievalTopK:      5,
		CandidateFactor:    2,
		CandidateCap:       50,
		ContextTokenBudget: 4000,
		SimilarityWeight:   0.7,
		RecencyWeight:      0.3,
		RecencyScaleHours:  24,

		// Snapshot policy
		SnapshotEveryAnswers: 5,
		MaxSnapshots:         10,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Tighter payloads for production
	config.MaxAnswerLength = 5000
	config.CandidateCap = 30

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Short answers pass so manual runs move quickly
	config.MinAnswerWords = 3
	config.SnapshotEveryAnswers = 2

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.MinAnswerWords < 1 {
		return fmt.Errorf("min answer words must be positive, got %d", c.MinAnswerWords)
	}
	if c.MaxAnswerLength < 1 {
		return fmt.Errorf("max answer length must be positive, got %d", c.MaxAnswerLength)
	}
	if c.MaxQuestionLength < 1 {
		return fmt.Errorf("max question length must be positive, got %d", c.MaxQuestionLength)
	}
	if c.RetrievalTopK < 1 {
		return fmt.Errorf("retrieval top K must be positive, got %d", c.RetrievalTopK)
	}
	if c.CandidateFactor < 1 {
		return fmt.Errorf("candidate factor must be positive, got %d", c.CandidateFactor)
	}
	if c.CandidateCap < c.RetrievalTopK {
		return fmt.Errorf("candidate cap %d below top K %d", c.CandidateCap, c.RetrievalTopK)
	}
	if c.ContextTokenBudget < 1 {
		return fmt.Errorf("context token budget must be positive, got %d", c.ContextTokenBudget)
	}
	if c.SimilarityWeight < 0 || c.SimilarityWeight > 1 {
		return fmt.Errorf("similarity weight must be in [0,1], got %f", c.SimilarityWeight)
	}
	if c.RecencyWeight < 0 || c.RecencyWeight > 1 {
		return fmt.Errorf("recency weight must be in [0,1], got %f", c.RecencyWeight)
	}
	if c.RecencyScaleHours <= 0 {
		return fmt.Errorf("recency scale hours must be positive, got %f", c.RecencyScaleHours)
	}
	if c.SnapshotEveryAnswers < 1 {
		return fmt.Errorf("snapshot cadence must be positive, got %d", c.SnapshotEveryAnswers)
	}
	if c.MaxSnapshots < 1 {
		return fmt.Errorf("max snapshots must be positive, got %d", c.MaxSnapshots)
	}
	return nil
}
