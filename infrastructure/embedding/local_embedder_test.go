package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideaforge/pkg/similarity"
)

func TestHashingEmbedder_DeterministicOutput(t *testing.T) {
	// Arrange
	embedder := NewHashingEmbedder(64)

	// Act
	first, err := embedder.Embed(context.Background(), "A planner for weekly family meals.")
	require.NoError(t, err)
	second, err := embedder.Embed(context.Background(), "A planner for weekly family meals.")
	require.NoError(t, err)

	// Assert
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestHashingEmbedder_OutputIsUnitLength(t *testing.T) {
	embedder := NewHashingEmbedder(128)

	vec, err := embedder.Embed(context.Background(), "Track expenses across shared households.")
	require.NoError(t, err)

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-5)
}

func TestHashingEmbedder_SharedVocabularyScoresHigher(t *testing.T) {
	// Arrange
	embedder := NewHashingEmbedder(256)
	base, err := embedder.Embed(context.Background(), "A mobile app that plans family dinners for the week.")
	require.NoError(t, err)

	related, err := embedder.Embed(context.Background(), "The app plans dinners for busy families every week.")
	require.NoError(t, err)
	unrelated, err := embedder.Embed(context.Background(), "Quarterly depreciation schedules under local tax law.")
	require.NoError(t, err)

	// Assert: vocabulary overlap dominates the ranking
	assert.Greater(t, similarity.Cosine(base, related), similarity.Cosine(base, unrelated))
}

func TestHashingEmbedder_EmptyTextRejected(t *testing.T) {
	embedder := NewHashingEmbedder(64)

	_, err := embedder.Embed(context.Background(), "   \t  ")

	assert.Error(t, err)
}

func TestHashingEmbedder_DefaultDimensions(t *testing.T) {
	embedder := NewHashingEmbedder(0)

	assert.Equal(t, DefaultDimensions, embedder.Dimensions())
}
