package memory

import (
	"context"
	"sort"
	"sync"

	"ideaforge/application/ports"
	"ideaforge/domain/core/entities"
	"ideaforge/domain/core/valueobjects"
	pkgerrors "ideaforge/pkg/errors"
	"ideaforge/pkg/similarity"
)

// ChunkIndex keeps memory chunks in per-session slices. Retired chunks
// stay in the slice, mirroring the audit behavior of the durable
// driver.
type ChunkIndex struct {
	mu     sync.RWMutex
	chunks map[string][]*entities.MemoryChunk
}

// NewChunkIndex creates an empty in-memory chunk index
func NewChunkIndex() *ChunkIndex {
	return &ChunkIndex{
		chunks: make(map[string][]*entities.MemoryChunk),
	}
}

// Insert stores a live chunk
func (i *ChunkIndex) Insert(ctx context.Context, chunk *entities.MemoryChunk) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	key := chunk.SessionID().String()
	i.chunks[key] = append(i.chunks[key], chunk)
	return nil
}

// FindLiveByQuestion returns the newest live chunk matching the
// question text exactly, or ErrChunkNotFound.
func (i *ChunkIndex) FindLiveByQuestion(ctx context.Context, sessionID valueobjects.SessionID, questionText string) (*entities.MemoryChunk, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	var found *entities.MemoryChunk
	for _, c := range i.chunks[sessionID.String()] {
		if c.IsRetired() || c.QuestionText() != questionText {
			continue
		}
		if found == nil || c.CreatedAt().After(found.CreatedAt()) {
			found = c
		}
	}
	if found == nil {
		return nil, pkgerrors.ErrChunkNotFound
	}
	return found, nil
}

// ExistsByHash reports whether a live chunk with the content hash exists
func (i *ChunkIndex) ExistsByHash(ctx context.Context, sessionID valueobjects.SessionID, contentHash string) (bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	for _, c := range i.chunks[sessionID.String()] {
		if !c.IsRetired() && c.ContentHash() == contentHash {
			return true, nil
		}
	}
	return false, nil
}

// Search ranks live chunks by cosine similarity, most similar first
func (i *ChunkIndex) Search(ctx context.Context, sessionID valueobjects.SessionID, query []float32, limit int) ([]ports.ScoredChunk, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	var scored []ports.ScoredChunk
	for _, c := range i.chunks[sessionID.String()] {
		if c.IsRetired() {
			continue
		}
		scored = append(scored, ports.ScoredChunk{
			Chunk:      c,
			Similarity: similarity.Cosine(query, c.Embedding()),
		})
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Similarity > scored[b].Similarity
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// Retire removes a chunk from the retrievable set
func (i *ChunkIndex) Retire(ctx context.Context, sessionID valueobjects.SessionID, id valueobjects.ChunkID) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, c := range i.chunks[sessionID.String()] {
		if c.ID().Equals(id) {
			c.Retire()
			return nil
		}
	}
	return nil
}

// CountLive returns the number of retrievable chunks for a session
func (i *ChunkIndex) CountLive(ctx context.Context, sessionID valueobjects.SessionID) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	count := 0
	for _, c := range i.chunks[sessionID.String()] {
		if !c.IsRetired() {
			count++
		}
	}
	return count, nil
}

// DeleteBySession removes all chunks for a session
func (i *ChunkIndex) DeleteBySession(ctx context.Context, sessionID valueobjects.SessionID) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.chunks, sessionID.String())
	return nil
}
