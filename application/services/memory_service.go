package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"ideaforge/application/ports"
	"ideaforge/domain/config"
	"ideaforge/domain/core/entities"
	"ideaforge/domain/core/valueobjects"
	pkgerrors "ideaforge/pkg/errors"
	"ideaforge/pkg/observability"
	"ideaforge/pkg/tokens"
	"ideaforge/pkg/utils"
)

// RetrievedChunk is one memory fragment selected for prompt context,
// with its hybrid relevance score
type RetrievedChunk struct {
	Chunk *entities.MemoryChunk
	Score float64
}

// MemoryService is the per-session semantic memory store. Every write and
// read is best-effort: a failing embedder or index degrades the interview
// to template-only context but never stops it. Callers hold the session
// lock, which is what makes retire-then-insert safe against concurrent
// retrieves.
type MemoryService struct {
	index    ports.ChunkIndex
	embedder ports.Embedder
	counter  *tokens.Counter
	cfg      *config.DomainConfig
	metrics  *observability.Collector
	logger   *zap.Logger
}

// NewMemoryService creates a new memory service
func NewMemoryService(
	index ports.ChunkIndex,
	embedder ports.Embedder,
	counter *tokens.Counter,
	cfg *config.DomainConfig,
	metrics *observability.Collector,
	logger *zap.Logger,
) *MemoryService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &MemoryService{
		index:    index,
		embedder: embedder,
		counter:  counter,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
	}
}

// Persist stores a question/answer pair as one retrievable chunk.
// Identical re-submissions are detected by content hash and dropped; a
// changed answer to a question that already has a live chunk retires the
// old chunk first so the single-live-chunk invariant holds.
func (s *MemoryService) Persist(ctx context.Context, sessionID valueobjects.SessionID, questionText, answerText string) {
	content := entities.ComposeChunkContent(questionText, answerText)
	hash := entities.ChunkContentHash(content)

	exists, err := s.index.ExistsByHash(ctx, sessionID, hash)
	if err != nil {
		s.degrade("persist", sessionID, err)
		return
	}
	if exists {
		s.logger.Debug("duplicate chunk content, skipping persist",
			zap.String("sessionID", sessionID.String()))
		return
	}

	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		s.degrade("persist", sessionID, err)
		return
	}

	chunk, err := entities.NewMemoryChunk(sessionID, questionText, answerText, embedding, s.counter.Count(content))
	if err != nil {
		s.degrade("persist", sessionID, err)
		return
	}

	if err := s.retireLive(ctx, sessionID, questionText); err != nil {
		s.degrade("persist", sessionID, err)
		return
	}

	if err := s.index.Insert(ctx, chunk); err != nil {
		s.degrade("persist", sessionID, err)
		return
	}

	s.metrics.ObserveMemoryOp("persist", nil)
	s.logger.Debug("memory chunk stored",
		zap.String("sessionID", sessionID.String()),
		zap.String("chunkID", chunk.ID().String()),
		zap.Int("tokens", chunk.TokenCount()),
	)
}

// Retrieve returns the most relevant memory fragments for a query, best
// first. Ranking is hybrid: cosine similarity against the query embedding
// blended with recency, so late-interview turns still surface early
// answers that stayed on topic. The result is capped both by count (topK)
// and by a cumulative token budget. On any failure it returns nil.
func (s *MemoryService) Retrieve(ctx context.Context, sessionID valueobjects.SessionID, query string, topK int) []RetrievedChunk {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if topK <= 0 {
		topK = s.cfg.RetrievalTopK
	}

	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.degrade("retrieve", sessionID, err)
		return nil
	}

	// Over-fetch so the recency blend has candidates beyond the pure
	// similarity cut.
	limit := topK * s.cfg.CandidateFactor
	if limit > s.cfg.CandidateCap {
		limit = s.cfg.CandidateCap
	}
	if limit < topK {
		limit = topK
	}

	candidates, err := s.index.Search(ctx, sessionID, queryEmbedding, limit)
	if err != nil {
		s.degrade("retrieve", sessionID, err)
		return nil
	}
	if len(candidates) == 0 {
		s.metrics.ObserveMemoryOp("retrieve", nil)
		return nil
	}

	now := time.Now()
	scored := make([]RetrievedChunk, 0, len(candidates))
	for _, cand := range candidates {
		age := utils.AgeHours(cand.Chunk.CreatedAt(), now)
		recency := 1.0 / (1.0 + age/s.cfg.RecencyScaleHours)
		scored = append(scored, RetrievedChunk{
			Chunk: cand.Chunk,
			Score: s.cfg.SimilarityWeight*cand.Similarity + s.cfg.RecencyWeight*recency,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	seen := make(map[string]bool, len(scored))
	budget := s.cfg.ContextTokenBudget
	used := 0
	out := make([]RetrievedChunk, 0, topK)

	for _, sc := range scored {
		if len(out) >= topK {
			break
		}
		if seen[sc.Chunk.ContentHash()] {
			continue
		}

		cost := sc.Chunk.TokenCount()
		if cost == 0 {
			cost = s.counter.Count(sc.Chunk.Content())
		}
		if used+cost > budget {
			break
		}

		seen[sc.Chunk.ContentHash()] = true
		used += cost
		out = append(out, sc)
	}

	s.metrics.ObserveMemoryOp("retrieve", nil)
	s.logger.Debug("memory retrieved",
		zap.String("sessionID", sessionID.String()),
		zap.Int("candidates", len(candidates)),
		zap.Int("selected", len(out)),
		zap.Int("tokensUsed", used),
	)

	return out
}

// Update replaces the stored answer for a question after an edit. It
// reports false when no live chunk matches the question text exactly;
// the caller treats that as a tolerated no-op. The old chunk stays live
// until the replacement is ready, so a failed embed loses nothing.
func (s *MemoryService) Update(ctx context.Context, sessionID valueobjects.SessionID, questionText, newAnswer string) bool {
	prev, err := s.index.FindLiveByQuestion(ctx, sessionID, strings.TrimSpace(questionText))
	if err != nil {
		if errors.Is(err, pkgerrors.ErrChunkNotFound) {
			s.logger.Warn("memory update target missing, transcript and memory may diverge",
				zap.String("sessionID", sessionID.String()))
			return false
		}
		s.degrade("update", sessionID, err)
		return false
	}

	content := entities.ComposeChunkContent(questionText, newAnswer)
	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		s.degrade("update", sessionID, err)
		return false
	}

	replacement, err := entities.NewMemoryChunk(sessionID, questionText, newAnswer, embedding, s.counter.Count(content))
	if err != nil {
		s.degrade("update", sessionID, err)
		return false
	}
	replacement.MarkEdited()

	if err := s.index.Retire(ctx, sessionID, prev.ID()); err != nil {
		s.degrade("update", sessionID, err)
		return false
	}
	if err := s.index.Insert(ctx, replacement); err != nil {
		s.degrade("update", sessionID, err)
		return false
	}

	s.metrics.ObserveMemoryOp("update", nil)
	s.logger.Info("memory chunk replaced after edit",
		zap.String("sessionID", sessionID.String()),
		zap.String("retired", prev.ID().String()),
		zap.String("chunkID", replacement.ID().String()),
	)

	return true
}

// Count returns the number of live chunks for a session, 0 on failure
func (s *MemoryService) Count(ctx context.Context, sessionID valueobjects.SessionID) int {
	n, err := s.index.CountLive(ctx, sessionID)
	if err != nil {
		s.degrade("count", sessionID, err)
		return 0
	}
	return n
}

// Forget removes every chunk for a session. Used by the interview start
// compensation path so a failed start leaves no memory behind.
func (s *MemoryService) Forget(ctx context.Context, sessionID valueobjects.SessionID) error {
	return s.index.DeleteBySession(ctx, sessionID)
}

// retireLive retires the live chunk for a question if one exists
func (s *MemoryService) retireLive(ctx context.Context, sessionID valueobjects.SessionID, questionText string) error {
	prev, err := s.index.FindLiveByQuestion(ctx, sessionID, strings.TrimSpace(questionText))
	if err != nil {
		if errors.Is(err, pkgerrors.ErrChunkNotFound) {
			return nil
		}
		return err
	}
	return s.index.Retire(ctx, sessionID, prev.ID())
}

// degrade records a memory failure and moves on. Memory loss is always
// preferable to a stalled interview.
func (s *MemoryService) degrade(op string, sessionID valueobjects.SessionID, err error) {
	s.metrics.ObserveMemoryOp(op, err)
	s.logger.Warn("memory operation degraded, continuing without it",
		zap.String("op", op),
		zap.String("sessionID", sessionID.String()),
		zap.Error(err),
	)
}
