package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"math"
	"sort"
	"time"

	"ideaforge/application/ports"
	"ideaforge/domain/core/entities"
	"ideaforge/domain/core/valueobjects"
	pkgerrors "ideaforge/pkg/errors"
	"ideaforge/pkg/similarity"
)

// ChunkIndex stores memory chunks with their embeddings and answers
// similarity queries by scanning the session's live rows. Sessions hold
// tens of chunks, not thousands, so a linear scan beats maintaining an
// index structure.
type ChunkIndex struct {
	db Executor
}

// NewChunkIndex creates a chunk index on the given executor
func NewChunkIndex(db Executor) *ChunkIndex {
	return &ChunkIndex{db: db}
}

// Insert stores a live chunk
func (i *ChunkIndex) Insert(ctx context.Context, chunk *entities.MemoryChunk) error {
	_, err := i.db.ExecContext(ctx,
		`INSERT INTO chunks
		 (id, session_id, question_text, answer_text, content, content_hash, embedding, token_count, edited, retired, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		chunk.ID().String(),
		chunk.SessionID().String(),
		chunk.QuestionText(),
		chunk.AnswerText(),
		chunk.Content(),
		chunk.ContentHash(),
		encodeEmbedding(chunk.Embedding()),
		chunk.TokenCount(),
		chunk.IsEdited(),
		chunk.IsRetired(),
		chunk.CreatedAt(),
	)
	if err != nil {
		return pkgerrors.NewDatabaseError("insert chunk", err)
	}
	return nil
}

// FindLiveByQuestion returns the live chunk whose question text matches
// exactly, or ErrChunkNotFound when none exists.
func (i *ChunkIndex) FindLiveByQuestion(ctx context.Context, sessionID valueobjects.SessionID, questionText string) (*entities.MemoryChunk, error) {
	row := i.db.QueryRowContext(ctx,
		`SELECT id, question_text, answer_text, content, content_hash, embedding, token_count, edited, retired, created_at
		 FROM chunks
		 WHERE session_id = ? AND question_text = ? AND retired = 0
		 ORDER BY created_at DESC LIMIT 1`,
		sessionID.String(), questionText)

	chunk, err := scanChunk(row, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrChunkNotFound
	}
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("find chunk", err)
	}
	return chunk, nil
}

// ExistsByHash reports whether a live chunk with the given content hash
// already exists for the session.
func (i *ChunkIndex) ExistsByHash(ctx context.Context, sessionID valueobjects.SessionID, contentHash string) (bool, error) {
	var exists bool
	err := i.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM chunks WHERE session_id = ? AND content_hash = ? AND retired = 0)`,
		sessionID.String(), contentHash).Scan(&exists)
	if err != nil {
		return false, pkgerrors.NewDatabaseError("check chunk hash", err)
	}
	return exists, nil
}

// Search ranks the session's live chunks by cosine similarity to the
// query embedding and returns the top limit, most similar first.
func (i *ChunkIndex) Search(ctx context.Context, sessionID valueobjects.SessionID, query []float32, limit int) ([]ports.ScoredChunk, error) {
	rows, err := i.db.QueryContext(ctx,
		`SELECT id, question_text, answer_text, content, content_hash, embedding, token_count, edited, retired, created_at
		 FROM chunks WHERE session_id = ? AND retired = 0`,
		sessionID.String())
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("search chunks", err)
	}
	defer rows.Close()

	var scored []ports.ScoredChunk
	for rows.Next() {
		chunk, err := scanChunkRows(rows, sessionID)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("scan chunk", err)
		}
		scored = append(scored, ports.ScoredChunk{
			Chunk:      chunk,
			Similarity: similarity.Cosine(query, chunk.Embedding()),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, pkgerrors.NewDatabaseError("search chunks", err)
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Similarity > scored[b].Similarity
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// Retire removes a chunk from the retrievable set. The row is kept for
// audit; only live chunks participate in search and dedup.
func (i *ChunkIndex) Retire(ctx context.Context, sessionID valueobjects.SessionID, id valueobjects.ChunkID) error {
	_, err := i.db.ExecContext(ctx,
		`UPDATE chunks SET retired = 1 WHERE id = ? AND session_id = ?`,
		id.String(), sessionID.String())
	if err != nil {
		return pkgerrors.NewDatabaseError("retire chunk", err)
	}
	return nil
}

// CountLive returns the number of retrievable chunks for a session
func (i *ChunkIndex) CountLive(ctx context.Context, sessionID valueobjects.SessionID) (int, error) {
	var count int
	err := i.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunks WHERE session_id = ? AND retired = 0`,
		sessionID.String()).Scan(&count)
	if err != nil {
		return 0, pkgerrors.NewDatabaseError("count chunks", err)
	}
	return count, nil
}

// DeleteBySession removes all chunks for a session
func (i *ChunkIndex) DeleteBySession(ctx context.Context, sessionID valueobjects.SessionID) error {
	_, err := i.db.ExecContext(ctx,
		`DELETE FROM chunks WHERE session_id = ?`, sessionID.String())
	if err != nil {
		return pkgerrors.NewDatabaseError("delete chunks", err)
	}
	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for chunk hydration
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanChunk(row rowScanner, sessionID valueobjects.SessionID) (*entities.MemoryChunk, error) {
	var (
		idStr        string
		questionText string
		answerText   string
		content      string
		contentHash  string
		embeddingRaw []byte
		tokenCount   int
		edited       bool
		retired      bool
		createdAt    time.Time
	)
	if err := row.Scan(&idStr, &questionText, &answerText, &content, &contentHash,
		&embeddingRaw, &tokenCount, &edited, &retired, &createdAt); err != nil {
		return nil, err
	}

	chunkID, err := valueobjects.NewChunkIDFromString(idStr)
	if err != nil {
		return nil, err
	}

	return entities.ReconstructMemoryChunk(chunkID, sessionID, questionText, answerText,
		content, contentHash, decodeEmbedding(embeddingRaw), tokenCount, edited, retired, createdAt), nil
}

func scanChunkRows(rows *sql.Rows, sessionID valueobjects.SessionID) (*entities.MemoryChunk, error) {
	return scanChunk(rows, sessionID)
}

// encodeEmbedding packs a vector as little-endian float32 bytes
func encodeEmbedding(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeEmbedding unpacks little-endian float32 bytes into a vector
func decodeEmbedding(raw []byte) []float32 {
	vec := make([]float32, len(raw)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return vec
}
