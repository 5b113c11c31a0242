package index

import (
	"context"
	"sort"

	"websearch/internal/domain"
)

// minScoreThreshold filters out chunks whose boosted similarity is not
// strictly positive.
const minScoreThreshold = 0.0

// EmbeddingResolver resolves embeddings for a batch of texts,
// cache-first, in input order.
type EmbeddingResolver interface {
	GetEmbeddings(ctx context.Context, texts []string) ([]domain.Embedding, error)
}

// CacheSaver persists the embedding cache after a query added entries.
type CacheSaver interface {
	Save()
}

// EmbeddingIndex ranks ingested chunks by dot-product similarity to
// the query plus each chunk's static source boost. It owns the chunks
// of a single query session.
type EmbeddingIndex struct {
	resolver EmbeddingResolver
	saver    CacheSaver
	chunks   []domain.ScoredChunk
}

// NewEmbeddingIndex creates an index on top of the cache-first
// resolver. saver may be nil when the caller manages persistence.
func NewEmbeddingIndex(resolver EmbeddingResolver, saver CacheSaver) *EmbeddingIndex {
	return &EmbeddingIndex{resolver: resolver, saver: saver}
}

// Add ingests chunks. Insertion order is the ranking tie-break.
func (x *EmbeddingIndex) Add(chunks []domain.ScoredChunk) {
	x.chunks = append(x.chunks, chunks...)
}

// Search resolves the query's and every chunk's embedding in one
// cache-first batched pass, then returns the top maxResults chunks by
// descending score. Ties keep insertion order; scores <= 0 are
// dropped. Rate limiting propagates to the caller, which owns the
// fallback policy.
func (x *EmbeddingIndex) Search(ctx context.Context, query string, maxResults int) ([]domain.Chunk, error) {
	texts := make([]string, 0, len(x.chunks)+1)
	texts = append(texts, query)
	for _, chunk := range x.chunks {
		texts = append(texts, chunk.Text)
	}

	embeddings, err := x.resolver.GetEmbeddings(ctx, texts)
	if err != nil {
		return nil, err
	}
	queryEmbedding := embeddings[0]

	if x.saver != nil {
		x.saver.Save()
	}

	type scored struct {
		chunk domain.Chunk
		score float64
	}
	ranked := make([]scored, 0, len(x.chunks))
	for i, chunk := range x.chunks {
		score := domain.Dot(embeddings[i+1], queryEmbedding) + chunk.ScoreBonus
		if score <= minScoreThreshold {
			continue
		}
		ranked = append(ranked, scored{chunk: chunk.Chunk, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if maxResults >= 0 && len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}

	results := make([]domain.Chunk, len(ranked))
	for i, r := range ranked {
		results[i] = r.chunk
	}
	return results, nil
}
