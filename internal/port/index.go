package port

import (
	"context"

	"websearch/internal/domain"
)

// Index ranks ingested chunks against a query. An index owns the
// chunks of one query session and is not shared across unrelated
// queries.
type Index interface {
	Add(chunks []domain.ScoredChunk)

	// Search returns up to maxResults chunks ordered best-first.
	Search(ctx context.Context, query string, maxResults int) ([]domain.Chunk, error)
}
