package port

import (
	"context"

	"websearch/internal/domain"
)

// Embedder maps a batch of strings to vectors, one per input in input
// order. Implementations surface throttling as domain.ErrRateLimited
// and any other provider failure as *domain.ProviderError.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]domain.Embedding, error)

	// ModelName returns the name of the embedding model.
	ModelName() string
}
