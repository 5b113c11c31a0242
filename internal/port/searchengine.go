package port

import (
	"context"

	"websearch/internal/domain"
)

// SearchEngine is a remote search-results API producing the URL list
// the crawler and the core consume.
type SearchEngine interface {
	Search(ctx context.Context, query string) (domain.WebSearchResults, error)
}
