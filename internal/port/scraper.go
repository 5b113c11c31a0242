package port

import (
	"context"

	"websearch/internal/domain"
)

// Scraper retrieves page content for the core. Scrape fetches a single
// page; Crawl walks a site starting at url and returns every page
// found, the start page first.
type Scraper interface {
	Scrape(ctx context.Context, url string) (domain.Page, error)

	Crawl(ctx context.Context, url string) ([]domain.Page, error)
}
