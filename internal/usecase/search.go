package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"websearch/internal/adapter/analyzer"
	"websearch/internal/adapter/chunker"
	"websearch/internal/adapter/index"
	"websearch/internal/domain"
	"websearch/internal/port"
)

const (
	// chunkTokens is the per-chunk token budget applied to fetched
	// page content before ranking.
	chunkTokens = 600

	// DefaultMaxResults is used when the caller does not pick a limit.
	DefaultMaxResults = 5
)

// SearchUseCase fetches a ranked list of URLs, chunks their content and
// ranks the chunks against the query. Embedding ranking is used when a
// resolver is configured; TF-IDF otherwise. When the embedding provider
// rate-limits, the result degrades to per-URL snippet chunks instead of
// failing the whole search.
type SearchUseCase struct {
	scraper   port.Scraper
	chunker   *chunker.Chunker
	resolver  index.EmbeddingResolver
	saver     index.CacheSaver
	tokenizer *analyzer.Tokenizer
}

// NewSearchUseCase creates a search use case. resolver may be nil to
// force TF-IDF ranking; saver may be nil when nothing needs persisting.
func NewSearchUseCase(
	scraper port.Scraper,
	chunker *chunker.Chunker,
	resolver index.EmbeddingResolver,
	saver index.CacheSaver,
	tokenizer *analyzer.Tokenizer,
) *SearchUseCase {
	return &SearchUseCase{
		scraper:   scraper,
		chunker:   chunker,
		resolver:  resolver,
		saver:     saver,
		tokenizer: tokenizer,
	}
}

// SearchOptions tune a single search.
type SearchOptions struct {
	MaxResults    int
	CrawlFullSite bool
	UseTFIDF      bool

	// Snippets maps URL to the search engine's snippet for it, used
	// as fallback content when embedding ranking is rate-limited.
	Snippets map[string]string

	// Progress, when set, is called after each URL finishes fetching.
	// It may be called from multiple goroutines.
	Progress func(fetched, total int)
}

// urlBoost is the static score bonus for chunks from the i-th ranked
// URL (0-based). Earlier URLs get a larger, slowly decaying boost.
func urlBoost(i int) float64 {
	return 1 / float64(10+i)
}

// Search fetches urls in their given rank order, chunks every page and
// returns the top chunks for query. A nil error with zero chunks means
// nothing scored above zero.
func (u *SearchUseCase) Search(ctx context.Context, query string, urls []string, opts SearchOptions) ([]domain.Chunk, error) {
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if len(urls) == 0 {
		return nil, nil
	}

	pages, err := u.fetchAll(ctx, urls, opts.CrawlFullSite, opts.Progress)
	if err != nil {
		return nil, err
	}

	idx := u.buildIndex(opts)
	for i, urlPages := range pages {
		boost := urlBoost(i)
		for _, page := range urlPages {
			chunks := u.chunker.Chunk(flattenPage(page), chunkTokens)
			scored := make([]domain.ScoredChunk, 0, len(chunks))
			for _, c := range chunks {
				c.Source = page.URL
				scored = append(scored, domain.ScoredChunk{Chunk: c, ScoreBonus: boost})
			}
			idx.Add(scored)
		}
	}

	results, err := idx.Search(ctx, query, opts.MaxResults)
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			log.Warn().Err(err).Msg("embedding provider rate limited, falling back to snippets")
			return u.fallbackChunks(urls, pages, opts), nil
		}
		return nil, err
	}
	return results, nil
}

// SearchWeb runs query through the search engine, then ranks chunks
// from the result URLs. The engine's results and answer are returned
// alongside the chunks.
func (u *SearchUseCase) SearchWeb(ctx context.Context, engine port.SearchEngine, query string, opts SearchOptions) (domain.WebSearchResults, []domain.Chunk, error) {
	webResults, err := engine.Search(ctx, query)
	if err != nil {
		return domain.WebSearchResults{}, nil, fmt.Errorf("web search failed: %w", err)
	}

	urls := make([]string, 0, len(webResults.Results))
	snippets := make(map[string]string, len(webResults.Results))
	for _, r := range webResults.Results {
		urls = append(urls, r.URL)
		if r.Snippet != "" {
			snippets[r.URL] = r.Snippet
		}
	}
	opts.Snippets = snippets

	chunks, err := u.Search(ctx, query, urls, opts)
	if err != nil {
		return domain.WebSearchResults{}, nil, err
	}
	return webResults, chunks, nil
}

// fetchAll retrieves pages for every URL concurrently, preserving the
// input rank order. A URL that fails to fetch is logged and skipped;
// the search proceeds on the rest. Cancellation aborts everything.
func (u *SearchUseCase) fetchAll(ctx context.Context, urls []string, crawl bool, progress func(fetched, total int)) ([][]domain.Page, error) {
	pages := make([][]domain.Page, len(urls))

	var fetched atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	for i, pageURL := range urls {
		i, pageURL := i, pageURL
		g.Go(func() error {
			if progress != nil {
				defer func() { progress(int(fetched.Add(1)), len(urls)) }()
			}
			var err error
			if crawl {
				pages[i], err = u.scraper.Crawl(ctx, pageURL)
			} else {
				var page domain.Page
				page, err = u.scraper.Scrape(ctx, pageURL)
				if err == nil {
					pages[i] = []domain.Page{page}
				}
			}
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warn().Err(err).Str("url", pageURL).Msg("skipping unfetchable result")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

func (u *SearchUseCase) buildIndex(opts SearchOptions) port.Index {
	if opts.UseTFIDF || u.resolver == nil {
		return index.NewTFIDFIndex(u.tokenizer)
	}
	return index.NewEmbeddingIndex(u.resolver, u.saver)
}

// flattenPage renders a page as ordered section texts for the chunker:
// the URL first, then each section as a markdown-style heading block.
func flattenPage(page domain.Page) []string {
	sections := make([]string, 0, len(page.Sections)+1)
	sections = append(sections, page.URL+"\n")
	for _, s := range page.Sections {
		sections = append(sections, fmt.Sprintf("# %s\n%s\n\n", s.Heading, s.Content))
	}
	return sections
}

// fallbackChunks builds one chunk per URL from engine snippets, or from
// the fetched page content when no snippet is available. Rank order is
// preserved and the result is capped at MaxResults.
func (u *SearchUseCase) fallbackChunks(urls []string, pages [][]domain.Page, opts SearchOptions) []domain.Chunk {
	var chunks []domain.Chunk
	for i, pageURL := range urls {
		if len(chunks) >= opts.MaxResults {
			break
		}
		if snippet := opts.Snippets[pageURL]; snippet != "" {
			chunks = append(chunks, domain.Chunk{
				Source:  pageURL,
				Text:    snippet,
				Sources: []string{snippet},
			})
			continue
		}
		if i < len(pages) && len(pages[i]) > 0 {
			text := strings.TrimSpace(strings.Join(flattenPage(pages[i][0]), ""))
			if text == "" {
				continue
			}
			chunks = append(chunks, domain.Chunk{
				Source:  pageURL,
				Text:    text,
				Sources: []string{text},
			})
		}
	}
	return chunks
}
