package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"websearch/internal/domain"
)

// Options configures the scraper and crawler.
type Options struct {
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxPages          int
	MaxDepth          int
	Includes          []string // URL-path globs; empty means everything
	Excludes          []string
}

// Scraper fetches pages over HTTP and splits them into
// heading-delimited sections. Crawl walks same-host links
// breadth-first under the configured caps. A politeness limiter
// paces all requests; an optional page cache short-circuits
// recently fetched URLs.
type Scraper struct {
	client    *http.Client
	userAgent string
	limiter   *rate.Limiter
	cache     *PageCache
	maxPages  int
	maxDepth  int
	includes  []string
	excludes  []string
}

// New creates a Scraper. cache may be nil to disable page caching.
func New(opts Options, cache *PageCache) *Scraper {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 50
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = 3
	}
	return &Scraper{
		client:    &http.Client{Timeout: opts.Timeout},
		userAgent: opts.UserAgent,
		limiter:   rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		cache:     cache,
		maxPages:  opts.MaxPages,
		maxDepth:  opts.MaxDepth,
		includes:  opts.Includes,
		excludes:  opts.Excludes,
	}
}

// Scrape fetches a single page.
func (s *Scraper) Scrape(ctx context.Context, pageURL string) (domain.Page, error) {
	page, _, err := s.fetch(ctx, pageURL)
	return page, err
}

// Crawl walks the site starting at startURL, breadth-first, visiting
// only same-host links whose paths pass the include/exclude globs.
// The start page is always first in the result.
func (s *Scraper) Crawl(ctx context.Context, startURL string) ([]domain.Page, error) {
	start, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("invalid crawl root %q: %w", startURL, err)
	}

	type frontierItem struct {
		url   string
		depth int
	}

	var pages []domain.Page
	seen := map[string]bool{start.String(): true}
	frontier := []frontierItem{{url: start.String(), depth: 0}}

	for len(frontier) > 0 && len(pages) < s.maxPages {
		item := frontier[0]
		frontier = frontier[1:]

		page, links, err := s.fetch(ctx, item.url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// The start page must succeed; deeper failures are skipped.
			if len(pages) == 0 {
				return nil, err
			}
			log.Debug().Err(err).Str("url", item.url).Msg("skipping unfetchable page")
			continue
		}
		pages = append(pages, page)

		if item.depth >= s.maxDepth {
			continue
		}
		for _, link := range links {
			next, ok := s.admissible(start, link)
			if !ok || seen[next] {
				continue
			}
			seen[next] = true
			frontier = append(frontier, frontierItem{url: next, depth: item.depth + 1})
		}
	}

	return pages, nil
}

// admissible resolves link against the crawl root and applies the
// same-host and path-glob policies.
func (s *Scraper) admissible(root *url.URL, link string) (string, bool) {
	ref, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	resolved := root.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if resolved.Host != root.Host {
		return "", false
	}
	resolved.Fragment = ""

	path := strings.TrimPrefix(resolved.Path, "/")
	if len(s.includes) > 0 && !matchAny(s.includes, path) {
		return "", false
	}
	if matchAny(s.excludes, path) {
		return "", false
	}
	return resolved.String(), true
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// fetch retrieves one page, consulting the cache first, and returns
// the parsed page plus the raw links found in it.
func (s *Scraper) fetch(ctx context.Context, pageURL string) (domain.Page, []string, error) {
	if s.cache != nil {
		if page, links, ok := s.cache.Get(pageURL); ok {
			return page, links, nil
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return domain.Page{}, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return domain.Page{}, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.Page{}, nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Page{}, nil, fmt.Errorf("fetch %s: unexpected status %d", pageURL, resp.StatusCode)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return domain.Page{}, nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	page := domain.Page{URL: pageURL, Sections: extractSections(root)}
	links := extractLinks(root)

	if s.cache != nil {
		s.cache.Put(page, links)
	}
	return page, links, nil
}
