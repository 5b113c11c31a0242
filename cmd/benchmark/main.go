package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"websearch/config"
	"websearch/internal/adapter/analyzer"
	"websearch/internal/adapter/chunker"
	"websearch/internal/adapter/embedding"
	"websearch/internal/adapter/index"
	"websearch/internal/adapter/scraper"
	"websearch/internal/domain"
	"websearch/internal/port"
)

func main() {
	site := flag.String("site", "", "Site to crawl and rank")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	flag.Parse()

	if *site == "" || *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -site https://docs.example.com -q \"query\"")
		fmt.Println("\nCompares TF-IDF against embedding ranking on real crawled content:")
		fmt.Println("  1. Crawl timing and page/chunk counts")
		fmt.Println("  2. Ranking latency per index")
		fmt.Println("  3. Agreement between the two rankings")
		os.Exit(1)
	}

	cwd, _ := os.Getwd()
	cfg, err := config.LoadFromDir(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	s := scraper.New(scraper.Options{
		UserAgent:         cfg.Scraper.UserAgent,
		RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
		MaxPages:          cfg.Scraper.MaxPages,
		MaxDepth:          cfg.Scraper.MaxDepth,
	}, nil)

	fmt.Println("RANKING BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))

	crawlStart := time.Now()
	pages, err := s.Crawl(ctx, *site)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crawl error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Crawled %d pages in %s\n", len(pages), time.Since(crawlStart).Round(time.Millisecond))

	chunks := chunkPages(pages, cfg.Chunking.MaxTokens, cfg.Chunking.ResetBlankPerSection)
	fmt.Printf("Chunks: %d\n\n", len(chunks))
	fmt.Printf("Query: %q\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	tokenizer := analyzer.NewTokenizer()
	tfidfResults := runIndex(ctx, "TF-IDF", index.NewTFIDFIndex(tokenizer), chunks, *query, *topK)

	apiKey := os.Getenv(cfg.Embedding.APIKeyEnv)
	if !cfg.Embedding.Enabled || apiKey == "" {
		fmt.Println("\nEmbedding ranking skipped: no API key configured")
		return
	}

	cache := embedding.Open(config.EmbeddingCachePath(os.TempDir()))
	client := embedding.NewClient(cfg.Embedding.BaseURL, apiKey, cfg.Embedding.Model)
	batcher := embedding.NewBatcher(cache, client, analyzer.NewEstimator(), cfg.Embedding.BatchTokenBudget)
	embResults := runIndex(ctx, "Embedding", index.NewEmbeddingIndex(batcher, nil), chunks, *query, *topK)

	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Agreement (same sources in top %d): %.0f%%\n", *topK, overlap(tfidfResults, embResults)*100)
}

func chunkPages(pages []domain.Page, maxTokens int, resetBlank bool) []domain.ScoredChunk {
	ch := chunker.New(resetBlank)
	var out []domain.ScoredChunk
	for _, page := range pages {
		sections := make([]string, 0, len(page.Sections))
		for _, s := range page.Sections {
			sections = append(sections, fmt.Sprintf("# %s\n%s\n\n", s.Heading, s.Content))
		}
		for _, c := range ch.Chunk(sections, maxTokens) {
			c.Source = page.URL
			out = append(out, domain.ScoredChunk{Chunk: c})
		}
	}
	return out
}

func runIndex(ctx context.Context, name string, idx port.Index, chunks []domain.ScoredChunk, query string, topK int) []domain.Chunk {
	idx.Add(chunks)

	start := time.Now()
	results, err := idx.Search(ctx, query, topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s search error: %v\n", name, err)
		return nil
	}
	fmt.Printf("\n%s: %d results in %s\n", name, len(results), time.Since(start).Round(time.Millisecond))

	for i, r := range results {
		preview := strings.ReplaceAll(r.Text, "\n", " ")
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		fmt.Printf("  %d. %s\n     %s\n", i+1, r.Source, preview)
	}
	return results
}

func overlap(a, b []domain.Chunk) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(a))
	for _, c := range a {
		seen[c.Source] = true
	}
	matched := 0
	for _, c := range b {
		if seen[c.Source] {
			matched++
		}
	}
	return float64(matched) / float64(len(b))
}
