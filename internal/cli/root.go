package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"websearch/config"
	"websearch/internal/adapter/analyzer"
	"websearch/internal/adapter/embedding"
	"websearch/internal/adapter/scraper"
	"websearch/internal/adapter/searchapi"
	"websearch/internal/port"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "websearch",
	Short: "Search the web and rank page content against a query",
	Long: `websearch runs a query through a search engine, fetches the result
pages, splits them into chunks and ranks the chunks against the query
with embeddings (or TF-IDF when no provider is configured).

Example usage:
  websearch ask "how do go channels work"   # Search and rank
  websearch fetch https://go.dev/doc        # Fetch one page
  websearch site https://go.dev -q generics # Crawl a site and rank it
  websearch cache stats                     # Inspect the local caches`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			wd, werr := os.Getwd()
			if werr != nil {
				return fmt.Errorf("failed to get working directory: %w", werr)
			}
			cfg, err = config.LoadFromDir(wd)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		parsed, perr := zerolog.ParseLevel(level)
		if perr != nil {
			parsed = zerolog.InfoLevel
		}
		zerolog.SetGlobalLevel(parsed)

		return nil
	},
}

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./websearch.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// openCaches prepares the cache directory and opens the embedding and
// page caches. The page cache is best-effort: a failure to open it is
// logged and the tool continues without one.
func openCaches() (*embedding.Cache, *scraper.PageCache, error) {
	dir, err := cfg.CacheDir()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve cache dir: %w", err)
	}
	if err := config.EnsureCacheDir(dir); err != nil {
		return nil, nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	embCache := embedding.Open(config.EmbeddingCachePath(dir))

	pageCache, err := scraper.OpenPageCache(
		config.PageCachePath(dir),
		time.Duration(cfg.Cache.PageTTLHours)*time.Hour,
	)
	if err != nil {
		log.Warn().Err(err).Msg("page cache unavailable, fetching without it")
		pageCache = nil
	}

	return embCache, pageCache, nil
}

// newScraper builds the scraper from the config.
func newScraper(pageCache *scraper.PageCache) *scraper.Scraper {
	return scraper.New(scraper.Options{
		UserAgent:         cfg.Scraper.UserAgent,
		Timeout:           time.Duration(cfg.Scraper.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
		MaxPages:          cfg.Scraper.MaxPages,
		MaxDepth:          cfg.Scraper.MaxDepth,
		Includes:          cfg.Scraper.Includes,
		Excludes:          cfg.Scraper.Excludes,
	}, pageCache)
}

// newSearchEngine builds the configured search engine client.
func newSearchEngine() (port.SearchEngine, error) {
	apiKey := os.Getenv(cfg.Search.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("search engine API key not set (export %s)", cfg.Search.APIKeyEnv)
	}

	switch cfg.Search.Engine {
	case "tavily":
		return searchapi.NewTavilyClient(cfg.Search.BaseURL, apiKey), nil
	case "bing":
		return searchapi.NewBingClient(cfg.Search.BaseURL, apiKey), nil
	default:
		return nil, fmt.Errorf("unsupported search engine: %s", cfg.Search.Engine)
	}
}

// newEmbeddingBatcher builds the cache-first embedding resolver, or nil
// when embeddings are disabled or unconfigured.
func newEmbeddingBatcher(cache *embedding.Cache) *embedding.Batcher {
	if !cfg.Embedding.Enabled {
		return nil
	}
	apiKey := os.Getenv(cfg.Embedding.APIKeyEnv)
	if apiKey == "" {
		log.Debug().Str("env", cfg.Embedding.APIKeyEnv).Msg("no embedding API key, ranking with TF-IDF")
		return nil
	}

	client := embedding.NewClient(cfg.Embedding.BaseURL, apiKey, cfg.Embedding.Model)
	return embedding.NewBatcher(cache, client, analyzer.NewEstimator(), cfg.Embedding.BatchTokenBudget)
}
