package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"websearch/internal/adapter/analyzer"
	"websearch/internal/adapter/chunker"
	"websearch/internal/adapter/index"
	"websearch/internal/usecase"
)

var (
	siteQuery      string
	siteMaxResults int
	siteTFIDF      bool
	siteJSON       bool
)

var siteCmd = &cobra.Command{
	Use:   "site <url>",
	Short: "Crawl a site and rank its content against a query",
	Long: `Crawl the site starting at the given URL, following same-host links
under the configured caps, and print the chunks that best match the
query. Include and exclude globs from the config restrict which paths
are crawled.

Examples:
  websearch site https://go.dev/doc -q "error wrapping"
  websearch site https://docs.example.com -q "rate limits" --tfidf`,
	Args: cobra.ExactArgs(1),
	RunE: runSite,
}

func init() {
	rootCmd.AddCommand(siteCmd)
	siteCmd.Flags().StringVarP(&siteQuery, "query", "q", "", "query to rank crawled content against (required)")
	siteCmd.Flags().IntVarP(&siteMaxResults, "max-results", "n", 0, "number of chunks to return (default from config)")
	siteCmd.Flags().BoolVar(&siteTFIDF, "tfidf", false, "rank locally with TF-IDF, no embedding calls")
	siteCmd.Flags().BoolVar(&siteJSON, "json", false, "output as JSON")
	siteCmd.MarkFlagRequired("query")
}

func runSite(cmd *cobra.Command, args []string) error {
	embCache, pageCache, err := openCaches()
	if err != nil {
		return err
	}
	if pageCache != nil {
		defer pageCache.Close()
	}

	var resolver index.EmbeddingResolver
	var saver index.CacheSaver
	if batcher := newEmbeddingBatcher(embCache); batcher != nil {
		resolver = batcher
		saver = embCache
	}

	uc := usecase.NewSearchUseCase(
		newScraper(pageCache),
		chunker.New(cfg.Chunking.ResetBlankPerSection),
		resolver,
		saver,
		analyzer.NewTokenizer(),
	)

	opts := usecase.SearchOptions{
		MaxResults:    siteMaxResults,
		CrawlFullSite: true,
		UseTFIDF:      siteTFIDF || cfg.Search.UseTFIDF,
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = cfg.Search.MaxResults
	}

	chunks, err := uc.Search(cmd.Context(), siteQuery, args, opts)
	if err != nil {
		return err
	}

	if siteJSON {
		output, _ := json.MarshalIndent(chunks, "", "  ")
		fmt.Println(string(output))
		return nil
	}
	printChunks(siteQuery, chunks)
	return nil
}
