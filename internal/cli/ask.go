package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"websearch/internal/adapter/analyzer"
	"websearch/internal/adapter/chunker"
	"websearch/internal/adapter/index"
	"websearch/internal/domain"
	"websearch/internal/usecase"
)

var (
	askMaxResults  int
	askCrawl       bool
	askTFIDF       bool
	askJSON        bool
	askResultsOnly bool
)

var askCmd = &cobra.Command{
	Use:   "ask <query>",
	Short: "Search the web and print the best matching chunks",
	Long: `Run the query through the configured search engine, fetch the result
pages and print the chunks that best match the query.

Examples:
  websearch ask "how do go channels work"
  websearch ask --crawl --max-results 10 "kubernetes operators"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().IntVarP(&askMaxResults, "max-results", "n", 0, "number of chunks to return (default from config)")
	askCmd.Flags().BoolVar(&askCrawl, "crawl", false, "crawl each result site instead of fetching one page")
	askCmd.Flags().BoolVar(&askTFIDF, "tfidf", false, "rank locally with TF-IDF, no embedding calls")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.Flags().BoolVar(&askResultsOnly, "results-only", false, "print engine snippets without fetching or ranking pages")
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	engine, err := newSearchEngine()
	if err != nil {
		return err
	}

	if askResultsOnly || cfg.Search.UseResultsDirectly {
		webResults, err := engine.Search(cmd.Context(), query)
		if err != nil {
			return err
		}
		printResults(webResults)
		return nil
	}

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
		MaxResults:    askMaxResults,
		CrawlFullSite: askCrawl || cfg.Search.CrawlFullSite,
		UseTFIDF:      askTFIDF || cfg.Search.UseTFIDF,
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = cfg.Search.MaxResults
	}

	if !askJSON {
		var bar *progressbar.ProgressBar
		var barMu sync.Mutex
		opts.Progress = func(fetched, total int) {
			barMu.Lock()
			defer barMu.Unlock()
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Fetching"),
					progressbar.OptionShowCount(),
					progressbar.OptionSetWidth(40),
					progressbar.OptionOnCompletion(func() {
						fmt.Println()
					}),
				)
			}
			bar.Set(fetched)
		}
	}

	webResults, chunks, err := uc.SearchWeb(cmd.Context(), engine, query, opts)
	if err != nil {
		return err
	}

	if askJSON {
		output, _ := json.MarshalIndent(struct {
			Answer  string             `json:"answer,omitempty"`
			Results []domain.WebResult `json:"results"`
			Chunks  []domain.Chunk     `json:"chunks"`
		}{webResults.Answer, webResults.Results, chunks}, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if webResults.Answer != "" {
		fmt.Printf("Answer: %s\n\n", webResults.Answer)
	}
	printChunks(query, chunks)
	return nil
}

func printResults(webResults domain.WebSearchResults) {
	if askJSON {
		output, _ := json.MarshalIndent(webResults, "", "  ")
		fmt.Println(string(output))
		return
	}
	if webResults.Answer != "" {
		fmt.Printf("Answer: %s\n\n", webResults.Answer)
	}
	for i, r := range webResults.Results {
		fmt.Printf("%d. %s\n   %s\n   %s\n\n", i+1, r.Title, r.URL, r.Snippet)
	}
}

func printChunks(query string, chunks []domain.Chunk) {
	if len(chunks) == 0 {
		fmt.Println("No results found.")
		return
	}
	fmt.Printf("Found %d chunks for: %s\n\n", len(chunks), query)
	for i, c := range chunks {
		fmt.Printf("--- [%d] %s ---\n", i+1, c.Source)
		text := c.Text
		if len(text) > 500 {
			text = text[:500] + "..."
		}
		fmt.Println(text)
		fmt.Println()
	}
}
