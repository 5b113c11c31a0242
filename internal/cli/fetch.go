package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"websearch/internal/domain"
)

var (
	fetchCrawl bool
	fetchJSON  bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Fetch a page and print its sections",
	Long: `Fetch a single page (or crawl the whole site with --crawl) and print
the heading-delimited sections extracted from it.

Examples:
  websearch fetch https://go.dev/doc/effective_go
  websearch fetch --crawl --json https://docs.example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().BoolVar(&fetchCrawl, "crawl", false, "crawl the whole site instead of one page")
	fetchCmd.Flags().BoolVar(&fetchJSON, "json", false, "output as JSON")
}

func runFetch(cmd *cobra.Command, args []string) error {
	_, pageCache, err := openCaches()
	if err != nil {
		return err
	}
	if pageCache != nil {
		defer pageCache.Close()
	}
	s := newScraper(pageCache)

	var pages []domain.Page
	if fetchCrawl {
		pages, err = s.Crawl(cmd.Context(), args[0])
	} else {
		var page domain.Page
		page, err = s.Scrape(cmd.Context(), args[0])
		pages = []domain.Page{page}
	}
	if err != nil {
		return err
	}

	if fetchJSON {
		output, _ := json.MarshalIndent(pages, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	for _, page := range pages {
		fmt.Printf("== %s ==\n", page.URL)
		for _, section := range page.Sections {
			fmt.Printf("# %s\n%s\n\n", section.Heading, section.Content)
		}
	}
	return nil
}
