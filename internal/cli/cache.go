package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"websearch/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the local caches",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache sizes",
	RunE: func(cmd *cobra.Command, args []string) error {
		embCache, pageCache, err := openCaches()
		if err != nil {
			return err
		}

		fmt.Printf("Embedding cache: %d entries\n", embCache.Len())
		if pageCache != nil {
			defer pageCache.Close()
			n, err := pageCache.Len()
			if err != nil {
				return err
			}
			fmt.Printf("Page cache:      %d pages\n", n)
		}
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop expired pages from the page cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, pageCache, err := openCaches()
		if err != nil {
			return err
		}
		if pageCache == nil {
			return nil
		}
		defer pageCache.Close()

		if err := pageCache.Prune(); err != nil {
			return fmt.Errorf("prune failed: %w", err)
		}
		n, err := pageCache.Len()
		if err != nil {
			return err
		}
		fmt.Printf("Page cache: %d pages remaining\n", n)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached embeddings and pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		embCache, pageCache, err := openCaches()
		if err != nil {
			return err
		}

		if err := embCache.Clear(); err != nil {
			return fmt.Errorf("failed to clear embedding cache: %w", err)
		}
		if pageCache != nil {
			pageCache.Close()
			dir, err := cfg.CacheDir()
			if err != nil {
				return err
			}
			if err := os.Remove(config.PageCachePath(dir)); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove page cache: %w", err)
			}
		}
		fmt.Println("Caches cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
