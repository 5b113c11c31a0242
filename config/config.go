package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the websearch tool.
type Config struct {
	Search    SearchConfig    `yaml:"search"`
	Scraper   ScraperConfig   `yaml:"scraper"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SearchConfig holds search engine and ranking configuration.
type SearchConfig struct {
	Engine        string `yaml:"engine"`      // "tavily" or "bing"
	APIKeyEnv     string `yaml:"api_key_env"` // Environment variable for the engine API key
	BaseURL       string `yaml:"base_url"`    // Empty means the engine's public endpoint
	MaxResults    int    `yaml:"max_results"`
	UseTFIDF      bool   `yaml:"use_tfidf"` // Skip embeddings, rank locally
	CrawlFullSite bool   `yaml:"crawl_full_site"`

	// UseResultsDirectly returns the engine's snippets as-is without
	// fetching or ranking any page.
	UseResultsDirectly bool `yaml:"use_results_directly"`
}

// ScraperConfig holds HTTP fetching and crawling configuration.
type ScraperConfig struct {
	UserAgent         string   `yaml:"user_agent"`
	TimeoutSeconds    int      `yaml:"timeout_seconds"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	MaxPages          int      `yaml:"max_pages"`
	MaxDepth          int      `yaml:"max_depth"`
	Includes          []string `yaml:"includes"`
	Excludes          []string `yaml:"excludes"`
}

// ChunkingConfig holds chunking configuration.
type ChunkingConfig struct {
	MaxTokens            int  `yaml:"max_tokens"`
	ResetBlankPerSection bool `yaml:"reset_blank_per_section"`
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Enabled          bool   `yaml:"enabled"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	APIKeyEnv        string `yaml:"api_key_env"`
	BatchTokenBudget int    `yaml:"batch_token_budget"`
}

// CacheConfig holds the on-disk cache locations.
type CacheConfig struct {
	Dir          string `yaml:"dir"` // Empty means ~/.websearch
	PageTTLHours int    `yaml:"page_ttl_hours"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Engine:     "tavily",
			APIKeyEnv:  "TAVILY_API_KEY",
			MaxResults: 5,
		},
		Scraper: ScraperConfig{
			UserAgent:         "websearch/1.0",
			TimeoutSeconds:    30,
			RequestsPerSecond: 2,
			MaxPages:          50,
			MaxDepth:          3,
			Excludes:          []string{"**/login/**", "**/signup/**", "**/*.pdf", "**/*.zip"},
		},
		Chunking: ChunkingConfig{
			MaxTokens:            600,
			ResetBlankPerSection: true,
		},
		Embedding: EmbeddingConfig{
			Enabled:          true,
			BaseURL:          "https://api.openai.com/v1",
			Model:            "text-embedding-3-small",
			APIKeyEnv:        "OPENAI_API_KEY",
			BatchTokenBudget: 50000,
		},
		Cache: CacheConfig{
			PageTTLHours: 24,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for
// websearch.yaml, then .websearch/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "websearch.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".websearch", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CacheDir resolves the configured cache directory, defaulting to
// ~/.websearch.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".websearch"), nil
}

// EmbeddingCachePath returns the embedding cache file under dir.
func EmbeddingCachePath(dir string) string {
	return filepath.Join(dir, "embeddings.json")
}

// PageCachePath returns the page cache database under dir.
func PageCachePath(dir string) string {
	return filepath.Join(dir, "pages.db")
}

// EnsureCacheDir creates the cache directory if needed.
func EnsureCacheDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
