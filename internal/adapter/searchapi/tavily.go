package searchapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"websearch/internal/domain"
)

// TavilyClient queries the Tavily search API for ranked result URLs
// and snippets.
type TavilyClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewTavilyClient creates a Tavily client. baseURL defaults to the
// public endpoint when empty.
func NewTavilyClient(baseURL, apiKey string) *TavilyClient {
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	return &TavilyClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type tavilyRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
	Answer  string         `json:"answer"`
}

type tavilyResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Search returns ranked results for query, best first.
func (c *TavilyClient) Search(ctx context.Context, query string) (domain.WebSearchResults, error) {
	body, err := json.Marshal(tavilyRequest{
		APIKey:        c.apiKey,
		Query:         query,
		IncludeAnswer: true,
	})
	if err != nil {
		return domain.WebSearchResults{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return domain.WebSearchResults{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return domain.WebSearchResults{}, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.WebSearchResults{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.WebSearchResults{}, &domain.ProviderError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var raw tavilyResponse
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return domain.WebSearchResults{}, &domain.ProviderError{Status: resp.StatusCode, Body: string(respBody)}
	}

	results := domain.WebSearchResults{Answer: raw.Answer}
	for _, r := range raw.Results {
		results.Results = append(results.Results, domain.WebResult{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: r.Content,
		})
	}
	return results, nil
}
