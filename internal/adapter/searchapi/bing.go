package searchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"websearch/internal/domain"
)

// BingClient queries the Bing web search API.
type BingClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewBingClient creates a Bing client. baseURL defaults to the public
// endpoint when empty.
func NewBingClient(baseURL, apiKey string) *BingClient {
	if baseURL == "" {
		baseURL = "https://api.bing.microsoft.com"
	}
	return &BingClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type bingResponse struct {
	WebPages *struct {
		Value []struct {
			URL     string `json:"url"`
			Name    string `json:"name"`
			Snippet string `json:"snippet"`
		} `json:"value"`
	} `json:"webPages"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Search returns ranked results for query, best first.
func (c *BingClient) Search(ctx context.Context, query string) (domain.WebSearchResults, error) {
	endpoint := c.baseURL + "/v7.0/search?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.WebSearchResults{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

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

	var raw bingResponse
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return domain.WebSearchResults{}, &domain.ProviderError{Status: resp.StatusCode, Body: string(respBody)}
	}
	if len(raw.Errors) > 0 {
		return domain.WebSearchResults{}, &domain.ProviderError{Status: resp.StatusCode, Body: raw.Errors[0].Message}
	}
	if raw.WebPages == nil {
		return domain.WebSearchResults{}, &domain.ProviderError{Status: resp.StatusCode, Body: "unexpected response from search API"}
	}

	var results domain.WebSearchResults
	for _, v := range raw.WebPages.Value {
		results.Results = append(results.Results, domain.WebResult{
			URL:     v.URL,
			Title:   v.Name,
			Snippet: v.Snippet,
		})
	}
	if len(results.Results) > 0 {
		results.Answer = results.Results[0].Snippet
	}
	return results, nil
}
