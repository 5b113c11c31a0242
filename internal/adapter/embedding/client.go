package embedding

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

// Client calls an OpenAI-compatible embeddings endpoint. One call maps
// a batch of strings to one vector per string, in input order. The
// Batcher is responsible for keeping batches under the token budget;
// the client sends whatever it is given as a single request.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding domain.Embedding `json:"embedding"`
	Index     int              `json:"index"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewClient creates an embeddings client for the given endpoint.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ModelName returns the configured embedding model.
func (c *Client) ModelName() string {
	return c.model
}

// Embed sends one batch to the provider. A 429 response surfaces as
// domain.ErrRateLimited wrapping the provider's message; any other
// failing status becomes a *domain.ProviderError. Nothing is retried.
func (c *Client) Embed(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embeddingRequest{Input: texts, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embeddings request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: embeddings: %s", domain.ErrRateLimited, providerMessage(respBody))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.ProviderError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, &domain.ProviderError{Status: resp.StatusCode, Body: string(respBody)}
	}
	if embResp.Error != nil {
		return nil, &domain.ProviderError{Status: resp.StatusCode, Body: embResp.Error.Message}
	}
	if len(embResp.Data) != len(texts) {
		return nil, &domain.ProviderError{
			Status: resp.StatusCode,
			Body:   fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(embResp.Data)),
		}
	}

	embeddings := make([]domain.Embedding, len(texts))
	for _, data := range embResp.Data {
		if data.Index >= 0 && data.Index < len(embeddings) {
			embeddings[data.Index] = data.Embedding
		}
	}
	return embeddings, nil
}

func providerMessage(body []byte) string {
	var resp embeddingResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != nil {
		return resp.Error.Message
	}
	return string(body)
}
