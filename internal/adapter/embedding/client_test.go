package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"websearch/internal/domain"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientEmbed(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Model != "test-model" {
			t.Errorf("unexpected model %q", req.Model)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Error("missing bearer token")
		}

		resp := embeddingResponse{}
		// Respond out of order; the client must reassemble by index.
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, embeddingData{
				Embedding: domain.Embedding{float32(i)},
				Index:     i,
			})
		}
		json.NewEncoder(w).Encode(resp)
	})

	c := NewClient(srv.URL, "key", "test-model")
	embeddings, err := c.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(embeddings))
	}
	for i, emb := range embeddings {
		if len(emb) != 1 || emb[0] != float32(i) {
			t.Errorf("embedding %d out of order: %v", i, emb)
		}
	}
}

func TestClientRateLimited(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(embeddingResponse{
			Error: &apiError{Message: "slow down"},
		})
	})

	c := NewClient(srv.URL, "key", "test-model")
	_, err := c.Embed(context.Background(), []string{"a"})
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if !strings.Contains(err.Error(), "slow down") {
		t.Errorf("error should carry the provider message: %v", err)
	}
}

func TestClientProviderError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad input"}}`))
	})

	c := NewClient(srv.URL, "key", "test-model")
	_, err := c.Embed(context.Background(), []string{"a"})

	var provErr *domain.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if provErr.Status != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", provErr.Status)
	}
	if errors.Is(err, domain.ErrRateLimited) {
		t.Error("generic provider errors must stay distinct from rate limiting")
	}
}

func TestClientCountMismatch(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embeddingResponse{
			Data: []embeddingData{{Embedding: domain.Embedding{1}, Index: 0}},
		})
	})

	c := NewClient(srv.URL, "key", "test-model")
	_, err := c.Embed(context.Background(), []string{"a", "b"})

	var provErr *domain.ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError on count mismatch, got %v", err)
	}
}

func TestClientEmptyInput(t *testing.T) {
	c := NewClient("http://unused", "key", "test-model")
	embeddings, err := c.Embed(context.Background(), nil)
	if err != nil || embeddings != nil {
		t.Errorf("empty input should be a no-op, got %v, %v", embeddings, err)
	}
}

func TestClientCancellation(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, "key", "test-model")
	_, err := c.Embed(ctx, []string{"a"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
