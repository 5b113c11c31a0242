package index

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"websearch/internal/domain"
)

// stubResolver returns canned vectors per text and records calls.
type stubResolver struct {
	vectors map[string]domain.Embedding
	err     error
	calls   [][]string
}

func (r *stubResolver) GetEmbeddings(_ context.Context, texts []string) ([]domain.Embedding, error) {
	r.calls = append(r.calls, append([]string(nil), texts...))
	if r.err != nil {
		return nil, r.err
	}
	out := make([]domain.Embedding, len(texts))
	for i, t := range texts {
		out[i] = r.vectors[t]
	}
	return out, nil
}

func scoredChunk(source, text string, bonus float64) domain.ScoredChunk {
	return domain.ScoredChunk{
		Chunk:      domain.Chunk{Source: source, Text: text},
		ScoreBonus: bonus,
	}
}

func TestEmbeddingIndexRanking(t *testing.T) {
	resolver := &stubResolver{vectors: map[string]domain.Embedding{
		"query":  {1, 0},
		"close":  {0.9, 0.1},
		"far":    {0.2, 0.8},
		"unrel":  {-1, 0},
	}}
	x := NewEmbeddingIndex(resolver, nil)
	x.Add([]domain.ScoredChunk{
		scoredChunk("u", "far", 0),
		scoredChunk("u", "close", 0),
		scoredChunk("u", "unrel", 0),
	})

	results, err := x.Search(context.Background(), "query", 10)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"close", "far"}
	got := make([]string, len(results))
	for i, c := range results {
		got[i] = c.Text
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	// The negative-similarity chunk is filtered, not ranked last.
	for _, c := range results {
		if c.Text == "unrel" {
			t.Error("chunks with score <= 0 must be dropped")
		}
	}
}

func TestEmbeddingIndexSingleResolverPass(t *testing.T) {
	resolver := &stubResolver{vectors: map[string]domain.Embedding{
		"q": {1}, "a": {1}, "b": {1},
	}}
	x := NewEmbeddingIndex(resolver, nil)
	x.Add([]domain.ScoredChunk{scoredChunk("u", "a", 0), scoredChunk("u", "b", 0)})

	if _, err := x.Search(context.Background(), "q", 5); err != nil {
		t.Fatal(err)
	}

	if len(resolver.calls) != 1 {
		t.Fatalf("expected one resolver pass, got %d", len(resolver.calls))
	}
	if !reflect.DeepEqual(resolver.calls[0], []string{"q", "a", "b"}) {
		t.Errorf("query and chunks should resolve together: %v", resolver.calls[0])
	}
}

func TestEmbeddingIndexDeterminism(t *testing.T) {
	resolver := &stubResolver{vectors: map[string]domain.Embedding{
		"q": {1, 1}, "a": {0.5, 0.5}, "b": {0.7, 0.3}, "c": {0.3, 0.7},
	}}
	x := NewEmbeddingIndex(resolver, nil)
	x.Add([]domain.ScoredChunk{
		scoredChunk("u", "a", 0),
		scoredChunk("u", "b", 0),
		scoredChunk("u", "c", 0),
	})

	first, err := x.Search(context.Background(), "q", 10)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := x.Search(context.Background(), "q", 10)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("search is not deterministic: %v vs %v", first, again)
		}
	}
}

func TestEmbeddingIndexStableTies(t *testing.T) {
	// a, b, c have identical similarity; insertion order must hold.
	resolver := &stubResolver{vectors: map[string]domain.Embedding{
		"q": {1}, "a": {0.5}, "b": {0.5}, "c": {0.5},
	}}
	x := NewEmbeddingIndex(resolver, nil)
	x.Add([]domain.ScoredChunk{
		scoredChunk("u", "b", 0),
		scoredChunk("u", "c", 0),
		scoredChunk("u", "a", 0),
	})

	results, err := x.Search(context.Background(), "q", 10)
	if err != nil {
		t.Fatal(err)
	}
	got := []string{results[0].Text, results[1].Text, results[2].Text}
	if !reflect.DeepEqual(got, []string{"b", "c", "a"}) {
		t.Errorf("ties should keep insertion order, got %v", got)
	}
}

func TestEmbeddingIndexBoostMonotonicity(t *testing.T) {
	// Same embedding, different source ranks: the higher-priority
	// source (larger bonus) must sort ahead.
	resolver := &stubResolver{vectors: map[string]domain.Embedding{
		"q": {1}, "same-a": {0.5}, "same-b": {0.5},
	}}
	x := NewEmbeddingIndex(resolver, nil)
	x.Add([]domain.ScoredChunk{
		scoredChunk("low", "same-b", 1.0/12), // rank 2
		scoredChunk("high", "same-a", 1.0/10), // rank 0
	})

	results, err := x.Search(context.Background(), "q", 10)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Source != "high" {
		t.Errorf("higher-ranked source should win ties, got %v first", results[0].Source)
	}
}

func TestEmbeddingIndexTruncation(t *testing.T) {
	resolver := &stubResolver{vectors: map[string]domain.Embedding{
		"q": {1}, "a": {0.9}, "b": {0.8}, "c": {0.7},
	}}
	x := NewEmbeddingIndex(resolver, nil)
	x.Add([]domain.ScoredChunk{
		scoredChunk("u", "a", 0),
		scoredChunk("u", "b", 0),
		scoredChunk("u", "c", 0),
	})

	results, err := x.Search(context.Background(), "q", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Text != "a" || results[1].Text != "b" {
		t.Errorf("unexpected top-2: %v", results)
	}
}

func TestEmbeddingIndexRateLimitPropagates(t *testing.T) {
	resolver := &stubResolver{err: domain.ErrRateLimited}
	x := NewEmbeddingIndex(resolver, nil)
	x.Add([]domain.ScoredChunk{scoredChunk("u", "a", 0)})

	_, err := x.Search(context.Background(), "q", 5)
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited to propagate, got %v", err)
	}
}
