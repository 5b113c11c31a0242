package index

import (
	"context"
	"testing"

	"websearch/internal/adapter/analyzer"
	"websearch/internal/domain"
)

func newTFIDF() *TFIDFIndex {
	return NewTFIDFIndex(analyzer.NewTokenizer())
}

func TestTFIDFRanksRelevantFirst(t *testing.T) {
	x := newTFIDF()
	x.Add([]domain.ScoredChunk{
		scoredChunk("https://a.example", "goroutines make concurrency simple", 0),
		scoredChunk("https://b.example", "cooking pasta requires salted water", 0),
		scoredChunk("https://a.example", "channels connect goroutines together", 0),
	})

	results, err := x.Search(context.Background(), "goroutines concurrency", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].Text != "goroutines make concurrency simple" {
		t.Errorf("most relevant chunk should rank first, got %q", results[0].Text)
	}
	for _, c := range results {
		if c.Text == "cooking pasta requires salted water" {
			t.Error("chunk sharing no terms with the query should not appear")
		}
	}
}

func TestTFIDFNoResults(t *testing.T) {
	x := newTFIDF()
	x.Add([]domain.ScoredChunk{
		scoredChunk("https://a.example", "alpha beta gamma", 0),
	})

	results, err := x.Search(context.Background(), "unrelated query terms", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %v", results)
	}
}

func TestTFIDFAddOrUpdateRecomputesIDF(t *testing.T) {
	x := newTFIDF()
	x.Add([]domain.ScoredChunk{
		scoredChunk("https://a.example", "kubernetes deployment guide", 0),
	})
	if got := x.df["kubernetes"]; got != 1 {
		t.Fatalf("expected df 1 after first add, got %d", got)
	}

	x.Add([]domain.ScoredChunk{
		scoredChunk("https://b.example", "kubernetes operators explained", 0),
	})
	if got := x.df["kubernetes"]; got != 2 {
		t.Errorf("expected df 2 over the union of documents, got %d", got)
	}
	if got := len(x.docTerms); got != 2 {
		t.Errorf("expected 2 documents grouped by source, got %d", got)
	}
}

func TestTFIDFTruncation(t *testing.T) {
	x := newTFIDF()
	x.Add([]domain.ScoredChunk{
		scoredChunk("https://a.example", "widget assembly", 0),
		scoredChunk("https://a.example", "widget painting", 0),
		scoredChunk("https://a.example", "widget shipping", 0),
	})

	results, err := x.Search(context.Background(), "widget", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestTFIDFEmptyQuery(t *testing.T) {
	x := newTFIDF()
	x.Add([]domain.ScoredChunk{
		scoredChunk("https://a.example", "content here", 0),
	})

	results, err := x.Search(context.Background(), "", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("empty query should return nothing, got %v", results)
	}
}
