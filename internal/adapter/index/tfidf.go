package index

import (
	"context"
	"math"
	"sort"

	"websearch/internal/adapter/analyzer"
	"websearch/internal/domain"
)

// TFIDFIndex is the default-available fallback index: purely local
// term-frequency/inverse-document-frequency cosine ranking, no remote
// calls, no cache, no failure mode beyond returning nothing.
//
// Chunks are grouped into documents by source; IDF is recomputed over
// the union of ingested documents on every Add.
type TFIDFIndex struct {
	tokenizer *analyzer.Tokenizer
	chunks    []domain.ScoredChunk
	docTerms  map[string]map[string]struct{}
	df        map[string]int
}

// NewTFIDFIndex creates an empty TF-IDF index.
func NewTFIDFIndex(tokenizer *analyzer.Tokenizer) *TFIDFIndex {
	return &TFIDFIndex{
		tokenizer: tokenizer,
		docTerms:  make(map[string]map[string]struct{}),
		df:        make(map[string]int),
	}
}

// Add ingests chunks and recomputes document frequencies over the
// union of everything ingested so far.
func (x *TFIDFIndex) Add(chunks []domain.ScoredChunk) {
	x.chunks = append(x.chunks, chunks...)

	for _, chunk := range chunks {
		terms, ok := x.docTerms[chunk.Source]
		if !ok {
			terms = make(map[string]struct{})
			x.docTerms[chunk.Source] = terms
		}
		for _, token := range x.tokenizer.Tokenize(chunk.Text) {
			terms[token] = struct{}{}
		}
	}

	x.df = make(map[string]int)
	for _, terms := range x.docTerms {
		for term := range terms {
			x.df[term]++
		}
	}
}

// Search scores every ingested chunk by cosine similarity between its
// TF-IDF vector and the query's and returns the top maxResults,
// descending, ties in insertion order.
func (x *TFIDFIndex) Search(_ context.Context, query string, maxResults int) ([]domain.Chunk, error) {
	queryVec := x.vectorize(x.tokenizer.Tokenize(query))
	if len(queryVec) == 0 {
		return nil, nil
	}
	queryNorm := norm(queryVec)

	type scored struct {
		chunk domain.Chunk
		score float64
	}
	var ranked []scored
	for _, chunk := range x.chunks {
		chunkVec := x.vectorize(x.tokenizer.Tokenize(chunk.Text))
		chunkNorm := norm(chunkVec)
		if chunkNorm == 0 {
			continue
		}

		var dot float64
		for term, weight := range queryVec {
			dot += weight * chunkVec[term]
		}
		score := dot / (queryNorm * chunkNorm)
		if score <= 0 {
			continue
		}
		ranked = append(ranked, scored{chunk: chunk.Chunk, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if maxResults >= 0 && len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}

	results := make([]domain.Chunk, len(ranked))
	for i, r := range ranked {
		results[i] = r.chunk
	}
	return results, nil
}

// vectorize builds the TF-IDF vector for a bag of tokens. Terms absent
// from the ingested corpus carry no weight.
func (x *TFIDFIndex) vectorize(tokens []string) map[string]float64 {
	tf := make(map[string]int)
	for _, token := range tokens {
		tf[token]++
	}

	totalDocs := len(x.docTerms)
	vec := make(map[string]float64)
	for term, count := range tf {
		df := x.df[term]
		if df == 0 {
			continue
		}
		idf := math.Log(float64(totalDocs)/float64(df)) + 1
		vec[term] = float64(count) * idf
	}
	return vec
}

func norm(vec map[string]float64) float64 {
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	return math.Sqrt(sum)
}
