package domain

// Embedding is a fixed-length vector produced by the remote embedding
// model. All vectors compared against each other share the same
// dimensionality.
type Embedding []float32

// Section is one heading-delimited block of a scraped page.
type Section struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}

// Page is the crawler's view of a single URL.
type Page struct {
	URL      string    `json:"url"`
	Sections []Section `json:"sections"`
}

// Chunk is a bounded-size contiguous slice of a document's text, the
// unit of ranking and retrieval. Sources holds the section text slices
// that contributed to the chunk, in input order, for traceability.
type Chunk struct {
	Source  string   `json:"source"`
	Text    string   `json:"text"`
	Sources []string `json:"sources,omitempty"`
}

// ScoredChunk is a Chunk tagged with a static source-derived boost.
// ScoreBonus is assigned once at ingestion and never mutated.
type ScoredChunk struct {
	Chunk
	ScoreBonus float64
}

// WebResult is a single hit from a remote search-results API.
type WebResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
}

// WebSearchResults is the response of a remote search-results API:
// ranked URLs plus an optional direct answer.
type WebSearchResults struct {
	Results []WebResult `json:"results"`
	Answer  string      `json:"answer,omitempty"`
}

// Dot returns the dot product of two embeddings. Vectors of unequal
// length are compared over their common prefix.
func Dot(a, b Embedding) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
