package embedding

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"websearch/internal/domain"
	"websearch/internal/port"
)

// DefaultBatchTokenBudget bounds the cumulative estimated token length
// of one remote batch. The provider accepts ~64k; this leaves slack
// for the chars/4 estimate being off.
const DefaultBatchTokenBudget = 50000

// Batcher resolves embeddings cache-first. Only cache misses reach the
// remote provider, grouped into batches under the token budget; every
// newly fetched vector is written back to the cache.
type Batcher struct {
	cache     *Cache
	embedder  port.Embedder
	tokenizer port.Tokenizer
	budget    int
}

// NewBatcher creates a Batcher. budget <= 0 selects the default.
func NewBatcher(cache *Cache, embedder port.Embedder, tokenizer port.Tokenizer, budget int) *Batcher {
	if budget <= 0 {
		budget = DefaultBatchTokenBudget
	}
	return &Batcher{
		cache:     cache,
		embedder:  embedder,
		tokenizer: tokenizer,
		budget:    budget,
	}
}

// GetEmbeddings returns one embedding per input text, in input order.
// Rate limiting and provider failures propagate unchanged from the
// client; the caller decides whether to fall back.
func (b *Batcher) GetEmbeddings(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	out := make([]domain.Embedding, len(texts))

	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if emb, ok := b.cache.Get(text); ok {
			out[i] = emb
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	groups := b.groupByBudget(missTexts)
	log.Debug().
		Int("hits", len(texts)-len(missTexts)).
		Int("misses", len(missTexts)).
		Int("batches", len(groups)).
		Msg("fetching embeddings")

	fetched := make([]domain.Embedding, 0, len(missTexts))
	for _, group := range groups {
		embeddings, err := b.embedder.Embed(ctx, group)
		if err != nil {
			return nil, err
		}
		if len(embeddings) != len(group) {
			return nil, fmt.Errorf("provider returned %d embeddings for %d texts", len(embeddings), len(group))
		}
		fetched = append(fetched, embeddings...)
	}

	for i, emb := range fetched {
		b.cache.Set(missTexts[i], emb)
		out[missIdx[i]] = emb
	}
	return out, nil
}

// groupByBudget greedily packs texts into batches whose cumulative
// estimated token length stays under the budget. A single text over
// the budget still forms its own batch; it is never dropped.
func (b *Batcher) groupByBudget(texts []string) [][]string {
	var groups [][]string
	var group []string
	groupSize := 0

	for _, text := range texts {
		size := b.tokenizer.TokenLength(text)
		if len(group) > 0 && groupSize+size > b.budget {
			groups = append(groups, group)
			group = nil
			groupSize = 0
		}
		group = append(group, text)
		groupSize += size
	}
	if len(group) > 0 {
		groups = append(groups, group)
	}
	return groups
}
