//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"syscall/js"

	"websearch/internal/adapter/analyzer"
	"websearch/internal/adapter/chunker"
	"websearch/internal/adapter/index"
	"websearch/internal/domain"
)

// The wasm build exposes the local ranking pipeline (chunking plus
// TF-IDF) so page content can be indexed and queried in the browser.
// Embedding ranking needs provider credentials and stays server-side.

const chunkTokens = 600

var (
	tokenizer *analyzer.Tokenizer
	chk       *chunker.Chunker
	idx       *index.TFIDFIndex
	sources   []string
)

func init() {
	tokenizer = analyzer.NewTokenizer()
	chk = chunker.New(true)
	idx = index.NewTFIDFIndex(tokenizer)
}

func main() {
	c := make(chan struct{})

	js.Global().Set("websearchIndex", js.FuncOf(indexContent))
	js.Global().Set("websearchQuery", js.FuncOf(queryContent))
	js.Global().Set("websearchClear", js.FuncOf(clearIndex))
	js.Global().Set("websearchStats", js.FuncOf(getStats))

	<-c
}

func indexContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("usage: websearchIndex(url, content)")
	}

	url := args[0].String()
	content := args[1].String()

	chunks := chk.ChunkText(content, chunkTokens)
	scored := make([]domain.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		c.Source = url
		scored = append(scored, domain.ScoredChunk{Chunk: c})
	}
	idx.Add(scored)
	sources = append(sources, url)

	return makeResult(map[string]interface{}{
		"success": true,
		"chunks":  len(chunks),
		"url":     url,
	})
}

func queryContent(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("usage: websearchQuery(query, [topK])")
	}

	query := args[0].String()
	topK := 5
	if len(args) > 1 {
		topK = args[1].Int()
	}

	results, err := idx.Search(context.Background(), query, topK)
	if err != nil {
		return makeError("search failed: " + err.Error())
	}

	output := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		output = append(output, map[string]interface{}{
			"url":  r.Source,
			"text": r.Text,
		})
	}

	return makeResult(map[string]interface{}{
		"results": output,
		"query":   query,
	})
}

func clearIndex(this js.Value, args []js.Value) interface{} {
	idx = index.NewTFIDFIndex(tokenizer)
	sources = nil
	return makeResult(map[string]interface{}{
		"success": true,
	})
}

func getStats(this js.Value, args []js.Value) interface{} {
	return makeResult(map[string]interface{}{
		"totalPages": len(sources),
		"pages":      sources,
	})
}

func makeError(msg string) interface{} {
	result, _ := json.Marshal(map[string]interface{}{
		"error": msg,
	})
	return string(result)
}

func makeResult(data map[string]interface{}) interface{} {
	result, _ := json.Marshal(data)
	return string(result)
}
