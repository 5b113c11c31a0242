package chunker

import (
	"strings"

	"websearch/internal/domain"
)

// Chunker splits ordered section texts into bounded-size chunks.
// Token budgets are estimated as chars/4, so a chunk holds at most
// maxEstimatedTokens*4 characters (except for the oversized-line
// truncation below). Pure and stateless across calls.
type Chunker struct {
	resetBlankPerSection bool
}

// New creates a Chunker. resetBlankPerSection controls whether the
// blank-line-collapse state resets at section boundaries; see Chunk.
func New(resetBlankPerSection bool) *Chunker {
	return &Chunker{resetBlankPerSection: resetBlankPerSection}
}

// Chunk accumulates the sections' lines, in order, into chunks of at
// most maxEstimatedTokens*4 characters. Runs of blank lines collapse
// to a single blank line. A line that alone exceeds the budget flushes
// the accumulated chunk and is emitted as its own chunk truncated to
// the budget; the remainder of that line is dropped. Each chunk's
// Sources records the contiguous slices of section text that fed it.
// Empty input yields no chunks.
func (c *Chunker) Chunk(sections []string, maxEstimatedTokens int) []domain.Chunk {
	maxChars := maxEstimatedTokens * 4

	var chunks []domain.Chunk
	var currentLines []string
	currentSize := 0

	var currentSources []string
	var activeLines []string

	lastBlank := false
	for _, section := range sections {
		if c.resetBlankPerSection {
			lastBlank = false
		}
		for _, line := range strings.Split(section, "\n") {
			if strings.TrimSpace(line) == "" {
				if lastBlank {
					continue
				}
				lastBlank = true
			} else {
				lastBlank = false
			}

			switch {
			case len(line) > maxChars:
				currentSources = append(currentSources, strings.Join(activeLines, "\n"))
				chunks = append(chunks, domain.Chunk{
					Text:    strings.Join(currentLines, "\n"),
					Sources: currentSources,
				})
				chunks = append(chunks, domain.Chunk{
					Text:    line[:maxChars],
					Sources: []string{line},
				})
				currentSize = 0
				currentLines = nil
				currentSources = nil
				activeLines = nil
			case currentSize+len(line) > maxChars:
				currentSources = append(currentSources, strings.Join(activeLines, "\n"))
				chunks = append(chunks, domain.Chunk{
					Text:    strings.Join(currentLines, "\n"),
					Sources: currentSources,
				})
				currentSources = nil
				currentSize = len(line)
				activeLines = []string{line}
				currentLines = []string{line}
			default:
				currentSize += len(line)
				currentLines = append(currentLines, line)
				activeLines = append(activeLines, line)
			}
		}

		if len(activeLines) > 0 {
			currentSources = append(currentSources, strings.Join(activeLines, "\n"))
			activeLines = nil
		}
	}

	// A blank-only accumulation (e.g. empty input, which still splits
	// into one empty line) carries no content and is not flushed.
	if text := strings.Join(currentLines, "\n"); text != "" {
		chunks = append(chunks, domain.Chunk{
			Text:    text,
			Sources: currentSources,
		})
	}

	return chunks
}

// ChunkText is the single-text form of Chunk.
func (c *Chunker) ChunkText(text string, maxEstimatedTokens int) []domain.Chunk {
	return c.Chunk([]string{text}, maxEstimatedTokens)
}
