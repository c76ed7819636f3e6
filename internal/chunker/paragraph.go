package chunker

import (
	"regexp"
	"strings"
)

// ParagraphChunker splits markdown text into paragraph-level chunks.
// A paragraph boundary is one or more blank lines (lines containing only
// whitespace); single newlines inside a paragraph are preserved.
type ParagraphChunker struct {
	boundary *regexp.Regexp
}

// NewParagraphChunker creates a paragraph chunker.
func NewParagraphChunker() *ParagraphChunker {
	return &ParagraphChunker{
		boundary: regexp.MustCompile(`\n\s*\n`),
	}
}

// Split returns the non-empty trimmed paragraphs of text, in order.
// Empty or whitespace-only input yields nil. Any run of consecutive blank
// lines collapses to a single boundary, so no empty chunks are produced.
func (c *ParagraphChunker) Split(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	parts := c.boundary.Split(trimmed, -1)
	chunks := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		chunks = append(chunks, p)
	}
	return chunks
}
