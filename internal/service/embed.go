package service

import (
	"context"
	"fmt"
	"strings"
)

// EmbedResult reports how many chunks the embedding pipeline walked and how
// many produced a vector.
type EmbedResult struct {
	Processed int
	Succeeded int
}

// EmbedDocument embeds every non-blank chunk of the document, writing the
// resulting vectors back wholesale. Blank chunks and chunks whose embedding
// call fails are recorded as absent (nil) markers; one chunk's failure never
// aborts the batch. A document with no chunks succeeds trivially with an
// empty embeddings array.
func (s *Service) EmbedDocument(ctx context.Context, docID string) (*EmbedResult, error) {
	if !s.store.Exists(docID) {
		return nil, ErrDocumentNotFound
	}
	rec, _ := s.store.Get(docID)
	if len(rec.Chunks) == 0 {
		s.store.SetEmbeddings(docID, nil)
		s.log.Info("no chunks to embed", "doc_id", docID)
		return &EmbedResult{}, nil
	}

	embedder, err := s.newEmbedder()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceConfig, err)
	}

	embeddings := make([][]float32, len(rec.Chunks))
	succeeded := 0
	for i, chunk := range rec.Chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		vec, err := embedder.Embed(ctx, chunk)
		if err != nil {
			s.log.Warn("chunk embedding failed",
				"doc_id", docID, "chunk", i, "error", err)
			continue
		}
		embeddings[i] = vec
		succeeded++
	}

	if err := s.store.SetEmbeddings(docID, embeddings); err != nil {
		return nil, err
	}
	s.log.Info("document embedded",
		"doc_id", docID, "chunks", len(rec.Chunks), "succeeded", succeeded)
	return &EmbedResult{Processed: len(rec.Chunks), Succeeded: succeeded}, nil
}
