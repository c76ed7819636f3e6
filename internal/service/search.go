package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"docrag/internal/domain"
)

// TopK is the number of results a search returns. Fewer are returned when
// fewer chunks are searchable; the result set is never padded.
const TopK = 5

// Search embeds the query and ranks the document's searchable chunks by
// cosine similarity, descending. A chunk is searchable when it has an
// embedding and non-blank text. Ties keep insertion order.
func (s *Service) Search(ctx context.Context, docID, query string) ([]domain.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if !s.store.Exists(docID) {
		return nil, ErrDocumentNotFound
	}
	rec, _ := s.store.Get(docID)
	if len(rec.Chunks) == 0 || len(rec.Embeddings) == 0 {
		return nil, ErrNotProcessed
	}

	type candidate struct {
		chunk    string
		metadata string
		vector   []float32
	}
	var candidates []candidate
	dimension := 0
	for i, vec := range rec.Embeddings {
		if vec == nil || i >= len(rec.Chunks) || strings.TrimSpace(rec.Chunks[i]) == "" {
			continue
		}
		if dimension == 0 {
			dimension = len(vec)
		} else if len(vec) != dimension {
			return nil, fmt.Errorf("%w: chunk %d has dimension %d, want %d",
				ErrDimensionMismatch, i, len(vec), dimension)
		}
		meta := DefaultChunkMetadata
		if i < len(rec.ChunkMetadata) {
			meta = rec.ChunkMetadata[i]
		}
		candidates = append(candidates, candidate{
			chunk:    rec.Chunks[i],
			metadata: meta,
			vector:   vec,
		})
	}
	if len(candidates) == 0 {
		return nil, ErrNoValidEmbeddings
	}

	embedder, err := s.newEmbedder()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceConfig, err)
	}
	queryVec, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results := make([]domain.SearchResult, len(candidates))
	for i, c := range candidates {
		results[i] = domain.SearchResult{
			Score:    cosineSimilarity(queryVec, c.vector),
			Chunk:    c.chunk,
			Metadata: c.metadata,
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > TopK {
		results = results[:TopK]
	}
	s.log.Info("search completed", "doc_id", docID, "results", len(results))
	return results, nil
}

// cosineSimilarity is dot(a,b) / (||a|| * ||b||), 0 when either vector has
// zero norm or the lengths differ.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
