// Package service implements the document pipeline: ingestion, embedding
// and retrieval over the in-memory document store.
package service

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"docrag/internal/converter"
	"docrag/internal/domain"
	"docrag/internal/store"
)

// DefaultChunkMetadata tags chunks for which no provenance was extracted.
const DefaultChunkMetadata = "No specific metadata extracted for this chunk."

// Placeholder chunks written when ingestion degrades. A successfully
// ingested document always has at least one chunk.
const (
	processingErrorChunk = "Error in document processing or document is empty."
	emptyDocumentChunk   = "Document content is empty or could not be chunked."
	noContentChunk       = "No content could be extracted or chunked."
)

// EmbedderFactory constructs the embedding client. Construction failure is
// a configuration fault, distinct from per-call failures.
type EmbedderFactory func() (domain.Embedder, error)

// CompleterFactory constructs the chat completion client.
type CompleterFactory func() (domain.Completer, error)

// Service orchestrates conversion, chunking, embedding and retrieval.
type Service struct {
	converter    domain.Converter
	chunker      domain.Chunker
	store        *store.DocumentStore
	newEmbedder  EmbedderFactory
	newCompleter CompleterFactory
	log          *slog.Logger
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets the structured logger used by the pipelines.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates the pipeline service.
func New(conv domain.Converter, chunker domain.Chunker, docs *store.DocumentStore,
	newEmbedder EmbedderFactory, newCompleter CompleterFactory, opts ...Option) *Service {
	s := &Service{
		converter:    conv,
		chunker:      chunker,
		store:        docs,
		newEmbedder:  newEmbedder,
		newCompleter: newCompleter,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying document store.
func (s *Service) Store() *store.DocumentStore { return s.store }

// UploadResult is the outcome of ingesting one document.
type UploadResult struct {
	DocID         string
	Filename      string
	Markdown      string
	Chunks        []string
	ChunkMetadata []string
}

// Upload ingests raw file bytes: converts to markdown, chunks with
// provenance metadata and writes the record to the store. Conversion
// trouble degrades to placeholder content; documents are never rejected
// for it.
func (s *Service) Upload(content []byte, filename string) *UploadResult {
	docID := uuid.New().String()
	s.store.Create(docID)

	markdown := s.converter.Convert(content, filename)
	s.store.SetMarkdown(docID, markdown)

	var chunks, meta []string
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		chunks, meta = s.chunkPages(content)
	}

	if len(chunks) == 0 {
		chunks, meta = s.chunkMarkdown(markdown)
	}
	if len(chunks) == 0 {
		chunks, meta = []string{noContentChunk}, []string{DefaultChunkMetadata}
	}

	s.store.SetChunks(docID, chunks, meta)
	s.log.Info("document ingested",
		"doc_id", docID, "filename", filename, "chunks", len(chunks))

	return &UploadResult{
		DocID:         docID,
		Filename:      filename,
		Markdown:      markdown,
		Chunks:        chunks,
		ChunkMetadata: meta,
	}
}

// chunkPages chunks each PDF page independently, tagging every chunk with
// that page's provenance metadata. Pages without text are dropped.
func (s *Service) chunkPages(content []byte) (chunks, meta []string) {
	for _, page := range s.converter.ExtractPages(content) {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		pageMeta := page.Metadata
		if strings.TrimSpace(pageMeta) == "" {
			pageMeta = DefaultChunkMetadata
		}
		for _, c := range s.chunker.Split(page.Text) {
			chunks = append(chunks, c)
			meta = append(meta, pageMeta)
		}
	}
	return chunks, meta
}

// chunkMarkdown is the whole-document fallback used for non-PDFs and for
// PDFs that yielded no per-page chunks.
func (s *Service) chunkMarkdown(markdown string) (chunks, meta []string) {
	if converter.HasErrorMarker(markdown) || strings.TrimSpace(markdown) == "" {
		return []string{processingErrorChunk}, []string{DefaultChunkMetadata}
	}
	full := s.chunker.Split(markdown)
	if len(full) == 0 {
		return []string{emptyDocumentChunk}, []string{DefaultChunkMetadata}
	}
	meta = make([]string, len(full))
	for i := range meta {
		meta[i] = DefaultChunkMetadata
	}
	return full, meta
}
