package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/chunker"
	"docrag/internal/domain"
	"docrag/internal/store"
)

type fakeConverter struct {
	markdown string
	pages    []domain.PageData
}

func (f *fakeConverter) Convert(content []byte, filename string) string { return f.markdown }
func (f *fakeConverter) ExtractPages(content []byte) []domain.PageData { return f.pages }

type fakeEmbedder struct {
	vectors map[string][]float32
	failFor map[string]bool
	calls   []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls = append(f.calls, text)
	if f.failFor[text] {
		return nil, errors.New("embedding backend unavailable")
	}
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return []float32{1, 0}, nil
}

type fakeCompleter struct {
	answer     string
	err        error
	lastUser   string
	lastSystem string
}

func (f *fakeCompleter) Complete(ctx context.Context, userPrompt, systemPrompt string) (string, error) {
	f.lastUser = userPrompt
	f.lastSystem = systemPrompt
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func newTestService(conv domain.Converter, emb *fakeEmbedder, comp *fakeCompleter) *Service {
	newEmbedder := func() (domain.Embedder, error) { return emb, nil }
	newCompleter := func() (domain.Completer, error) { return comp, nil }
	return New(conv, chunker.NewParagraphChunker(), store.New(), newEmbedder, newCompleter,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestUpload_PDFPages(t *testing.T) {
	conv := &fakeConverter{
		markdown: "# Converted",
		pages: []domain.PageData{
			{Number: 1, Text: "Page 1.", Metadata: "Signed by John Doe, MD on January 1, 2023"},
			{Number: 2, Text: "   ", Metadata: "should be dropped with the page"},
		},
	}
	svc := newTestService(conv, &fakeEmbedder{}, &fakeCompleter{})

	result := svc.Upload([]byte("pdf bytes"), "report.pdf")
	assert.Equal(t, []string{"Page 1."}, result.Chunks)
	assert.Equal(t, []string{"Signed by John Doe, MD on January 1, 2023"}, result.ChunkMetadata)
	assert.Equal(t, "# Converted", result.Markdown)

	rec, ok := svc.Store().Get(result.DocID)
	require.True(t, ok)
	assert.Equal(t, result.Chunks, rec.Chunks)
	assert.Equal(t, result.ChunkMetadata, rec.ChunkMetadata)
}

func TestUpload_PDFPageWithoutMetadata(t *testing.T) {
	conv := &fakeConverter{
		markdown: "text",
		pages:    []domain.PageData{{Number: 1, Text: "content", Metadata: "  "}},
	}
	svc := newTestService(conv, &fakeEmbedder{}, &fakeCompleter{})

	result := svc.Upload(nil, "scan.pdf")
	assert.Equal(t, []string{DefaultChunkMetadata}, result.ChunkMetadata)
}

func TestUpload_MarkdownFallback(t *testing.T) {
	conv := &fakeConverter{markdown: "First paragraph.\n\nSecond paragraph."}
	svc := newTestService(conv, &fakeEmbedder{}, &fakeCompleter{})

	result := svc.Upload([]byte("docx bytes"), "report.docx")
	assert.Equal(t, []string{"First paragraph.", "Second paragraph."}, result.Chunks)
	assert.Equal(t, []string{DefaultChunkMetadata, DefaultChunkMetadata}, result.ChunkMetadata)
}

func TestUpload_ConversionError(t *testing.T) {
	conv := &fakeConverter{markdown: "Unsupported file type: .txt. Please upload a PDF or DOCX file."}
	svc := newTestService(conv, &fakeEmbedder{}, &fakeCompleter{})

	result := svc.Upload([]byte("plain"), "notes.txt")
	assert.Equal(t, []string{processingErrorChunk}, result.Chunks)
	assert.Equal(t, []string{DefaultChunkMetadata}, result.ChunkMetadata)
}

func TestUpload_BlankMarkdown(t *testing.T) {
	conv := &fakeConverter{markdown: "   \n  "}
	svc := newTestService(conv, &fakeEmbedder{}, &fakeCompleter{})

	result := svc.Upload(nil, "empty.docx")
	assert.Equal(t, []string{processingErrorChunk}, result.Chunks)
}

func TestEmbedDocument(t *testing.T) {
	emb := &fakeEmbedder{
		vectors: map[string][]float32{"alpha": {1, 0}},
		failFor: map[string]bool{"beta": true},
	}
	svc := newTestService(&fakeConverter{}, emb, &fakeCompleter{})
	docID := "doc-1"
	svc.Store().Create(docID)
	require.NoError(t, svc.Store().SetChunks(docID,
		[]string{"alpha", "   ", "beta"}, []string{"m1", "m2", "m3"}))

	result, err := svc.EmbedDocument(context.Background(), docID)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 1, result.Succeeded)

	// The blank chunk never reaches the embedder.
	assert.Equal(t, []string{"alpha", "beta"}, emb.calls)

	rec, _ := svc.Store().Get(docID)
	require.Len(t, rec.Embeddings, 3)
	assert.Equal(t, []float32{1, 0}, rec.Embeddings[0])
	assert.Nil(t, rec.Embeddings[1])
	assert.Nil(t, rec.Embeddings[2])
}

func TestEmbedDocument_UnknownID(t *testing.T) {
	svc := newTestService(&fakeConverter{}, &fakeEmbedder{}, &fakeCompleter{})
	_, err := svc.EmbedDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestEmbedDocument_NoChunks(t *testing.T) {
	emb := &fakeEmbedder{}
	svc := newTestService(&fakeConverter{}, emb, &fakeCompleter{})
	svc.Store().Create("doc-1")

	result, err := svc.EmbedDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, &EmbedResult{}, result)
	assert.Empty(t, emb.calls)
}

func TestEmbedDocument_FactoryFailure(t *testing.T) {
	svc := New(&fakeConverter{}, chunker.NewParagraphChunker(), store.New(),
		func() (domain.Embedder, error) { return nil, errors.New("missing API key") },
		func() (domain.Completer, error) { return &fakeCompleter{}, nil },
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	svc.Store().Create("doc-1")
	require.NoError(t, svc.Store().SetChunks("doc-1", []string{"a"}, []string{"m"}))

	_, err := svc.EmbedDocument(context.Background(), "doc-1")
	assert.ErrorIs(t, err, ErrServiceConfig)
}

// seedDocument writes chunks with metadata and embeddings straight into the store.
func seedDocument(t *testing.T, svc *Service, docID string, chunks, meta []string, embeddings [][]float32) {
	t.Helper()
	svc.Store().Create(docID)
	require.NoError(t, svc.Store().SetChunks(docID, chunks, meta))
	require.NoError(t, svc.Store().SetEmbeddings(docID, embeddings))
}

func TestSearch_SkipsAbsentEmbeddings(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"query": {1, 0}}}
	svc := newTestService(&fakeConverter{}, emb, &fakeCompleter{})
	seedDocument(t, svc, "doc-1",
		[]string{"close match", "never embedded", "far match"},
		[]string{"meta0", "meta1", "meta2"},
		[][]float32{{1, 0}, nil, {0, 1}})

	results, err := svc.Search(context.Background(), "doc-1", "query")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "close match", results[0].Chunk)
	assert.Equal(t, "meta0", results[0].Metadata)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "far match", results[1].Chunk)
	assert.InDelta(t, 0.0, results[1].Score, 1e-9)
}

func TestSearch_RanksDescending(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"query": {1, 0}}}
	svc := newTestService(&fakeConverter{}, emb, &fakeCompleter{})
	seedDocument(t, svc, "doc-1",
		[]string{"orthogonal", "aligned", "diagonal"},
		[]string{"m0", "m1", "m2"},
		[][]float32{{0, 1}, {2, 0}, {1, 1}})

	results, err := svc.Search(context.Background(), "doc-1", "query")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "aligned", results[0].Chunk)
	assert.Equal(t, "diagonal", results[1].Chunk)
	assert.Equal(t, "orthogonal", results[2].Chunk)
	assert.True(t, results[0].Score >= results[1].Score)
	assert.True(t, results[1].Score >= results[2].Score)
}

func TestSearch_TopKTruncation(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"query": {1, 0}}}
	svc := newTestService(&fakeConverter{}, emb, &fakeCompleter{})

	n := TopK + 3
	chunks := make([]string, n)
	meta := make([]string, n)
	embeddings := make([][]float32, n)
	for i := 0; i < n; i++ {
		chunks[i] = fmt.Sprintf("chunk %d", i)
		meta[i] = "m"
		embeddings[i] = []float32{1, float32(i)}
	}
	seedDocument(t, svc, "doc-1", chunks, meta, embeddings)

	results, err := svc.Search(context.Background(), "doc-1", "query")
	require.NoError(t, err)
	assert.Len(t, results, TopK)
	// Lower second components align better with the query.
	assert.Equal(t, "chunk 0", results[0].Chunk)
}

func TestSearch_TieKeepsInsertionOrder(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float32{"query": {1, 0}}}
	svc := newTestService(&fakeConverter{}, emb, &fakeCompleter{})
	seedDocument(t, svc, "doc-1",
		[]string{"first", "second", "third"},
		[]string{"m", "m", "m"},
		[][]float32{{3, 0}, {1, 0}, {2, 0}})

	results, err := svc.Search(context.Background(), "doc-1", "query")
	require.NoError(t, err)
	assert.Equal(t, "first", results[0].Chunk)
	assert.Equal(t, "second", results[1].Chunk)
	assert.Equal(t, "third", results[2].Chunk)
}

func TestSearch_Errors(t *testing.T) {
	emb := &fakeEmbedder{}
	svc := newTestService(&fakeConverter{}, emb, &fakeCompleter{})

	_, err := svc.Search(context.Background(), "doc-1", "   ")
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = svc.Search(context.Background(), "missing", "query")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	svc.Store().Create("doc-1")
	_, err = svc.Search(context.Background(), "doc-1", "query")
	assert.ErrorIs(t, err, ErrNotProcessed)

	require.NoError(t, svc.Store().SetChunks("doc-1", []string{"a"}, []string{"m"}))
	_, err = svc.Search(context.Background(), "doc-1", "query")
	assert.ErrorIs(t, err, ErrNotProcessed)

	require.NoError(t, svc.Store().SetEmbeddings("doc-1", [][]float32{nil}))
	_, err = svc.Search(context.Background(), "doc-1", "query")
	assert.ErrorIs(t, err, ErrNoValidEmbeddings)
	assert.Empty(t, emb.calls, "query is never embedded when nothing is searchable")
}

func TestSearch_DimensionMismatch(t *testing.T) {
	svc := newTestService(&fakeConverter{}, &fakeEmbedder{}, &fakeCompleter{})
	seedDocument(t, svc, "doc-1",
		[]string{"a", "b"}, []string{"m", "m"},
		[][]float32{{1, 0}, {1}})

	_, err := svc.Search(context.Background(), "doc-1", "query")
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	assert.Zero(t, cosineSimilarity([]float32{1}, []float32{1, 1}))
}

func TestAnswer_WithProvidedContext(t *testing.T) {
	comp := &fakeCompleter{answer: "the answer"}
	svc := newTestService(&fakeConverter{}, &fakeEmbedder{}, comp)

	answer, err := svc.Answer(context.Background(), "What is it?", "",
		[]string{"chunk one", "   ", "chunk two"})
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
	assert.Equal(t, SystemPrompt, comp.lastSystem)
	assert.Equal(t,
		"Context:\n---\nchunk one\n---\nchunk two\n---\nQuestion: What is it?",
		comp.lastUser)
}

func TestAnswer_WithStoredChunks(t *testing.T) {
	comp := &fakeCompleter{answer: "stored answer"}
	svc := newTestService(&fakeConverter{}, &fakeEmbedder{}, comp)
	svc.Store().Create("doc-1")
	require.NoError(t, svc.Store().SetChunks("doc-1",
		[]string{"stored chunk", "  "}, []string{"m", "m"}))

	answer, err := svc.Answer(context.Background(), "Summarize.", "doc-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "stored answer", answer)
	assert.Equal(t,
		"Context:\n---\nstored chunk\n---\nQuestion: Summarize.",
		comp.lastUser)
}

func TestAnswer_ProvidedContextOverridesStore(t *testing.T) {
	comp := &fakeCompleter{answer: "x"}
	svc := newTestService(&fakeConverter{}, &fakeEmbedder{}, comp)
	svc.Store().Create("doc-1")
	require.NoError(t, svc.Store().SetChunks("doc-1", []string{"stored"}, []string{"m"}))

	_, err := svc.Answer(context.Background(), "Q?", "doc-1", []string{"provided"})
	require.NoError(t, err)
	assert.Equal(t, "Context:\n---\nprovided\n---\nQuestion: Q?", comp.lastUser)
}

func TestAnswer_NoContext(t *testing.T) {
	comp := &fakeCompleter{answer: "freeform"}
	svc := newTestService(&fakeConverter{}, &fakeEmbedder{}, comp)

	answer, err := svc.Answer(context.Background(), "Open question?", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "freeform", answer)
	assert.Equal(t, "Question: Open question?", comp.lastUser)
}

func TestAnswer_Errors(t *testing.T) {
	svc := newTestService(&fakeConverter{}, &fakeEmbedder{}, &fakeCompleter{})

	_, err := svc.Answer(context.Background(), "  ", "", nil)
	assert.ErrorIs(t, err, ErrEmptyQuestion)

	_, err = svc.Answer(context.Background(), "Q?", "missing", nil)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestAnswer_FactoryFailure(t *testing.T) {
	svc := New(&fakeConverter{}, chunker.NewParagraphChunker(), store.New(),
		func() (domain.Embedder, error) { return &fakeEmbedder{}, nil },
		func() (domain.Completer, error) { return nil, errors.New("missing API key") },
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	_, err := svc.Answer(context.Background(), "Q?", "", nil)
	assert.ErrorIs(t, err, ErrServiceConfig)
}
