package domain

import "context"

// PageData is one PDF page as returned by the converter: the page number
// (1-indexed), the extracted text and the provenance metadata found on it.
type PageData struct {
	Number   int
	Text     string
	Metadata string
}

// SearchResult is a matching chunk with its similarity score and the
// provenance metadata recorded at ingestion time.
type SearchResult struct {
	Score    float64
	Chunk    string
	Metadata string
}

// Converter turns raw file bytes into markdown text. It never returns an
// error: conversion failures are signalled by a recognizable marker at the
// start of the returned text so that callers can degrade to fallback
// chunking instead of rejecting the document.
type Converter interface {
	Convert(content []byte, filename string) string
	// ExtractPages returns per-page text and metadata for PDF content.
	// An empty slice means per-page data could not be extracted.
	ExtractPages(content []byte) []PageData
}

// Chunker splits normalized text into retrievable units.
type Chunker interface {
	Split(text string) []string
}

// MetadataExtractor produces a human-readable provenance string for one
// page of text, or a sentinel when nothing was found.
type MetadataExtractor interface {
	Extract(pageText string) string
}

// Embedder converts text into a fixed-dimension vector via an external
// embedding service.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer requests a chat completion from an external language model.
type Completer interface {
	Complete(ctx context.Context, userPrompt, systemPrompt string) (string, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) string
}
