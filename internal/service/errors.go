package service

import "errors"

// Failure classifications surfaced to callers. Match with errors.Is.
var (
	// ErrDocumentNotFound reports a request against an unknown document id.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrNotProcessed reports a document that has no chunks or embeddings
	// yet; the caller must upload and embed the document first.
	ErrNotProcessed = errors.New("document has no chunks or embeddings")

	// ErrNoValidEmbeddings reports a document whose chunks all lack a
	// usable embedding after filtering.
	ErrNoValidEmbeddings = errors.New("no valid embeddings available for search")

	// ErrDimensionMismatch reports mixed vector dimensionality within one
	// document's embeddings, which makes similarity undefined.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmptyQuery rejects a blank search query before any processing.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrEmptyQuestion rejects a blank question before any processing.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrServiceConfig reports that the embedding or chat service could
	// not be constructed (missing credentials or deployment name). It is
	// fatal to the whole request, unlike per-chunk call failures.
	ErrServiceConfig = errors.New("language service configuration error")
)
