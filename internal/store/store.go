package store

import (
	"errors"
	"sync"
)

var (
	// ErrNotFound reports an operation against an unknown document id.
	ErrNotFound = errors.New("document not found")
	// ErrLengthMismatch reports parallel arrays of differing lengths.
	ErrLengthMismatch = errors.New("chunks and metadata length mismatch")
)

// Record is the per-document state. Chunks, ChunkMetadata and Embeddings are
// positionally aligned; a nil embedding marks a chunk that was blank or whose
// embedding call failed.
type Record struct {
	Markdown      string
	Chunks        []string
	ChunkMetadata []string
	Embeddings    [][]float32
}

// DocumentStore is a process-wide in-memory registry keyed by document id.
// Every field write is atomic to readers: a snapshot never sees chunks and
// metadata of differing lengths, nor an embeddings array that disagrees with
// the chunk count it was written against.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]*Record
}

// New creates an empty document store.
func New() *DocumentStore {
	return &DocumentStore{docs: make(map[string]*Record)}
}

// Create registers an empty record under id. It returns false without
// touching the store if the id already exists.
func (s *DocumentStore) Create(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; ok {
		return false
	}
	s.docs[id] = &Record{}
	return true
}

// Exists reports whether id is registered.
func (s *DocumentStore) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[id]
	return ok
}

// Get returns a snapshot of the record. The snapshot's slices are copies, so
// later writes do not alter it.
func (s *DocumentStore) Get(id string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.docs[id]
	if !ok {
		return Record{}, false
	}
	snap := Record{
		Markdown:      rec.Markdown,
		Chunks:        append([]string(nil), rec.Chunks...),
		ChunkMetadata: append([]string(nil), rec.ChunkMetadata...),
		Embeddings:    append([][]float32(nil), rec.Embeddings...),
	}
	return snap, true
}

// SetMarkdown replaces the document's markdown text.
func (s *DocumentStore) SetMarkdown(id, markdown string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.docs[id]
	if !ok {
		return ErrNotFound
	}
	rec.Markdown = markdown
	return nil
}

// SetChunks replaces the document's chunks and their metadata wholesale.
// The two slices must have equal length.
func (s *DocumentStore) SetChunks(id string, chunks, metadata []string) error {
	if len(chunks) != len(metadata) {
		return ErrLengthMismatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.docs[id]
	if !ok {
		return ErrNotFound
	}
	rec.Chunks = append([]string(nil), chunks...)
	rec.ChunkMetadata = append([]string(nil), metadata...)
	return nil
}

// SetEmbeddings replaces the document's embeddings wholesale. The slice
// length must equal the current chunk count.
func (s *DocumentStore) SetEmbeddings(id string, embeddings [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.docs[id]
	if !ok {
		return ErrNotFound
	}
	if len(embeddings) != len(rec.Chunks) {
		return ErrLengthMismatch
	}
	rec.Embeddings = append([][]float32(nil), embeddings...)
	return nil
}

// Remove deletes the record. It returns false if id was not registered.
func (s *DocumentStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return false
	}
	delete(s.docs, id)
	return true
}

// Clear removes every record. Intended for tests and administration, not
// for the request path.
func (s *DocumentStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[string]*Record)
}

// Len returns the number of registered documents.
func (s *DocumentStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
