package service

import (
	"context"
	"fmt"
	"strings"
)

// SystemPrompt accompanies every chat completion request.
const SystemPrompt = "You are a helpful assistant. Answer questions based on the provided context. If the context is empty or not relevant, answer to the best of your ability."

// Answer sends the question to the chat model with retrieved context.
//
// When contextChunks is non-nil, exactly those strings (minus blanks) are
// used and the store is not consulted. Otherwise, when docID is set, all of
// that document's non-blank stored chunks are used — embeddings are not
// required on this path. With neither, the question is sent without context.
func (s *Service) Answer(ctx context.Context, question, docID string, contextChunks []string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	var contexts []string
	switch {
	case contextChunks != nil:
		for _, c := range contextChunks {
			if strings.TrimSpace(c) != "" {
				contexts = append(contexts, c)
			}
		}
	case docID != "":
		if !s.store.Exists(docID) {
			return "", ErrDocumentNotFound
		}
		rec, _ := s.store.Get(docID)
		for _, c := range rec.Chunks {
			if strings.TrimSpace(c) != "" {
				contexts = append(contexts, c)
			}
		}
	}

	userPrompt := buildPrompt(question, contexts)

	completer, err := s.newCompleter()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceConfig, err)
	}
	answer, err := completer.Complete(ctx, userPrompt, SystemPrompt)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	s.log.Info("question answered", "doc_id", docID, "context_chunks", len(contexts))
	return answer, nil
}

func buildPrompt(question string, contexts []string) string {
	if len(contexts) == 0 {
		return "Question: " + question
	}
	return "Context:\n---\n" + strings.Join(contexts, "\n---\n") + "\n---\n" +
		"Question: " + question
}
