// Package openaiclient wraps the OpenAI-compatible embedding and chat
// completion APIs. Construction fails on missing configuration (credentials,
// deployment name), which callers surface as a service-misconfiguration
// fault distinct from per-call failures.
package openaiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Config configures the embedding and chat clients. The API key is read
// from the environment variable named by APIKeyEnv.
type Config struct {
	BaseURL       string
	AzureEndpoint string
	APIKeyEnv     string
	EmbedModel    string
	ChatModel     string
	Timeout       time.Duration
}

func (c *Config) applyDefaults() {
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.EmbedModel == "" {
		c.EmbedModel = "text-embedding-3-small"
	}
	if c.ChatModel == "" {
		c.ChatModel = openai.GPT4oMini
	}
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
}

func newClient(cfg *Config) (*openai.Client, error) {
	cfg.applyDefaults()
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	var clientCfg openai.ClientConfig
	switch {
	case cfg.AzureEndpoint != "":
		clientCfg = openai.DefaultAzureConfig(key, cfg.AzureEndpoint)
	case cfg.BaseURL != "":
		clientCfg = openai.DefaultConfig(key)
		clientCfg.BaseURL = cfg.BaseURL
	default:
		clientCfg = openai.DefaultConfig(key)
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	return openai.NewClientWithConfig(clientCfg), nil
}

// Embedder requests embeddings from the configured embeddings deployment.
type Embedder struct {
	client *openai.Client
	model  string
}

// NewEmbedder creates an embedding client. It fails when the API key or
// deployment configuration is missing.
func NewEmbedder(cfg Config) (*Embedder, error) {
	client, err := newClient(&cfg)
	if err != nil {
		return nil, err
	}
	return &Embedder{client: client, model: cfg.EmbedModel}, nil
}

// Embed returns the embedding vector for text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	// The embeddings API performs poorly on raw newlines.
	text = strings.ReplaceAll(text, "\n", " ")
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}

// Completer requests chat completions from the configured chat deployment.
type Completer struct {
	client *openai.Client
	model  string
}

// NewCompleter creates a chat completion client. It fails when the API key
// or deployment configuration is missing.
func NewCompleter(cfg Config) (*Completer, error) {
	client, err := newClient(&cfg)
	if err != nil {
		return nil, err
	}
	return &Completer{client: client, model: cfg.ChatModel}, nil
}

// Complete sends the system and user prompts and returns the model's text.
func (c *Completer) Complete(ctx context.Context, userPrompt, systemPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion returned")
	}
	return resp.Choices[0].Message.Content, nil
}
