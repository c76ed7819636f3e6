package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"docrag/internal/chunker"
	"docrag/internal/config"
	"docrag/internal/converter"
	"docrag/internal/domain"
	"docrag/internal/metadata"
	"docrag/internal/openaiclient"
	"docrag/internal/service"
	"docrag/internal/store"
	"docrag/internal/summarizer"
	"docrag/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var verbose bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/docrag/config.yaml if not provided)")
	flag.BoolVar(&verbose, "verbose", false, "Log pipeline activity to stderr")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) != 1 {
		fmt.Println("Usage: docrag [--config=config.yaml] document.pdf|document.docx")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	// Assemble components
	extractor := metadata.NewExtractorWithTail(cfg.Metadata.TailLines)
	markitdownPath := cfg.Converter.MarkitdownPath
	if markitdownPath == "" {
		if found, err := exec.LookPath("markitdown"); err == nil {
			markitdownPath = found
		}
	}
	conv := converter.New(extractor, converter.WithMarkitdown(markitdownPath))

	clientCfg := openaiclient.Config{
		BaseURL:       cfg.OpenAI.BaseURL,
		AzureEndpoint: cfg.OpenAI.AzureEndpoint,
		APIKeyEnv:     cfg.OpenAI.APIKeyEnv,
		EmbedModel:    cfg.OpenAI.EmbedModel,
		ChatModel:     cfg.OpenAI.ChatModel,
		Timeout:       time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
	}
	newEmbedder := func() (domain.Embedder, error) {
		return openaiclient.NewEmbedder(clientCfg)
	}
	newCompleter := func() (domain.Completer, error) {
		return openaiclient.NewCompleter(clientCfg)
	}

	svc := service.New(conv, chunker.NewParagraphChunker(), store.New(),
		newEmbedder, newCompleter, service.WithLogger(logger))

	path := inputs[0]
	content, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to read %s: %v", path, err)
	}

	result := svc.Upload(content, filepath.Base(path))
	embedded, err := svc.EmbedDocument(context.Background(), result.DocID)
	if err != nil {
		log.Fatalf("embedding failed: %v", err)
	}
	logger.Info("ready",
		"doc_id", result.DocID, "chunks", embedded.Processed, "embedded", embedded.Succeeded)

	summary := summarizer.New().Summarize(result.Markdown, cfg.Summary.MaxSentences)
	m := tui.New(svc, result.DocID, result.Filename, summary)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
