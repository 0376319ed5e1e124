package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docpersona/internal/config"
	"github.com/dgallion1/docpersona/internal/embed"
	"github.com/dgallion1/docpersona/internal/parser"
	"github.com/dgallion1/docpersona/internal/persona"
)

// NewEmbedder builds the configured embedding provider. Remote providers
// are wrapped with retries; every provider records latency into stats.
func NewEmbedder(ctx context.Context, cfg config.Config, stats *embed.Stats, log *slog.Logger) (embed.Embedder, error) {
	var e embed.Embedder
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		remote, err := embed.NewOpenAI(ctx, embed.OpenAIConfig{
			APIKey:    cfg.EmbeddingAPIKey,
			BaseURL:   cfg.EmbeddingBaseURL,
			Model:     cfg.EmbeddingModel,
			MaxTokens: cfg.EmbeddingMaxTokens,
		})
		if err != nil {
			return nil, err
		}
		e = embed.WithRetry(remote, cfg.EmbeddingMaxRetries, log)
		log.Info("using remote embeddings", "model", remote.Model(), "base_url", cfg.EmbeddingBaseURL)
	case config.ProviderHashing:
		h := embed.NewHashing(cfg.EmbeddingDim)
		log.Info("using offline hashing embeddings", "dim", h.Dim())
		e = h
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
	return embed.Instrument(e, stats), nil
}

// NewAnalyzerFromConfig wires the embedder, lexicon and parser options
// selected by cfg.
func NewAnalyzerFromConfig(ctx context.Context, cfg config.Config, stats *embed.Stats, log *slog.Logger) (*Analyzer, error) {
	e, err := NewEmbedder(ctx, cfg, stats, log)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	var lex persona.Lexicon = persona.DefaultLexicon
	if cfg.LexiconPath != "" {
		loaded, err := persona.LoadLexicon(cfg.LexiconPath)
		if err != nil {
			return nil, err
		}
		log.Info("loaded lexicon", "path", cfg.LexiconPath, "roles", len(loaded))
		lex = loaded
	}

	return NewAnalyzer(e, AnalyzerOptions{
		Lexicon:       lex,
		Parser:        parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext},
		MaxConcurrent: cfg.MaxConcurrentEmbed,
	}, log), nil
}
