package app

import (
	"context"
	"fmt"
	"time"

	"smartgoal/internal/analyzer"
	"smartgoal/internal/artifact"
	"smartgoal/internal/config"
	"smartgoal/internal/fetch"
	"smartgoal/internal/llm"
)

const retryBaseDelay = 500 * time.Millisecond

// newLLM builds the configured model client. The fake provider answers every
// call with fallback.
func newLLM(ctx context.Context, cfg *config.Config, fallback string) (llm.Client, error) {
	var inner llm.Client
	switch cfg.LLM.Provider {
	case "fake":
		inner = llm.NewFakeClient(fallback)
	case "gemini":
		if cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is not set")
		}
		model := cfg.LLM.GeminiModel
		if model == "" {
			model = llm.DefaultGeminiModel
		}
		g, err := llm.NewGeminiClient(ctx, cfg.LLM.APIKey, model)
		if err != nil {
			return nil, err
		}
		inner = g
	case "groq":
		if cfg.LLM.GroqAPIKey == "" {
			return nil, fmt.Errorf("GROQ_API_KEY is not set")
		}
		inner = llm.NewGroqClient(cfg.LLM.GroqAPIKey, cfg.LLM.GroqModel, cfg.LLM.GroqBaseURL)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLM.Provider)
	}
	return llm.Wrap(inner,
		llm.WithLogging(nil),
		llm.Retry(cfg.LLM.MaxAttempts, retryBaseDelay),
		llm.RateLimit(cfg.LLM.RPS, cfg.LLM.Burst),
	), nil
}

func newFetcher(cfg *config.Config) (*fetch.Fetcher, error) {
	objects, err := fetch.NewMinioObjects(fetch.S3Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		UseSSL:    cfg.S3.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return fetch.New(fetch.Options{
		Objects:   objects,
		Timeout:   cfg.Fetch.HTTPTimeout,
		LogPath:   cfg.Fetch.LogFile,
		CacheSize: cfg.Fetch.CacheSize,
	})
}

func newArtifacts(cfg *config.Config) (artifact.Store, error) {
	endpoint := cfg.S3.Endpoint
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}
	return artifact.NewS3Store(artifact.S3Config{
		Endpoint:  endpoint,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Bucket:    cfg.Artifact.Bucket,
		UseSSL:    cfg.S3.UseSSL,
	})
}

// ArtifactRuns loads the run files mirrored to the artifact bucket.
func ArtifactRuns(ctx context.Context, cfg *config.Config) ([]any, error) {
	store, err := newArtifacts(cfg)
	if err != nil {
		return nil, fmt.Errorf("artifact store: %w", err)
	}
	return artifact.LoadObjects(ctx, store, analyzer.ArtifactPrefix)
}
