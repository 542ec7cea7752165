package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/zsafwan/ocr-rename/internal/analysis"
	"github.com/zsafwan/ocr-rename/internal/config"
	"github.com/zsafwan/ocr-rename/internal/ledger"
	"github.com/zsafwan/ocr-rename/internal/pdfpages"
	"github.com/zsafwan/ocr-rename/internal/resilience"
	"github.com/zsafwan/ocr-rename/internal/services/anthropic"
	"github.com/zsafwan/ocr-rename/internal/services/gemini"
	"github.com/zsafwan/ocr-rename/internal/services/vision"
)

func retryConfig(cfg *config.Config) resilience.Config {
	return resilience.Config{
		RetryMaxAttempts:    cfg.Retry.MaxAttempts,
		RetryInitialBackoff: time.Duration(cfg.Retry.InitialBackoffMS) * time.Millisecond,
		RetryMaxBackoff:     time.Duration(cfg.Retry.MaxBackoffMS) * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      cfg.Retry.BreakerEnabled,
		BreakerMinRequests:  uint32(cfg.Retry.BreakerMinRequests),
		BreakerFailureRatio: cfg.Retry.BreakerFailureRatio,
		BreakerOpenTimeout:  time.Duration(cfg.Retry.BreakerOpenSeconds) * time.Second,
		BreakerHalfOpenMax:  1,
	}
}

func pageBudget(cfg *config.Config) pdfpages.Budget {
	return pdfpages.Budget{
		MaxPages:      cfg.Analysis.MaxPages,
		MaxBytes:      cfg.MaxPDFBytes(),
		FallbackPages: cfg.Analysis.FallbackPages,
	}
}

func anthropicClient(cfg *config.Config, opts ...anthropic.Option) *anthropic.Client {
	return anthropic.NewClient(anthropic.Config{
		APIKey:         cfg.Anthropic.APIKey,
		BaseURL:        cfg.Anthropic.BaseURL,
		Model:          cfg.Analysis.Model,
		MaxTokens:      cfg.Analysis.MaxTokens,
		TimeoutSeconds: cfg.Anthropic.TimeoutSeconds,
	}, opts...)
}

// newAnalyzer returns the vision client for the configured provider and a
// function that releases it.
func newAnalyzer(ctx context.Context, cfg *config.Config) (vision.Analyzer, func(), error) {
	switch cfg.Analysis.Provider {
	case config.ProviderGemini:
		client, err := gemini.New(ctx, gemini.Config{
			APIKey:    cfg.Gemini.APIKey,
			Model:     cfg.Gemini.Model,
			MaxTokens: cfg.Analysis.MaxTokens,
		})
		if err != nil {
			return nil, func() {}, err
		}
		return client, func() { _ = client.Close() }, nil
	default:
		return anthropicClient(cfg), func() {}, nil
	}
}

func openLedger(cfg *config.Config) (*ledger.Store, error) {
	store, err := ledger.Open(cfg.Paths.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("open batch ledger %s: %w", cfg.Paths.LedgerPath, err)
	}
	return store, nil
}

// withBatchRunner opens the ledger and an Anthropic batch client for fn.
// extractor may be nil for commands that do not submit.
func withBatchRunner(cfg *config.Config, extractor analysis.Extractor, logger *slog.Logger, fn func(*analysis.BatchRunner, *ledger.Store) error) error {
	if err := cfg.RequireAnthropic(); err != nil {
		return err
	}
	store, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	runner := analysis.NewBatchRunner(
		anthropicClient(cfg, anthropic.WithLogger(logger)),
		extractor,
		store,
		cfg.Analysis.Model,
		cfg.Paths.OutputDir,
		cfg.Analysis.Concurrency,
		logger,
	)
	return fn(runner, store)
}

// resolveDir expands path and checks that it names a directory.
func resolveDir(path string) (string, error) {
	dir, err := config.ExpandPath(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s is not a directory", dir)
		}
		return "", fmt.Errorf("inspect %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}
	return dir, nil
}

// resolveFile expands path and checks that it names an existing file.
func resolveFile(path string) (string, error) {
	file, err := config.ExpandPath(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%s not found", file)
		}
		return "", fmt.Errorf("inspect %s: %w", file, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", file)
	}
	return file, nil
}

func joinPaths(dir string, names []string) []string {
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	return paths
}
