package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/zsafwan/ocr-rename/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config whose output directory and ledger live in a
// per-test temp directory. The Anthropic key is set so service commands pass
// credential checks.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Anthropic.APIKey = "test"
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.LedgerPath = filepath.Join(base, "output", "ledger.db")
	cfg.Retry.InitialBackoffMS = 1
	cfg.Retry.MaxBackoffMS = 2

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithBaseURL points the Anthropic client at a test server.
func WithBaseURL(url string) ConfigOption {
	return func(c *config.Config) {
		c.Anthropic.BaseURL = url
	}
}

// WithRate sets the request rate and worker count.
func WithRate(requestsPerMinute, concurrency int) ConfigOption {
	return func(c *config.Config) {
		c.Analysis.RequestsPerMinute = requestsPerMinute
		c.Analysis.Concurrency = concurrency
	}
}
