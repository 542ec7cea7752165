package preflight

import (
	"context"
	"path/filepath"

	"github.com/zsafwan/ocr-rename/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// HealthChecker is a provider client that can confirm its key and model.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// RunAll checks the output and ledger directories, then the provider when
// credentials are present. checker may be nil when no client could be built.
func RunAll(ctx context.Context, cfg *config.Config, checker HealthChecker) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir)}

	// The ledger usually lives inside the output directory.
	if ledgerDir := filepath.Dir(cfg.Paths.LedgerPath); ledgerDir != filepath.Clean(cfg.Paths.OutputDir) {
		results = append(results, CheckDirectoryAccess("Ledger directory", ledgerDir))
	}

	name := providerLabel(cfg.Analysis.Provider)
	if err := cfg.RequireCredentials(); err != nil {
		return append(results, Result{Name: name, Detail: "API key missing"})
	}
	if checker == nil {
		return append(results, Result{Name: name, Detail: "client unavailable"})
	}
	return append(results, CheckService(ctx, name, checker))
}

func providerLabel(provider string) string {
	if provider == config.ProviderGemini {
		return "Gemini API"
	}
	return "Anthropic API"
}
