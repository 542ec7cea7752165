package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Analysis controls how PDFs are prepared and submitted for identification.
type Analysis struct {
	Provider          string `toml:"provider"`
	Model             string `toml:"model"`
	MaxPages          int    `toml:"max_pages"`
	MaxPDFSizeMB      int    `toml:"max_pdf_size_mb"`
	FallbackPages     []int  `toml:"fallback_pages"`
	Concurrency       int    `toml:"concurrency"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
	MaxTokens         int    `toml:"max_tokens"`
}

// Anthropic contains Messages API connection settings.
type Anthropic struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Gemini contains Google Generative AI settings used when provider = "gemini".
type Gemini struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// Retry tunes retries and the circuit breaker around vision calls.
type Retry struct {
	MaxAttempts         int     `toml:"max_attempts"`
	InitialBackoffMS    int     `toml:"initial_backoff_ms"`
	MaxBackoffMS        int     `toml:"max_backoff_ms"`
	BreakerEnabled      bool    `toml:"breaker_enabled"`
	BreakerMinRequests  int     `toml:"breaker_min_requests"`
	BreakerFailureRatio float64 `toml:"breaker_failure_ratio"`
	BreakerOpenSeconds  int     `toml:"breaker_open_seconds"`
}

// Paths contains output locations.
type Paths struct {
	OutputDir  string `toml:"output_dir"`
	LedgerPath string `toml:"ledger_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for ocr-rename.
//
// Configuration sections by subsystem:
//   - Analysis: page budget, concurrency, request rate, provider and model
//   - Anthropic: Messages and Message Batches API access
//   - Gemini: alternative provider for synchronous analysis
//   - Retry: retry and circuit breaker policy
//   - Paths: review/log output directory and batch ledger
//   - Logging: log format, level and optional log file
type Config struct {
	Analysis  Analysis  `toml:"analysis"`
	Anthropic Anthropic `toml:"anthropic"`
	Gemini    Gemini    `toml:"gemini"`
	Retry     Retry     `toml:"retry"`
	Paths     Paths     `toml:"paths"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, normalizes and validates a configuration file. A
// missing file yields defaults. It returns the resolved path and whether the
// file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the output directory and the ledger's parent.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, filepath.Dir(c.Paths.LedgerPath)} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RequireCredentials reports a configuration error when the selected provider
// has no API key. Only commands that call the service check it.
func (c *Config) RequireCredentials() error {
	switch c.Analysis.Provider {
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return errors.New("gemini.api_key is required. Set GEMINI_API_KEY or edit the config file")
		}
	default:
		if c.Anthropic.APIKey == "" {
			path, err := DefaultConfigPath()
			if err != nil {
				path = defaultConfigPath
			}
			return fmt.Errorf("anthropic.api_key is required. Set ANTHROPIC_API_KEY (a .env file works) or edit %s (create with 'ocr-rename config init')", path)
		}
	}
	return nil
}

// RequireAnthropic reports an error unless Anthropic credentials are present.
// Message batches exist only on the Anthropic API.
func (c *Config) RequireAnthropic() error {
	if c.Anthropic.APIKey == "" {
		return errors.New("anthropic.api_key is required for batch commands. Set ANTHROPIC_API_KEY")
	}
	return nil
}

// MaxPDFBytes returns the per-document payload budget in bytes.
func (c *Config) MaxPDFBytes() int64 {
	return int64(c.Analysis.MaxPDFSizeMB) * 1024 * 1024
}

// ActiveModel returns the model name for the selected provider.
func (c *Config) ActiveModel() string {
	if c.Analysis.Provider == ProviderGemini {
		return c.Gemini.Model
	}
	return c.Analysis.Model
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
