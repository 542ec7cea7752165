package config

// Providers accepted by analysis.provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

const (
	defaultConfigPath        = "~/.config/ocr-rename/config.toml"
	projectConfigName        = "ocr-rename.toml"
	defaultProvider          = ProviderAnthropic
	defaultModel             = "claude-haiku-4-5-20251001"
	defaultMaxPages          = 4
	defaultMaxPDFSizeMB      = 30
	defaultConcurrency       = 5
	defaultRequestsPerMinute = 50
	defaultMaxTokens         = 1024
	defaultAnthropicBaseURL  = "https://api.anthropic.com"
	defaultAnthropicTimeout  = 120
	defaultGeminiModel       = "gemini-2.0-flash"
	defaultRetryAttempts     = 3
	defaultInitialBackoffMS  = 500
	defaultMaxBackoffMS      = 8000
	defaultBreakerMinReqs    = 5
	defaultBreakerRatio      = 0.6
	defaultBreakerOpenSecs   = 30
	defaultOutputDir         = "output"
	defaultLedgerName        = "ledger.db"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Analysis: Analysis{
			Provider:          defaultProvider,
			Model:             defaultModel,
			MaxPages:          defaultMaxPages,
			MaxPDFSizeMB:      defaultMaxPDFSizeMB,
			FallbackPages:     []int{2, 1},
			Concurrency:       defaultConcurrency,
			RequestsPerMinute: defaultRequestsPerMinute,
			MaxTokens:         defaultMaxTokens,
		},
		Anthropic: Anthropic{
			BaseURL:        defaultAnthropicBaseURL,
			TimeoutSeconds: defaultAnthropicTimeout,
		},
		Gemini: Gemini{
			Model: defaultGeminiModel,
		},
		Retry: Retry{
			MaxAttempts:         defaultRetryAttempts,
			InitialBackoffMS:    defaultInitialBackoffMS,
			MaxBackoffMS:        defaultMaxBackoffMS,
			BreakerEnabled:      true,
			BreakerMinRequests:  defaultBreakerMinReqs,
			BreakerFailureRatio: defaultBreakerRatio,
			BreakerOpenSeconds:  defaultBreakerOpenSecs,
		},
		Paths: Paths{
			OutputDir: defaultOutputDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
