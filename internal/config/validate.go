package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Credentials are not checked
// here; see RequireCredentials.
func (c *Config) Validate() error {
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateAnalysis() error {
	switch c.Analysis.Provider {
	case ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("analysis.provider: unsupported value %q (want %q or %q)", c.Analysis.Provider, ProviderAnthropic, ProviderGemini)
	}
	if c.Analysis.MaxPages < 1 {
		return errors.New("analysis.max_pages must be at least 1")
	}
	if c.Analysis.MaxPDFSizeMB < 1 {
		return errors.New("analysis.max_pdf_size_mb must be at least 1")
	}
	if c.Analysis.Concurrency < 1 {
		return errors.New("analysis.concurrency must be at least 1")
	}
	if c.Analysis.RequestsPerMinute < 1 {
		return errors.New("analysis.requests_per_minute must be at least 1")
	}
	if c.Analysis.MaxTokens < 1 {
		return errors.New("analysis.max_tokens must be positive")
	}
	if c.Anthropic.TimeoutSeconds < 1 {
		return errors.New("anthropic.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateRetry() error {
	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be at least 1")
	}
	if c.Retry.InitialBackoffMS < 0 || c.Retry.MaxBackoffMS < 0 {
		return errors.New("retry backoff values must not be negative")
	}
	if c.Retry.BreakerFailureRatio <= 0 || c.Retry.BreakerFailureRatio > 1 {
		return errors.New("retry.breaker_failure_ratio must be in (0, 1]")
	}
	if c.Retry.BreakerMinRequests < 1 {
		return errors.New("retry.breaker_min_requests must be at least 1")
	}
	if c.Retry.BreakerOpenSeconds < 1 {
		return errors.New("retry.breaker_open_seconds must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
