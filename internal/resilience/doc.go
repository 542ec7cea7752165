// Package resilience wraps vision calls with bounded exponential retries and a
// gobreaker circuit breaker, so a failing service degrades the remaining files
// to placeholders quickly instead of stalling every worker on retries.
package resilience
