// Package services holds the error markers shared by every component and the
// clients for external vision services (see the anthropic and gemini
// subpackages, plus the provider-neutral vision package).
//
// Failures are tagged with one of the sentinel markers through Wrap so callers
// can decide with errors.Is whether a failure degrades a single file to a
// placeholder record (extraction, parse, service) or ends the run (validation,
// configuration). IsTransient centralizes the retry decision used by the
// resilience executor.
package services
