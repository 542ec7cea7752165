// Package config loads, normalizes, and validates ocr-rename configuration.
//
// It supplies defaults, reads TOML from --config, ~/.config/ocr-rename or
// ./ocr-rename.toml, and honours ANTHROPIC_API_KEY and GEMINI_API_KEY
// environment fallbacks. Credentials are checked separately through
// RequireCredentials so offline commands (rename, undo, config validate) work
// without a key.
package config
