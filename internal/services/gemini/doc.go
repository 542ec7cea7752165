// Package gemini is an alternate vision.Analyzer backed by the Gemini API.
// It has no batch support; batch submission is only offered by the anthropic
// package.
package gemini
