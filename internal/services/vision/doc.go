// Package vision defines the provider-neutral contract for identifying a book
// from its first pages: the Analyzer and BatchClient interfaces, the shared
// prompts, the typed Identification decoded from a reply, and the static price
// table used for cost estimates.
//
// # Reply Parsing
//
// Models sometimes wrap their JSON in a markdown fence. DecodeIdentification
// removes fence lines and then requires the remainder to be exactly one JSON
// object; anything else is a *ResponseParseError so the caller can record a
// PARSE_ERROR placeholder instead of guessing. Field values are tolerant of
// numbers-as-strings and nulls.
//
// # Providers
//
// The anthropic package implements both Analyzer and BatchClient; the gemini
// package implements Analyzer only.
package vision
