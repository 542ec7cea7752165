// Package anthropic implements the vision contracts against Anthropic's
// Messages API (one request per document) and Message Batches API (deferred
// submission, status polling, JSONL results).
//
// Requests carry the first pages of a scan as a base64 document block followed
// by the identification prompt. The client performs a single attempt per call;
// HTTP 408, 429, 529 and 5xx replies are tagged services.ErrTransient so the
// resilience executor can retry them, and every other failure is tagged
// services.ErrService.
package anthropic
