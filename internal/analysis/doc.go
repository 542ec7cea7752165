// Package analysis turns a directory of PDFs into review records.
//
// The Orchestrator analyzes files concurrently: a bounded errgroup pool, one
// shared rate limiter for request starts, and a resilience executor around
// each vision call. The BatchRunner submits the same requests as one deferred
// message batch and maps results back to file names through the ledger.
// Per-file failures never abort a run; they become ERROR, PARSE_ERROR or
// API_ERROR placeholder records.
package analysis
