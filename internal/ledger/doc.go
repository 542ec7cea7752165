// Package ledger records submitted message batches in a local SQLite file.
//
// Batch request ids are UUIDs because the service restricts their character
// set, so the ledger is what turns a result line back into a file name. It also
// remembers files that failed preparation and were never submitted, and lets
// batch commands default to the most recent submission.
package ledger
