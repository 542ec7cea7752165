// Package review owns the review dataset: the per-file Record built from an
// identification result, its confidence-based approval policy, and the CSV
// (UTF-8 with BOM) and XLSX codecs a human edits between analysis and rename.
//
// Datasets are written once per run under a timestamped name and read back by
// header name. Approval cells are normalized to lower case on read; only "yes"
// approves a rename. Read failures caused by the dataset's structure are
// reported as *ParseError, which matches services.ErrValidation.
//
// AlreadyDone derives the resume set from every dataset in the output
// directory: a file counts as done once any dataset holds a record for it that
// is not an ERROR, PARSE_ERROR or API_ERROR placeholder.
package review
