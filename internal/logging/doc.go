// Package logging assembles the slog loggers used by every ocr-rename command.
//
// Console output is a compact human format written to stderr; JSON output and
// the optional log file carry the same records for machines. Components get a
// logger through NewComponentLogger and tag file names and batch IDs through
// the context helpers in the services package. WarnWithContext enforces the
// event_type, error_hint and impact fields on warnings.
package logging
