package renamer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/zsafwan/ocr-rename/internal/logging"
	"github.com/zsafwan/ocr-rename/internal/services"
)

// Undo outcomes.
const (
	UndoReversed = "reversed"
	UndoNotFound = "not found"
)

// UndoOutcome reports what happened to one renamed entry.
type UndoOutcome struct {
	Entry  Entry
	Result string
}

// UndoResult tallies one Undo run.
type UndoResult struct {
	Outcomes []UndoOutcome
	Reversed int
	Skipped  int
	Errors   int
}

func (r *UndoResult) add(entry Entry, outcome string) {
	r.Outcomes = append(r.Outcomes, UndoOutcome{Entry: entry, Result: outcome})
	switch outcome {
	case UndoReversed:
		r.Reversed++
	case UndoNotFound:
		r.Skipped++
	default:
		r.Errors++
	}
}

// Undo renames every "renamed" entry of the log at logPath back to its
// original name inside dir, last entry first. Entries whose renamed file is
// gone are skipped, so a second Undo reports only skips. The log file is
// never modified.
func Undo(ctx context.Context, logPath, dir string, logger *slog.Logger) (UndoResult, error) {
	var result UndoResult
	logger = logging.NewComponentLogger(logger, "undo")

	entries, err := LoadLog(logPath)
	if err != nil {
		return result, err
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		if err == nil {
			err = errors.New("not a directory")
		}
		return result, services.Wrap(services.ErrFilesystem, "renamer", "undo", dir, err)
	}
	lock, err := LockDir(dir)
	if err != nil {
		return result, err
	}
	defer func() { _ = lock.Unlock() }()

	for i := len(entries) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		entry := entries[i]
		if entry.Status != StatusRenamed {
			continue
		}
		outcome := undoOne(dir, entry)
		result.add(entry, outcome)
		switch outcome {
		case UndoReversed:
			logger.Info("restored", logging.String("new", entry.New), logging.String("original", entry.Original))
		case UndoNotFound:
			logger.Info("skipped", logging.String("new", entry.New), logging.String("reason", UndoNotFound))
		default:
			logging.WarnWithContext(logger, "undo failed", "undo_failed",
				logging.String("new", entry.New),
				logging.String("original", entry.Original),
				logging.String("status", outcome),
				logging.String(logging.FieldImpact, "file keeps its renamed name"),
			)
		}
	}

	logger.Info("undo finished",
		logging.Int("reversed", result.Reversed),
		logging.Int("skipped", result.Skipped),
		logging.Int("errors", result.Errors),
	)
	return result, nil
}

func undoOne(dir string, entry Entry) string {
	if !validName(entry.Original) || !validName(entry.New) {
		return errorStatus("invalid name in log")
	}
	current := filepath.Join(dir, entry.New)
	original := filepath.Join(dir, entry.Original)

	info, err := os.Lstat(current)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return UndoNotFound
		}
		return errorStatus(err.Error())
	}
	if occupied, err := occupiedByOther(original, info); err != nil {
		return errorStatus(err.Error())
	} else if occupied {
		return errorStatus("original name already exists")
	}
	if err := os.Rename(current, original); err != nil {
		return errorStatus(err.Error())
	}
	return UndoReversed
}
