package renamer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zsafwan/ocr-rename/internal/fileutil"
	"github.com/zsafwan/ocr-rename/internal/logging"
	"github.com/zsafwan/ocr-rename/internal/review"
	"github.com/zsafwan/ocr-rename/internal/services"
)

// Entry statuses. Failures use "error: <message>".
const (
	StatusPending = "pending"
	StatusDryRun  = "dry_run"
	StatusRenamed = "renamed"

	errorStatusPrefix = "error: "
)

// Skip reasons for entries left pending.
const (
	SkipNotFound = "not found"
	SkipSameName = "same name"
)

// Entry is one line of the rename log.
type Entry struct {
	Original string `json:"original"`
	New      string `json:"new"`
	Status   string `json:"status"`

	// SkipReason explains a pending entry. It is not persisted.
	SkipReason string `json:"-"`
}

// Failed reports whether the entry carries an error status.
func (e Entry) Failed() bool {
	return strings.HasPrefix(e.Status, errorStatusPrefix)
}

func errorStatus(msg string) string {
	return errorStatusPrefix + msg
}

// Options controls Execute.
type Options struct {
	DryRun bool
	// OutputDir receives the rename log. Empty means the renamed directory.
	OutputDir string
	Logger    *slog.Logger
	// Now stamps the log file name. Defaults to time.Now.
	Now func() time.Time
}

// Result tallies one Execute run.
type Result struct {
	Entries []Entry
	Renamed int
	DryRun  int
	Skipped int
	Errors  int
	// LogPath is empty when no log was written.
	LogPath string
}

func (r *Result) add(entry Entry) {
	r.Entries = append(r.Entries, entry)
	switch {
	case entry.Status == StatusRenamed:
		r.Renamed++
	case entry.Status == StatusDryRun:
		r.DryRun++
	case entry.Failed():
		r.Errors++
	default:
		r.Skipped++
	}
}

// Execute renames dir/original to dir/new for each planned record, one at a
// time. Per-entry failures are recorded in the entry status and never stop
// the run. Outside dry-run, a log is saved for Undo once any rename was
// attempted; a run where everything was skipped leaves no log. Dry-run
// touches nothing in dir. When ctx is cancelled the remaining records are
// not attempted; the log of what already happened is still saved.
func Execute(ctx context.Context, dir string, records []review.Record, opts Options) (Result, error) {
	var result Result
	logger := logging.NewComponentLogger(opts.Logger, "renamer")
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		if err == nil {
			err = errors.New("not a directory")
		}
		return result, services.Wrap(services.ErrFilesystem, "renamer", "execute", dir, err)
	}
	lock, err := LockDir(dir)
	if err != nil {
		return result, err
	}
	defer func() { _ = lock.Unlock() }()

	var runErr error
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		entry := renameOne(dir, rec, opts.DryRun)
		result.add(entry)
		logEntry(logger, entry)
	}

	if !opts.DryRun && result.Renamed+result.Errors > 0 {
		outputDir := opts.OutputDir
		if strings.TrimSpace(outputDir) == "" {
			outputDir = dir
		}
		path, err := SaveLog(result.Entries, outputDir, now())
		if err != nil {
			logging.ErrorWithContext(logger, "rename log not saved", "rename_log_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "these renames cannot be undone automatically"),
			)
			return result, errors.Join(runErr, err)
		}
		result.LogPath = path
		logger.Info("rename log saved", logging.String("log_path", path))
	}

	logger.Info("rename finished",
		logging.Int("renamed", result.Renamed),
		logging.Int("dry_run", result.DryRun),
		logging.Int("skipped", result.Skipped),
		logging.Int("errors", result.Errors),
	)
	return result, runErr
}

func renameOne(dir string, rec review.Record, dryRun bool) Entry {
	entry := Entry{Original: rec.OriginalFilename, New: rec.NewFilename, Status: StatusPending}
	if !validName(entry.Original) {
		entry.Status = errorStatus("invalid source name")
		return entry
	}
	if !validName(entry.New) {
		entry.Status = errorStatus("invalid target name")
		return entry
	}

	src := filepath.Join(dir, entry.Original)
	dst := filepath.Join(dir, entry.New)

	srcInfo, err := os.Lstat(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			entry.SkipReason = SkipNotFound
			return entry
		}
		entry.Status = errorStatus(err.Error())
		return entry
	}
	if entry.Original == entry.New {
		entry.SkipReason = SkipSameName
		return entry
	}
	if occupied, err := occupiedByOther(dst, srcInfo); err != nil {
		entry.Status = errorStatus(err.Error())
		return entry
	} else if occupied {
		entry.Status = errorStatus("target already exists")
		return entry
	}

	if dryRun {
		entry.Status = StatusDryRun
		return entry
	}
	if err := os.Rename(src, dst); err != nil {
		entry.Status = errorStatus(err.Error())
		return entry
	}
	entry.Status = StatusRenamed
	return entry
}

// occupiedByOther reports whether path exists and is not the file described
// by self. A case-only rename on a case-insensitive filesystem resolves the
// target to the source itself, which is not a conflict.
func occupiedByOther(path string, self os.FileInfo) (bool, error) {
	exists, err := fileutil.Exists(path)
	if err != nil || !exists {
		return false, err
	}
	info, err := os.Lstat(path)
	if err != nil {
		return false, err
	}
	return !os.SameFile(info, self), nil
}

// validName rejects names that would escape the directory.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

func logEntry(logger *slog.Logger, entry Entry) {
	switch {
	case entry.Status == StatusRenamed:
		logger.Info("renamed", logging.String("original", entry.Original), logging.String("new", entry.New))
	case entry.Status == StatusDryRun:
		logger.Info("would rename", logging.String("original", entry.Original), logging.String("new", entry.New))
	case entry.Failed():
		logging.WarnWithContext(logger, "rename failed", "rename_failed",
			logging.String("original", entry.Original),
			logging.String("new", entry.New),
			logging.String("status", entry.Status),
			logging.String(logging.FieldImpact, "file keeps its original name"),
		)
	default:
		logger.Info("skipped", logging.String("original", entry.Original), logging.String("reason", entry.SkipReason))
	}
}
