package review

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/zsafwan/ocr-rename/internal/logging"
)

// AlreadyDone scans the review datasets in dir and returns the original
// filenames that already have a non-placeholder record. Placeholder-only files
// are left out so a resumed run retries them. Datasets that fail to load are
// logged and ignored.
func AlreadyDone(dir string, logger *slog.Logger) (map[string]struct{}, error) {
	logger = logging.NewComponentLogger(logger, "review")
	done := make(map[string]struct{})

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return done, nil
	}

	var datasets []string
	for _, pattern := range []string{FilePrefix + "*.csv", FilePrefix + "*.xlsx"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, matches...)
	}
	sort.Strings(datasets)

	for _, path := range datasets {
		records, err := Load(path)
		if err != nil {
			logging.WarnWithContext(logger, "review dataset skipped during resume scan", "resume_scan_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "files listed only in this dataset will be analyzed again"),
			)
			continue
		}
		for _, rec := range records {
			if rec.Failed() {
				continue
			}
			done[rec.OriginalFilename] = struct{}{}
		}
	}
	logger.Debug("resume scan complete", logging.Int("datasets", len(datasets)), logging.Int("done", len(done)))
	return done, nil
}
