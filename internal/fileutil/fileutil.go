package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the suffix format for per-run output files.
const TimestampLayout = "20060102_150405"

// maxNameAttempts bounds the _N suffix search in CreateTimestamped.
const maxNameAttempts = 1000

// IsPDF reports whether name carries a .pdf extension (any case).
func IsPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// ListPDFs returns the names (not paths) of regular PDF files directly inside
// dir, sorted lexically.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !IsPDF(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether path can be stat'ed without following a final symlink.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// CreateTimestamped exclusively creates dir/<prefix><now><ext>. When a file with
// that timestamp already exists it tries <prefix><now>_2<ext>, _3 and so on, so
// two runs within the same second never overwrite each other.
func CreateTimestamped(dir, prefix, ext string, now time.Time) (*os.File, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create directory %q: %w", dir, err)
	}
	stamp := prefix + now.Format(TimestampLayout)
	for attempt := 1; attempt <= maxNameAttempts; attempt++ {
		name := stamp + ext
		if attempt > 1 {
			name = stamp + "_" + strconv.Itoa(attempt) + ext
		}
		path := filepath.Join(dir, name)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return file, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create %s: %w", path, err)
		}
	}
	return nil, "", fmt.Errorf("create %s%s: too many files for timestamp", stamp, ext)
}
