package renamer

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/zsafwan/ocr-rename/internal/fileutil"
	"github.com/zsafwan/ocr-rename/internal/services"
)

// LogPrefix names rename log files: rename_log_YYYYMMDD_HHMMSS.json.
const LogPrefix = "rename_log_"

// SaveLog writes entries as an indented JSON array to a new timestamped file
// in dir and returns its path. Existing logs are never overwritten.
func SaveLog(entries []Entry, dir string, now time.Time) (string, error) {
	if entries == nil {
		entries = []Entry{}
	}
	file, path, err := fileutil.CreateTimestamped(dir, LogPrefix, ".json", now)
	if err != nil {
		return "", services.Wrap(services.ErrFilesystem, "renamer", "save log", dir, err)
	}
	enc := json.NewEncoder(file)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		_ = file.Close()
		return "", services.Wrap(services.ErrFilesystem, "renamer", "save log", path, err)
	}
	if err := file.Close(); err != nil {
		return "", services.Wrap(services.ErrFilesystem, "renamer", "save log", path, err)
	}
	return path, nil
}

// LoadLog reads a rename log written by SaveLog.
func LoadLog(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "renamer", "load log", path, err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, services.Wrap(services.ErrValidation, "renamer", "load log", fmt.Sprintf("%s is not a rename log", path), err)
	}
	return entries, nil
}
