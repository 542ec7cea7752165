package review

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zsafwan/ocr-rename/internal/fileutil"
	"github.com/zsafwan/ocr-rename/internal/services"
)

// FilePrefix starts every review dataset name.
const FilePrefix = "review_"

const bom = "\ufeff"

// Write stores records as review_<timestamp>.csv in dir and returns the path.
func Write(records []Record, dir string) (string, error) {
	return WriteAt(records, dir, time.Now())
}

// WriteAt is Write with an explicit timestamp.
func WriteAt(records []Record, dir string, now time.Time) (string, error) {
	file, path, err := fileutil.CreateTimestamped(dir, FilePrefix, ".csv", now)
	if err != nil {
		return "", services.Wrap(services.ErrFilesystem, "review", "write", "", err)
	}
	if err := encodeCSV(file, records); err != nil {
		_ = file.Close()
		return "", services.Wrap(services.ErrFilesystem, "review", "write", path, err)
	}
	if err := file.Close(); err != nil {
		return "", services.Wrap(services.ErrFilesystem, "review", "write", path, err)
	}
	return path, nil
}

func encodeCSV(w io.Writer, records []Record) error {
	if _, err := io.WriteString(w, bom); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write(rec.row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read loads a CSV review dataset. Columns are located by header name, so a
// spreadsheet that reorders them still reads back correctly.
func Read(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "review", "read", path, err)
	}
	defer file.Close()

	br := bufio.NewReader(file)
	if prefix, err := br.Peek(len(bom)); err == nil && string(prefix) == bom {
		_, _ = br.Discard(len(bom))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Path: path, Err: errors.New("empty dataset")}
	}
	if err != nil {
		return nil, &ParseError{Path: path, Line: 1, Err: err}
	}
	idx, err := indexColumns(path, header)
	if err != nil {
		return nil, err
	}

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
		if blankRow(row) {
			continue
		}
		line, _ := reader.FieldPos(0)
		rec, err := idx.record(path, line, row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Load reads a dataset, choosing the codec from the file extension.
func Load(path string) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path)
	case ".csv", "":
		return Read(path)
	default:
		return nil, &ParseError{Path: path, Err: fmt.Errorf("unsupported dataset extension %q", filepath.Ext(path))}
	}
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
