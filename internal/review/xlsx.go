package review

import (
	"errors"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/zsafwan/ocr-rename/internal/fileutil"
	"github.com/zsafwan/ocr-rename/internal/services"
)

// SheetName is the worksheet holding review rows.
const SheetName = "Review"

// WriteXLSX stores records as review_<timestamp>.xlsx in dir.
func WriteXLSX(records []Record, dir string) (string, error) {
	return WriteXLSXAt(records, dir, time.Now())
}

// WriteXLSXAt is WriteXLSX with an explicit timestamp.
func WriteXLSXAt(records []Record, dir string, now time.Time) (string, error) {
	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName(book.GetSheetName(0), SheetName); err != nil {
		return "", services.Wrap(services.ErrFilesystem, "review", "write xlsx", "rename sheet", err)
	}
	if err := setRow(book, 1, toCells(Header)); err != nil {
		return "", err
	}
	for i, rec := range records {
		cells := toCells(rec.row())
		cells[4] = rec.Confidence
		if err := setRow(book, i+2, cells); err != nil {
			return "", err
		}
	}

	file, path, err := fileutil.CreateTimestamped(dir, FilePrefix, ".xlsx", now)
	if err != nil {
		return "", services.Wrap(services.ErrFilesystem, "review", "write xlsx", "", err)
	}
	if err := book.Write(file); err != nil {
		_ = file.Close()
		return "", services.Wrap(services.ErrFilesystem, "review", "write xlsx", path, err)
	}
	if err := file.Close(); err != nil {
		return "", services.Wrap(services.ErrFilesystem, "review", "write xlsx", path, err)
	}
	return path, nil
}

// ReadXLSX loads a workbook written by WriteXLSX (or edited by a reviewer).
// The Review sheet is preferred; otherwise the first sheet is used.
func ReadXLSX(path string) ([]Record, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "review", "read xlsx", path, err)
	}
	defer book.Close()

	sheet := SheetName
	if index, err := book.GetSheetIndex(sheet); err != nil || index < 0 {
		sheet = book.GetSheetName(0)
	}
	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Path: path, Err: errors.New("empty dataset")}
	}
	idx, err := indexColumns(path, rows[0])
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		rec, err := idx.record(path, i+2, row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func setRow(book *excelize.File, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return services.Wrap(services.ErrFilesystem, "review", "write xlsx", "cell name", err)
	}
	if err := book.SetSheetRow(SheetName, cell, &cells); err != nil {
		return services.Wrap(services.ErrFilesystem, "review", "write xlsx", cell, err)
	}
	return nil
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
