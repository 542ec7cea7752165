package review

import (
	"errors"
	"strconv"
	"strings"
)

// Column names in dataset order.
const (
	ColumnOriginalFilename = "original_filename"
	ColumnSuggestedTitle   = "suggested_title"
	ColumnSuggestedAuthor  = "suggested_author"
	ColumnNewFilename      = "new_filename"
	ColumnConfidence       = "confidence"
	ColumnApprove          = "approve"
	ColumnLanguage         = "language"
	ColumnEdition          = "edition"
	ColumnNotes            = "notes"
)

// Header is the fixed column order of every review dataset.
var Header = []string{
	ColumnOriginalFilename,
	ColumnSuggestedTitle,
	ColumnSuggestedAuthor,
	ColumnNewFilename,
	ColumnConfidence,
	ColumnApprove,
	ColumnLanguage,
	ColumnEdition,
	ColumnNotes,
}

var requiredColumns = []string{
	ColumnOriginalFilename,
	ColumnSuggestedTitle,
	ColumnSuggestedAuthor,
	ColumnNewFilename,
	ColumnConfidence,
	ColumnApprove,
}

type columnIndex map[string]int

func indexColumns(path string, header []string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, bom)))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	for _, name := range requiredColumns {
		if _, ok := idx[name]; !ok {
			return nil, &ParseError{Path: path, Line: 1, Column: name, Err: errors.New("required column missing")}
		}
	}
	return idx, nil
}

func (idx columnIndex) value(row []string, column string) string {
	i, ok := idx[column]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func (idx columnIndex) record(path string, line int, row []string) (Record, error) {
	raw := strings.TrimSpace(idx.value(row, ColumnConfidence))
	confidence, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Record{}, &ParseError{Path: path, Line: line, Column: ColumnConfidence, Err: errors.New("non-numeric value " + strconv.Quote(raw))}
	}
	return Record{
		OriginalFilename: idx.value(row, ColumnOriginalFilename),
		SuggestedTitle:   idx.value(row, ColumnSuggestedTitle),
		SuggestedAuthor:  idx.value(row, ColumnSuggestedAuthor),
		NewFilename:      idx.value(row, ColumnNewFilename),
		Confidence:       confidence,
		Approve:          ParseApproval(idx.value(row, ColumnApprove)),
		Language:         idx.value(row, ColumnLanguage),
		Edition:          idx.value(row, ColumnEdition),
		Notes:            idx.value(row, ColumnNotes),
	}, nil
}

func (r Record) row() []string {
	return []string{
		r.OriginalFilename,
		r.SuggestedTitle,
		r.SuggestedAuthor,
		r.NewFilename,
		formatConfidence(r.Confidence),
		string(r.Approve),
		r.Language,
		r.Edition,
		r.Notes,
	}
}

func formatConfidence(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
