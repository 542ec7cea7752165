package review

import (
	"math"
	"strings"

	"github.com/zsafwan/ocr-rename/internal/filename"
	"github.com/zsafwan/ocr-rename/internal/language"
)

// ConfidenceThreshold is the minimum confidence for automatic approval.
const ConfidenceThreshold = 0.8

// Approval is the persisted approve column. Reviewers may type anything; the
// value is kept lower-cased and trimmed, and only ApprovalApproved renames.
type Approval string

const (
	ApprovalApproved    Approval = "yes"
	ApprovalNeedsReview Approval = "review"
)

// Title sentinels used by placeholder records.
const (
	SentinelError      = "ERROR"
	SentinelParseError = "PARSE_ERROR"
	SentinelAPIError   = "API_ERROR"
)

// ApprovalFor applies the confidence threshold.
func ApprovalFor(confidence float64) Approval {
	if confidence >= ConfidenceThreshold {
		return ApprovalApproved
	}
	return ApprovalNeedsReview
}

// ParseApproval normalizes a human-edited approve cell.
func ParseApproval(value string) Approval {
	return Approval(strings.ToLower(strings.TrimSpace(value)))
}

// Approved reports whether the record should be renamed.
func (a Approval) Approved() bool {
	return a == ApprovalApproved
}

// IsFailureTitle reports whether title marks a placeholder record.
func IsFailureTitle(title string) bool {
	switch title {
	case SentinelError, SentinelParseError, SentinelAPIError:
		return true
	default:
		return false
	}
}

// Fields is the typed identification result a record is built from. Empty
// strings mean "not provided".
type Fields struct {
	Title      string
	Author     string
	Confidence float64
	Language   string
	Edition    string
	Notes      string
}

// Record is one row of the review dataset.
type Record struct {
	OriginalFilename string
	SuggestedTitle   string
	SuggestedAuthor  string
	NewFilename      string
	Confidence       float64
	Approve          Approval
	Language         string
	Edition          string
	Notes            string
}

// MakeRecord builds the review row for original from an identification
// result.
func MakeRecord(original string, f Fields) Record {
	title := cleanText(f.Title)
	if title == "" {
		title = filename.UnknownAuthor
	}
	author := cleanText(f.Author)
	if author == "" {
		author = filename.UnknownAuthor
	}
	confidence := clampConfidence(f.Confidence)
	return Record{
		OriginalFilename: original,
		SuggestedTitle:   title,
		SuggestedAuthor:  author,
		NewFilename:      filename.Build(title, author),
		Confidence:       confidence,
		Approve:          ApprovalFor(confidence),
		Language:         language.Normalize(cleanText(f.Language)),
		Edition:          cleanText(f.Edition),
		Notes:            cleanText(f.Notes),
	}
}

// lineBreaks folds CRLF and lone CR to LF; CSV readers return quoted line
// breaks as LF only.
var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func cleanText(value string) string {
	return strings.TrimSpace(lineBreaks.Replace(value))
}

// Placeholder builds the zero-confidence record shown for a file that could
// not be identified.
func Placeholder(original, sentinel, notes string) Record {
	return MakeRecord(original, Fields{
		Title:  sentinel,
		Author: filename.UnknownAuthor,
		Notes:  notes,
	})
}

// Failed reports whether r is a placeholder.
func (r Record) Failed() bool {
	return IsFailureTitle(r.SuggestedTitle)
}

func clampConfidence(value float64) float64 {
	switch {
	case math.IsNaN(value), value < 0:
		return 0
	case value > 1:
		return 1
	default:
		return value
	}
}
