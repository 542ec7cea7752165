package review

import (
	"fmt"

	"github.com/zsafwan/ocr-rename/internal/services"
)

// ParseError reports a structurally invalid review dataset. It matches
// services.ErrValidation.
type ParseError struct {
	Path   string
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "review dataset " + e.Path
	if e.Line > 0 {
		msg += fmt.Sprintf(" line %d", e.Line)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(" column %q", e.Column)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{services.ErrValidation}
	}
	return []error{services.ErrValidation, e.Err}
}
