package vision

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/zsafwan/ocr-rename/internal/services"
)

const snippetLimit = 160

// Identification is the typed model answer. Every field is optional.
type Identification struct {
	Title      OptionalString `json:"title"`
	Author     OptionalString `json:"author"`
	Language   OptionalString `json:"language"`
	Confidence OptionalFloat  `json:"confidence"`
	Edition    OptionalString `json:"edition"`
	Notes      OptionalString `json:"notes"`
}

// OptionalString accepts a JSON string, number, bool, string array (joined
// with ", ") or null.
type OptionalString struct {
	Value string
	Set   bool
}

func (s *OptionalString) UnmarshalJSON(data []byte) error {
	*s = OptionalString{}
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var str string
	if err := json.Unmarshal(trimmed, &str); err == nil {
		*s = OptionalString{Value: str, Set: true}
		return nil
	}
	var list []string
	if err := json.Unmarshal(trimmed, &list); err == nil {
		*s = OptionalString{Value: strings.Join(list, ", "), Set: true}
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err == nil {
		*s = OptionalString{Value: num.String(), Set: true}
		return nil
	}
	var flag bool
	if err := json.Unmarshal(trimmed, &flag); err == nil {
		*s = OptionalString{Value: strconv.FormatBool(flag), Set: true}
		return nil
	}
	return fmt.Errorf("expected string, got %s", summarize(string(trimmed)))
}

// OptionalFloat accepts a JSON number, a numeric string, or null.
type OptionalFloat struct {
	Value float64
	Set   bool
}

func (f *OptionalFloat) UnmarshalJSON(data []byte) error {
	*f = OptionalFloat{}
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var num float64
	if err := json.Unmarshal(trimmed, &num); err == nil {
		*f = OptionalFloat{Value: num, Set: true}
		return nil
	}
	var str string
	if err := json.Unmarshal(trimmed, &str); err == nil {
		parsed, perr := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if perr != nil {
			return fmt.Errorf("expected number, got %q", str)
		}
		*f = OptionalFloat{Value: parsed, Set: true}
		return nil
	}
	return fmt.Errorf("expected number, got %s", summarize(string(trimmed)))
}

// ResponseParseError reports a reply that is not a single JSON object of the
// expected shape. It matches services.ErrResponseParse.
type ResponseParseError struct {
	Snippet string
	Err     error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("parse vision response: %v (payload snippet: %s)", e.Err, e.Snippet)
}

func (e *ResponseParseError) Unwrap() []error {
	return []error{services.ErrResponseParse, e.Err}
}

// DecodeIdentification strips markdown fence lines from text and decodes the
// remainder as one JSON object.
func DecodeIdentification(text string) (Identification, error) {
	var id Identification
	payload := StripCodeFences(text)
	if payload == "" {
		return id, &ResponseParseError{Snippet: summarize(text), Err: errors.New("empty response")}
	}
	if payload[0] != '{' {
		return id, &ResponseParseError{Snippet: summarize(payload), Err: errors.New("expected a JSON object")}
	}
	if err := json.Unmarshal([]byte(payload), &id); err != nil {
		return Identification{}, &ResponseParseError{Snippet: summarize(payload), Err: err}
	}
	return id, nil
}

// StripCodeFences drops every line that opens or closes a markdown fence.
func StripCodeFences(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func summarize(value string) string {
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return `""`
	}
	if utf8.RuneCountInString(value) <= snippetLimit {
		return strconv.Quote(value)
	}
	runes := []rune(value)
	return strconv.Quote(string(runes[:snippetLimit]) + "...")
}
