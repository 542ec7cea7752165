package vision_test

import (
	"errors"
	"testing"

	"github.com/zsafwan/ocr-rename/internal/services"
	"github.com/zsafwan/ocr-rename/internal/services/vision"
)

func TestDecodeIdentificationPlainJSON(t *testing.T) {
	id, err := vision.DecodeIdentification(`{"title":"Dune","author":"Frank Herbert","language":"en","confidence":0.93,"edition":"","notes":"clear title page"}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if id.Title.Value != "Dune" || id.Author.Value != "Frank Herbert" {
		t.Fatalf("unexpected identification: %+v", id)
	}
	if !id.Confidence.Set || id.Confidence.Value != 0.93 {
		t.Fatalf("unexpected confidence: %+v", id.Confidence)
	}
	if !id.Edition.Set || id.Edition.Value != "" {
		t.Fatalf("unexpected edition: %+v", id.Edition)
	}
}

func TestDecodeIdentificationFenced(t *testing.T) {
	text := "```json\n{\"title\": \"تاريخ الطبري\", \"author\": \"الطبري\", \"confidence\": \"0.85\"}\n```"
	id, err := vision.DecodeIdentification(text)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if id.Title.Value != "تاريخ الطبري" {
		t.Fatalf("unexpected title: %q", id.Title.Value)
	}
	if id.Confidence.Value != 0.85 {
		t.Fatalf("unexpected confidence: %v", id.Confidence.Value)
	}
	if id.Language.Set {
		t.Fatalf("expected language to be unset, got %+v", id.Language)
	}
}

func TestDecodeIdentificationTolerantFields(t *testing.T) {
	id, err := vision.DecodeIdentification(`{"title":null,"author":["A. One","B. Two"],"edition":2,"confidence":null}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if id.Title.Set {
		t.Fatalf("null title should be unset: %+v", id.Title)
	}
	if id.Author.Value != "A. One, B. Two" {
		t.Fatalf("unexpected author: %q", id.Author.Value)
	}
	if id.Edition.Value != "2" {
		t.Fatalf("unexpected edition: %q", id.Edition.Value)
	}
	if id.Confidence.Set {
		t.Fatalf("null confidence should be unset")
	}
}

func TestDecodeIdentificationFailures(t *testing.T) {
	inputs := []string{
		"not json",
		"",
		"```\n```",
		`["title"]`,
		`{"title": "A"} trailing`,
		`{"title": "A", "confidence": "high"}`,
		`{"title": {"nested": true}}`,
	}
	for _, in := range inputs {
		_, err := vision.DecodeIdentification(in)
		if err == nil {
			t.Fatalf("expected parse error for %q", in)
		}
		var parseErr *vision.ResponseParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected ResponseParseError for %q, got %T", in, err)
		}
		if !errors.Is(err, services.ErrResponseParse) {
			t.Fatalf("expected parse marker for %q", in)
		}
	}
}

func TestStripCodeFences(t *testing.T) {
	got := vision.StripCodeFences("  ```JSON\n{\"a\":1}\n  ```  \n")
	if got != `{"a":1}` {
		t.Fatalf("unexpected stripped payload: %q", got)
	}
}
