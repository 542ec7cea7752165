package review_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/zsafwan/ocr-rename/internal/review"
	"github.com/zsafwan/ocr-rename/internal/services"
)

func sampleRecords() []review.Record {
	return []review.Record{
		review.MakeRecord("scan_001.pdf", review.Fields{Title: "Dune", Author: "Frank Herbert", Confidence: 0.95, Language: "en"}),
		review.MakeRecord("scan_002.pdf", review.Fields{Title: "مقدمة", Author: "ابن خلدون", Confidence: 0.6, Language: "ar", Notes: "cover only, \"faded\""}),
		review.Placeholder("scan_003.pdf", review.SentinelError, "open: permission denied"),
		review.MakeRecord("scan,004.pdf", review.Fields{Title: "Line\nBreak", Confidence: 0.8, Edition: "3rd"}),
		review.MakeRecord("scan_005.pdf", review.Fields{Title: "Two\r\nLines", Confidence: 0.7, Edition: "2nd\rprinting", Notes: "line1\r\nline2"}),
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	records := sampleRecords()

	path, err := review.WriteAt(records, dir, time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Base(path) != "review_20240102_030405.csv" {
		t.Fatalf("unexpected dataset name: %s", filepath.Base(path))
	}

	got, err := review.Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, records)
	}
}

func TestWriteEmitsBOMAndHeader(t *testing.T) {
	path, err := review.Write(sampleRecords()[:1], t.TempDir())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "\ufefforiginal_filename,suggested_title,suggested_author,new_filename,confidence,approve,language,edition,notes\r\n"
	if !strings.HasPrefix(string(data), want) {
		t.Fatalf("unexpected dataset prefix: %q", string(data[:min(len(data), len(want))]))
	}
	if !strings.Contains(string(data), "scan_001.pdf,Dune,Frank Herbert,Dune - Frank Herbert.pdf,0.95,yes,en,,") {
		t.Fatalf("unexpected row encoding: %q", string(data))
	}
}

func TestReadNormalizesHumanEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edited.csv")
	content := "notes,approve,confidence,new_filename,suggested_author,suggested_title,original_filename\n" +
		"ok,Yes,0.5,A.pdf,Unknown,A,a.pdf\n" +
		"\n" +
		",YES ,0.9,B.pdf,Unknown,B,b.pdf\n" +
		",no,0.9,C.pdf,Unknown,C,c.pdf\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := review.Read(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("unexpected record count: got %d want 3", len(got))
	}
	if !got[0].Approve.Approved() || !got[1].Approve.Approved() || got[2].Approve.Approved() {
		t.Fatalf("unexpected approvals: %q %q %q", got[0].Approve, got[1].Approve, got[2].Approve)
	}
	if got[0].Notes != "ok" || got[0].Language != "" {
		t.Fatalf("unexpected optional columns: %+v", got[0])
	}
}

func TestReadMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.csv")
	content := "original_filename,suggested_title,suggested_author,new_filename,approve\na.pdf,A,B,A - B.pdf,yes\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := review.Read(path)
	var parseErr *review.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Column != "confidence" {
		t.Fatalf("unexpected column: got %q want %q", parseErr.Column, "confidence")
	}
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}

func TestReadNonNumericConfidence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.csv")
	content := strings.Join(review.Header, ",") + "\na.pdf,A,B,A - B.pdf,high,yes,,,\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := review.Read(path)
	var parseErr *review.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Line != 2 {
		t.Fatalf("unexpected line: got %d want 2", parseErr.Line)
	}
}

func TestReadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := review.Read(path); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
