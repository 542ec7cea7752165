package review_test

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/zsafwan/ocr-rename/internal/review"
)

func TestXLSXRoundTrip(t *testing.T) {
	dir := t.TempDir()
	records := sampleRecords()

	path, err := review.WriteXLSXAt(records, dir, time.Date(2024, 6, 1, 8, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	if filepath.Ext(path) != ".xlsx" {
		t.Fatalf("unexpected extension: %s", path)
	}

	got, err := review.Load(path)
	if err != nil {
		t.Fatalf("load xlsx: %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, records)
	}
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	if _, err := review.Load(filepath.Join(t.TempDir(), "review.ods")); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}
