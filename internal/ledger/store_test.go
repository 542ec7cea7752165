package ledger_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zsafwan/ocr-rename/internal/ledger"
)

func openLedger(t *testing.T) *ledger.Store {
	t.Helper()
	store, err := ledger.Open(filepath.Join(t.TempDir(), "nested", "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordBatchRoundTrip(t *testing.T) {
	store := openLedger(t)
	ctx := context.Background()

	items := []ledger.Item{
		{CustomID: "b-id", Filename: "b.pdf"},
		{CustomID: "a-id", Filename: "a.pdf"},
		{CustomID: "c-id", Filename: "c.pdf", PrepError: "page count: malformed"},
	}
	batch := ledger.Batch{ID: "msgbatch_1", SourceDir: "/books", Model: "claude-haiku-4-5-20251001", RequestCount: 2}
	if err := store.RecordBatch(ctx, batch, items); err != nil {
		t.Fatalf("RecordBatch: %v", err)
	}

	got, err := store.BatchItems(ctx, "msgbatch_1")
	if err != nil {
		t.Fatalf("BatchItems: %v", err)
	}
	if len(got) != 3 || got[0].Filename != "a.pdf" || got[2].PrepError != "page count: malformed" {
		t.Fatalf("unexpected items: %+v", got)
	}
	if got[0].PrepError != "" {
		t.Fatalf("expected empty prep error, got %q", got[0].PrepError)
	}

	fetched, err := store.GetBatch(ctx, "msgbatch_1")
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if fetched.RequestCount != 2 || fetched.LastStatus != "in_progress" || fetched.CreatedAt.IsZero() {
		t.Fatalf("unexpected batch: %+v", fetched)
	}
}

func TestLatestAndListBatches(t *testing.T) {
	store := openLedger(t)
	ctx := context.Background()

	if _, err := store.LatestBatch(ctx); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty ledger, got %v", err)
	}

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"first", "second", "third"} {
		batch := ledger.Batch{ID: id, SourceDir: "/d", Model: "m", RequestCount: i + 1, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.RecordBatch(ctx, batch, nil); err != nil {
			t.Fatalf("RecordBatch %s: %v", id, err)
		}
	}

	latest, err := store.LatestBatch(ctx)
	if err != nil {
		t.Fatalf("LatestBatch: %v", err)
	}
	if latest.ID != "third" {
		t.Fatalf("latest = %q, want third", latest.ID)
	}

	listed, err := store.ListBatches(ctx, 2)
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != "third" || listed[1].ID != "second" {
		t.Fatalf("unexpected list: %+v", listed)
	}
}

func TestUpdateStatus(t *testing.T) {
	store := openLedger(t)
	ctx := context.Background()
	if err := store.RecordBatch(ctx, ledger.Batch{ID: "b1", SourceDir: "/d", Model: "m"}, nil); err != nil {
		t.Fatalf("RecordBatch: %v", err)
	}
	if err := store.UpdateStatus(ctx, "b1", "ended"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	batch, err := store.GetBatch(ctx, "b1")
	if err != nil || batch.LastStatus != "ended" {
		t.Fatalf("unexpected batch %+v err %v", batch, err)
	}
	if err := store.UpdateStatus(ctx, "missing", "ended"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := ledger.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	if _, err := ledger.Open(path); !errors.Is(err, ledger.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestRecordBatchRequiresID(t *testing.T) {
	store := openLedger(t)
	if err := store.RecordBatch(context.Background(), ledger.Batch{}, nil); err == nil {
		t.Fatal("expected error for empty batch id")
	}
}
