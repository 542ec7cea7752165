package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/zsafwan/ocr-rename/internal/services"
)

// ErrNotFound is returned when a batch is not in the ledger.
var ErrNotFound = errors.New("batch not found in ledger")

// Batch is one submitted message batch.
type Batch struct {
	ID           string
	SourceDir    string
	Model        string
	RequestCount int
	LastStatus   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Item maps a batch request id to the file it was built from. Items with a
// PrepError were never submitted.
type Item struct {
	CustomID  string
	Filename  string
	PrepError string
}

// Store persists batch submissions in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, services.Wrap(services.ErrFilesystem, "ledger", "open", "create directory", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// RecordBatch stores a batch and its items in one transaction.
func (s *Store) RecordBatch(ctx context.Context, batch Batch, items []Item) error {
	if batch.ID == "" {
		return services.Wrap(services.ErrValidation, "ledger", "record batch", "batch id is empty", nil)
	}
	created := batch.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	status := batch.LastStatus
	if status == "" {
		status = "in_progress"
	}
	timestamp := created.UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO batches (id, source_dir, model, request_count, last_status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		batch.ID, batch.SourceDir, batch.Model, batch.RequestCount, status, timestamp, timestamp,
	); err != nil {
		return fmt.Errorf("insert batch %s: %w", batch.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO batch_items (batch_id, custom_id, filename, prep_error) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare item insert: %w", err)
	}
	defer stmt.Close()
	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, batch.ID, item.CustomID, item.Filename, nullableString(item.PrepError)); err != nil {
			return fmt.Errorf("insert item %s: %w", item.CustomID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// UpdateStatus records the last observed processing status of a batch.
func (s *Store) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE batches SET last_status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("update batch %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetBatch fetches one batch by id.
func (s *Store) GetBatch(ctx context.Context, id string) (Batch, error) {
	row := s.db.QueryRowContext(ctx, selectBatch+" WHERE id = ?", id)
	return scanBatch(row)
}

// BatchItems returns the request mapping of a batch ordered by file name.
func (s *Store) BatchItems(ctx context.Context, id string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT custom_id, filename, prep_error FROM batch_items WHERE batch_id = ? ORDER BY filename", id)
	if err != nil {
		return nil, fmt.Errorf("query batch items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var prepErr sql.NullString
		if err := rows.Scan(&item.CustomID, &item.Filename, &prepErr); err != nil {
			return nil, fmt.Errorf("scan batch item: %w", err)
		}
		item.PrepError = prepErr.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// LatestBatch returns the most recently submitted batch.
func (s *Store) LatestBatch(ctx context.Context) (Batch, error) {
	row := s.db.QueryRowContext(ctx, selectBatch+" ORDER BY created_at DESC, rowid DESC LIMIT 1")
	return scanBatch(row)
}

// ListBatches returns up to limit batches, newest first. limit <= 0 lists all.
func (s *Store) ListBatches(ctx context.Context, limit int) ([]Batch, error) {
	query := selectBatch + " ORDER BY created_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

const selectBatch = `SELECT id, source_dir, model, request_count, last_status, created_at, updated_at FROM batches`

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(row scanner) (Batch, error) {
	var batch Batch
	var created, updated string
	if err := row.Scan(&batch.ID, &batch.SourceDir, &batch.Model, &batch.RequestCount, &batch.LastStatus, &created, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Batch{}, ErrNotFound
		}
		return Batch{}, fmt.Errorf("scan batch: %w", err)
	}
	batch.CreatedAt = parseTime(created)
	batch.UpdatedAt = parseTime(updated)
	return batch, nil
}

func parseTime(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
