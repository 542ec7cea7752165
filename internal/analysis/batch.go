package analysis

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zsafwan/ocr-rename/internal/ledger"
	"github.com/zsafwan/ocr-rename/internal/logging"
	"github.com/zsafwan/ocr-rename/internal/review"
	"github.com/zsafwan/ocr-rename/internal/services"
	"github.com/zsafwan/ocr-rename/internal/services/vision"
)

// LastBatchFile holds the id of the most recent submission in the output dir.
const LastBatchFile = "last_batch_id.txt"

// ErrNothingToSubmit is returned when no file could be prepared for a batch.
var ErrNothingToSubmit = errors.New("no files to submit")

// Submission describes a submitted batch.
type Submission struct {
	Status       vision.BatchStatus
	Submitted    int
	Skipped      int
	PrepFailures int
	IDFile       string
}

// BatchRunner submits deferred analysis batches and turns their results into
// review records.
type BatchRunner struct {
	client      vision.BatchClient
	extractor   Extractor
	ledger      *ledger.Store
	model       string
	outputDir   string
	concurrency int
	logger      *slog.Logger
	newID       func() string
}

// NewBatchRunner wires a batch runner. outputDir receives last_batch_id.txt.
func NewBatchRunner(client vision.BatchClient, extractor Extractor, store *ledger.Store, model, outputDir string, concurrency int, logger *slog.Logger) *BatchRunner {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &BatchRunner{
		client:      client,
		extractor:   extractor,
		ledger:      store,
		model:       model,
		outputDir:   outputDir,
		concurrency: concurrency,
		logger:      logging.NewComponentLogger(logger, "batch"),
		newID:       uuid.NewString,
	}
}

type prepared struct {
	item ledger.Item
	doc  vision.Document
}

// Submit extracts every file not named in done and submits them as one
// batch. Each request gets a UUID custom id; the id to file mapping and any
// preparation failures are stored in the ledger.
func (b *BatchRunner) Submit(ctx context.Context, dir string, files []string, done map[string]struct{}) (Submission, error) {
	var sub Submission
	pending := make([]string, 0, len(files))
	for _, path := range files {
		if _, ok := done[filepath.Base(path)]; ok {
			sub.Skipped++
			continue
		}
		pending = append(pending, path)
	}

	results := make([]prepared, len(pending))
	var group errgroup.Group
	group.SetLimit(b.concurrency)
	for i, path := range pending {
		group.Go(func() error {
			name := filepath.Base(path)
			item := ledger.Item{CustomID: b.newID(), Filename: name}
			data, err := b.extractor.Extract(path)
			if err != nil {
				item.PrepError = err.Error()
				logging.WarnWithContext(b.logger, "file not prepared for batch", "batch_prepare_failed",
					logging.String(logging.FieldFile, name),
					logging.Error(err),
					logging.String(logging.FieldImpact, "file reported as ERROR when results are fetched"),
				)
			}
			results[i] = prepared{item: item, doc: vision.Document{Name: name, MediaType: vision.MediaTypePDF, Data: data}}
			return nil
		})
	}
	_ = group.Wait()
	if err := ctx.Err(); err != nil {
		return sub, err
	}

	requests := make([]vision.BatchRequest, 0, len(results))
	items := make([]ledger.Item, 0, len(results))
	for _, p := range results {
		items = append(items, p.item)
		if p.item.PrepError != "" {
			sub.PrepFailures++
			continue
		}
		requests = append(requests, vision.BatchRequest{CustomID: p.item.CustomID, Document: p.doc})
	}
	if len(requests) == 0 {
		return sub, ErrNothingToSubmit
	}

	status, err := b.client.SubmitBatch(ctx, requests)
	if err != nil {
		return sub, err
	}
	sub.Status = status
	sub.Submitted = len(requests)
	ctx = services.WithBatchID(ctx, status.ID)

	batch := ledger.Batch{
		ID:           status.ID,
		SourceDir:    dir,
		Model:        b.model,
		RequestCount: len(requests),
		LastStatus:   string(status.ProcessingStatus),
		CreatedAt:    status.CreatedAt,
	}
	if err := b.ledger.RecordBatch(ctx, batch, items); err != nil {
		return sub, services.Wrap(services.ErrFilesystem, "batch", "record", "batch "+status.ID+" submitted but not recorded", err)
	}

	idFile, err := b.writeLastBatchID(status.ID)
	if err != nil {
		return sub, err
	}
	sub.IDFile = idFile
	logging.WithContext(ctx, b.logger).Info("batch submitted",
		logging.Int("requests", sub.Submitted),
		logging.Int("prep_failures", sub.PrepFailures),
		logging.Int("skipped", sub.Skipped),
	)
	return sub, nil
}

// ResolveID returns id, or the most recent batch when id is empty: first from
// the ledger, then from last_batch_id.txt.
func (b *BatchRunner) ResolveID(ctx context.Context, id string) (string, error) {
	if id = strings.TrimSpace(id); id != "" {
		return id, nil
	}
	latest, err := b.ledger.LatestBatch(ctx)
	if err == nil {
		return latest.ID, nil
	}
	if !errors.Is(err, ledger.ErrNotFound) {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(b.outputDir, LastBatchFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrValidation, "batch", "resolve id", "no batch id given and no batch has been submitted", nil)
		}
		return "", services.Wrap(services.ErrFilesystem, "batch", "resolve id", "read "+LastBatchFile, err)
	}
	if id = strings.TrimSpace(string(data)); id == "" {
		return "", services.Wrap(services.ErrValidation, "batch", "resolve id", LastBatchFile+" is empty", nil)
	}
	return id, nil
}

// Status reports the processing state of a batch and remembers it in the
// ledger.
func (b *BatchRunner) Status(ctx context.Context, id string) (vision.BatchStatus, error) {
	status, err := b.client.BatchStatus(ctx, id)
	if err != nil {
		return vision.BatchStatus{}, err
	}
	if err := b.ledger.UpdateStatus(ctx, id, string(status.ProcessingStatus)); err != nil && !errors.Is(err, ledger.ErrNotFound) {
		b.logger.Debug("ledger status update failed", logging.String(logging.FieldBatchID, id), logging.Error(err))
	}
	return status, nil
}

// Results fetches the records of an ended batch. It returns
// vision.ErrBatchNotReady while the batch is still processing.
func (b *BatchRunner) Results(ctx context.Context, id string) (Summary, error) {
	ctx = services.WithBatchID(ctx, id)
	var summary Summary

	results, err := b.client.BatchResults(ctx, id)
	if err != nil {
		return summary, err
	}
	_ = b.ledger.UpdateStatus(ctx, id, string(vision.StatusEnded))

	items, err := b.ledger.BatchItems(ctx, id)
	if err != nil {
		return summary, err
	}
	names := make(map[string]string, len(items))
	for _, item := range items {
		names[item.CustomID] = item.Filename
	}
	if len(items) == 0 {
		logging.WarnWithContext(logging.WithContext(ctx, b.logger), "batch unknown to ledger", "batch_not_in_ledger",
			logging.String(logging.FieldImpact, "records use request ids as original file names"),
			logging.String(logging.FieldErrorHint, "fetch results on the machine that submitted the batch"),
		)
	}

	for _, result := range results {
		name, ok := names[result.CustomID]
		if !ok {
			name = result.CustomID
		}
		summary.add(recordFromResult(name, result), result.Response.Usage)
	}
	for _, item := range items {
		if item.PrepError != "" {
			summary.add(review.Placeholder(item.Filename, review.SentinelError, item.PrepError), vision.Usage{})
		}
	}

	summary.Cost, summary.HasCost = vision.EstimateBatchCost(b.model, summary.Usage)
	logging.WithContext(ctx, b.logger).Info("batch results collected",
		logging.Int("records", summary.Processed),
		logging.Int("failed", summary.Failed),
	)
	return summary, nil
}

func recordFromResult(name string, result vision.BatchResult) review.Record {
	if result.Type != vision.ResultSucceeded {
		note := batchNotePrefix + string(result.Type)
		if detail := strings.TrimSpace(strings.Join(nonEmpty(result.ErrorType, result.ErrorMessage), ": ")); detail != "" {
			note += ": " + detail
		}
		return review.Placeholder(name, review.SentinelAPIError, note)
	}
	rec, _ := recordFromReply(name, result.Response.Text)
	return rec
}

func nonEmpty(values ...string) []string {
	out := values[:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func (b *BatchRunner) writeLastBatchID(id string) (string, error) {
	if err := os.MkdirAll(b.outputDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrFilesystem, "batch", "write id", "create output directory", err)
	}
	path := filepath.Join(b.outputDir, LastBatchFile)
	if err := os.WriteFile(path, []byte(id+"\n"), 0o644); err != nil {
		return "", services.Wrap(services.ErrFilesystem, "batch", "write id", path, err)
	}
	return path, nil
}
