package analysis

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zsafwan/ocr-rename/internal/services"
	"github.com/zsafwan/ocr-rename/internal/services/vision"
)

type fakeExtractor struct {
	fail map[string]bool
}

func (f fakeExtractor) Extract(path string) ([]byte, error) {
	if f.fail[filepath.Base(path)] {
		return nil, services.Wrap(services.ErrExtraction, "pdfpages", "page count", path, errors.New("malformed xref"))
	}
	return []byte("%PDF-1.4 " + filepath.Base(path)), nil
}

// replyFor maps a document to the model reply used by the fake analyzer.
type replyFor func(doc vision.Document) (string, error)

type fakeAnalyzer struct {
	reply    replyFor
	delay    time.Duration
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, doc vision.Document) (vision.Response, error) {
	f.calls.Add(1)
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if current <= seen || f.maxSeen.CompareAndSwap(seen, current) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return vision.Response{}, ctx.Err()
		}
	}
	text, err := f.reply(doc)
	if err != nil {
		return vision.Response{}, err
	}
	return vision.Response{Text: text, Usage: vision.Usage{InputTokens: 1000, OutputTokens: 50}}, nil
}

func bookReply(doc vision.Document) (string, error) {
	switch {
	case strings.HasPrefix(doc.Name, "garbled"):
		return "not json", nil
	case strings.HasPrefix(doc.Name, "down"):
		return "", services.Wrap(services.ErrService, "anthropic", "create message", "status 400", errors.New("invalid request"))
	}
	title := strings.TrimSuffix(doc.Name, ".pdf")
	return "```json\n{\"title\": \"" + title + "\", \"author\": \"Jane Doe\", \"confidence\": 0.93, \"language\": \"en\"}\n```", nil
}

type fakeBatchClient struct {
	mu        sync.Mutex
	submitted []vision.BatchRequest
	status    vision.BatchStatus
	results   []vision.BatchResult
	notReady  bool
}

func (f *fakeBatchClient) SubmitBatch(_ context.Context, requests []vision.BatchRequest) (vision.BatchStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, requests...)
	return f.status, nil
}

func (f *fakeBatchClient) BatchStatus(_ context.Context, id string) (vision.BatchStatus, error) {
	status := f.status
	status.ID = id
	return status, nil
}

func (f *fakeBatchClient) BatchResults(_ context.Context, _ string) ([]vision.BatchResult, error) {
	if f.notReady {
		return nil, vision.ErrBatchNotReady
	}
	return f.results, nil
}
