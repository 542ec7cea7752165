package analysis

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zsafwan/ocr-rename/internal/logging"
	"github.com/zsafwan/ocr-rename/internal/ratelimit"
	"github.com/zsafwan/ocr-rename/internal/resilience"
	"github.com/zsafwan/ocr-rename/internal/review"
	"github.com/zsafwan/ocr-rename/internal/services"
	"github.com/zsafwan/ocr-rename/internal/services/vision"
)

// DefaultConcurrency is the number of files analyzed at once.
const DefaultConcurrency = 5

const analyzeOperation = "vision.analyze"

// Extractor produces the page payload for one PDF.
type Extractor interface {
	Extract(path string) ([]byte, error)
}

// Progress is advanced once per finished file. *progressbar.ProgressBar
// satisfies it.
type Progress interface {
	Add(n int) error
}

// Orchestrator analyzes files concurrently under a shared rate limit.
type Orchestrator struct {
	extractor   Extractor
	analyzer    vision.Analyzer
	limiter     *ratelimit.Limiter
	executor    *resilience.Executor
	metrics     *Metrics
	progress    Progress
	logger      *slog.Logger
	concurrency int
	model       string
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLimiter sets the request-start gate shared by all workers.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(o *Orchestrator) { o.limiter = l }
}

// WithExecutor sets the retry and circuit breaker policy.
func WithExecutor(e *resilience.Executor) Option {
	return func(o *Orchestrator) { o.executor = e }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithProgress sets the progress display. Without one, progress is logged.
func WithProgress(p Progress) Option {
	return func(o *Orchestrator) { o.progress = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithConcurrency bounds the number of files in flight.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) { o.concurrency = n }
}

// NewOrchestrator builds an orchestrator that sends extracted pages to
// analyzer. model is used for cost estimation.
func NewOrchestrator(extractor Extractor, analyzer vision.Analyzer, model string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		extractor:   extractor,
		analyzer:    analyzer,
		model:       model,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.NewComponentLogger(o.logger, "analysis")
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	if o.limiter == nil {
		o.limiter = ratelimit.New(ratelimit.DefaultPerMinute)
	}
	if o.executor == nil {
		o.executor = resilience.NewExecutor(resilience.DefaultConfig(), o.logger)
	}
	if o.metrics == nil {
		o.metrics = NewMetrics("", model)
	}
	return o
}

// Run analyzes every file not named in done and returns one record per
// analyzed file in completion order. Per-file failures become placeholder
// records. When ctx is cancelled, files already started record ERROR
// placeholders, no new files start, and the context error is returned with
// the partial summary.
func (o *Orchestrator) Run(ctx context.Context, files []string, done map[string]struct{}) (Summary, error) {
	var summary Summary
	pending := make([]string, 0, len(files))
	for _, path := range files {
		name := filepath.Base(path)
		if _, ok := done[name]; ok {
			summary.Skipped++
			o.logger.Debug("already reviewed, skipping", logging.String(logging.FieldFile, name))
			continue
		}
		pending = append(pending, path)
	}
	if summary.Skipped > 0 {
		o.logger.Info("resuming",
			logging.Int("skipped", summary.Skipped),
			logging.Int("remaining", len(pending)),
		)
	}

	var (
		mu       sync.Mutex
		finished int
		sampler  = logging.NewProgressSampler(10)
		group    errgroup.Group
	)
	group.SetLimit(o.concurrency)

	for _, path := range pending {
		if ctx.Err() != nil {
			break
		}
		group.Go(func() error {
			rec, usage := o.analyzeFile(ctx, path)

			mu.Lock()
			defer mu.Unlock()
			summary.add(rec, usage)
			finished++
			o.reportProgress(sampler, finished, len(pending))
			return nil
		})
	}
	_ = group.Wait()

	summary.Cost, summary.HasCost = vision.EstimateCost(o.model, summary.Usage)
	o.logger.Info("analysis finished",
		logging.Int("processed", summary.Processed),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
		logging.Int64("input_tokens", summary.Usage.InputTokens),
		logging.Int64("output_tokens", summary.Usage.OutputTokens),
	)
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (o *Orchestrator) analyzeFile(ctx context.Context, path string) (review.Record, vision.Usage) {
	name := filepath.Base(path)
	ctx = services.WithFile(ctx, name)
	logger := logging.WithContext(ctx, o.logger)
	start := time.Now()
	o.metrics.StartFile()

	finish := func(rec review.Record, usage vision.Usage, outcome string) (review.Record, vision.Usage) {
		o.metrics.FinishFile(outcome, time.Since(start))
		o.metrics.AddUsage(usage)
		return rec, usage
	}

	data, err := o.extractor.Extract(path)
	if err != nil {
		logging.WarnWithContext(logger, "page extraction failed", "extraction_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "file recorded as ERROR in the review dataset"),
			logging.String(logging.FieldErrorHint, "check that the file is a readable PDF"),
		)
		return finish(review.Placeholder(name, review.SentinelError, err.Error()), vision.Usage{}, OutcomeError)
	}

	doc := vision.Document{Name: name, MediaType: vision.MediaTypePDF, Data: data}
	var resp vision.Response
	err = o.executor.Execute(ctx, analyzeOperation, func(ctx context.Context) error {
		if err := o.limiter.Wait(ctx); err != nil {
			return err
		}
		reply, err := o.analyzer.Analyze(ctx, doc)
		if err != nil {
			return err
		}
		resp = reply
		return nil
	}, resilience.ServiceClassifier)
	if err != nil {
		attrs := []logging.Attr{
			logging.Error(err),
			logging.String(logging.FieldImpact, "file recorded as ERROR; a resumed run retries it"),
		}
		if resilience.IsCircuitOpen(err) || errors.Is(err, services.ErrTransient) {
			attrs = append(attrs, logging.String(logging.FieldErrorHint, "the service is failing; lower analysis.requests_per_minute or retry later"))
		}
		logging.WarnWithContext(logger, "vision request failed", "analysis_failed", attrs...)
		return finish(review.Placeholder(name, review.SentinelError, err.Error()), vision.Usage{}, OutcomeError)
	}

	rec, ok := recordFromReply(name, resp.Text)
	if !ok {
		logging.WarnWithContext(logger, "vision reply not understood", "response_parse_failed",
			logging.String("notes", rec.Notes),
			logging.String(logging.FieldImpact, "file recorded as PARSE_ERROR; a resumed run retries it"),
		)
		return finish(rec, resp.Usage, OutcomeParseError)
	}
	logger.Debug("identified",
		logging.String("title", rec.SuggestedTitle),
		logging.String("author", rec.SuggestedAuthor),
		logging.Float64("confidence", rec.Confidence),
	)
	return finish(rec, resp.Usage, OutcomeSuccess)
}

func (o *Orchestrator) reportProgress(sampler *logging.ProgressSampler, done, total int) {
	if o.progress != nil {
		_ = o.progress.Add(1)
		return
	}
	if sampler.ShouldLog(done, total) {
		o.logger.Info("analysis progress", logging.Int("done", done), logging.Int("total", total))
	}
}
