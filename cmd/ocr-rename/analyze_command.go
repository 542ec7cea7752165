package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zsafwan/ocr-rename/internal/analysis"
	"github.com/zsafwan/ocr-rename/internal/config"
	"github.com/zsafwan/ocr-rename/internal/fileutil"
	"github.com/zsafwan/ocr-rename/internal/ledger"
	"github.com/zsafwan/ocr-rename/internal/logging"
	"github.com/zsafwan/ocr-rename/internal/pdfpages"
	"github.com/zsafwan/ocr-rename/internal/ratelimit"
	"github.com/zsafwan/ocr-rename/internal/resilience"
	"github.com/zsafwan/ocr-rename/internal/review"
)

type analyzeOptions struct {
	model       string
	provider    string
	output      string
	metricsFile string
	pages       int
	concurrency int
	rpm         int
	batch       bool
	resume      bool
	xlsx        bool
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze <dir>",
		Short: "Identify every PDF in a directory and write a review file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, cfg); err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			return runAnalyze(cmd, cfg, logger, args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.model, "model", "", "Vision model (default from config)")
	flags.StringVar(&opts.provider, "provider", "", "Vision provider: anthropic or gemini")
	flags.IntVar(&opts.pages, "pages", 0, "Maximum pages sent per PDF")
	flags.IntVar(&opts.concurrency, "concurrency", 0, "Files prepared and analyzed in parallel")
	flags.IntVar(&opts.rpm, "rpm", 0, "Maximum requests started per minute")
	flags.StringVarP(&opts.output, "output", "o", "", "Directory for review files")
	flags.BoolVar(&opts.batch, "batch", false, "Submit a message batch (half price, results later)")
	flags.BoolVar(&opts.resume, "resume", false, "Skip files already identified in earlier review files")
	flags.BoolVar(&opts.xlsx, "xlsx", false, "Also write the review as an Excel workbook")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile when done")
	return cmd
}

// apply copies explicitly set flags over the loaded configuration.
func (o analyzeOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Analysis.Provider = strings.ToLower(strings.TrimSpace(o.provider))
	}
	if flags.Changed("model") {
		if cfg.Analysis.Provider == config.ProviderGemini {
			cfg.Gemini.Model = strings.TrimSpace(o.model)
		} else {
			cfg.Analysis.Model = strings.TrimSpace(o.model)
		}
	}
	if flags.Changed("pages") {
		cfg.Analysis.MaxPages = o.pages
	}
	if flags.Changed("concurrency") {
		cfg.Analysis.Concurrency = o.concurrency
	}
	if flags.Changed("rpm") {
		cfg.Analysis.RequestsPerMinute = o.rpm
	}
	if flags.Changed("output") {
		dir, err := config.ExpandPath(o.output)
		if err != nil {
			return fmt.Errorf("resolve output directory: %w", err)
		}
		cfg.Paths.OutputDir = dir
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}
	}
	if o.batch && cfg.Analysis.Provider != config.ProviderAnthropic {
		return errors.New("--batch requires provider anthropic")
	}
	return cfg.Validate()
}

func runAnalyze(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, dirArg string, opts analyzeOptions) error {
	dir, err := resolveDir(dirArg)
	if err != nil {
		return err
	}
	if opts.batch {
		err = cfg.RequireAnthropic()
	} else {
		err = cfg.RequireCredentials()
	}
	if err != nil {
		return err
	}

	names, err := fileutil.ListPDFs(dir)
	if err != nil {
		return fmt.Errorf("list PDFs in %s: %w", dir, err)
	}
	if len(names) == 0 {
		return fmt.Errorf("no PDF files found in %s", dir)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Found %d PDF files in %s\n", len(names), dir)
	fmt.Fprintf(out, "Provider: %s  Model: %s\n", cfg.Analysis.Provider, cfg.ActiveModel())

	var done map[string]struct{}
	if opts.resume {
		if done, err = review.AlreadyDone(cfg.Paths.OutputDir, logger); err != nil {
			return fmt.Errorf("scan earlier review files: %w", err)
		}
	}

	paths := joinPaths(dir, names)
	extractor := pdfpages.New(pageBudget(cfg), logger)
	if opts.batch {
		return submitBatch(cmd, cfg, logger, extractor, dir, paths, done)
	}
	return analyzeNow(cmd, cfg, logger, extractor, dir, paths, done, opts)
}

func analyzeNow(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, extractor analysis.Extractor, dir string, paths []string, done map[string]struct{}, opts analyzeOptions) error {
	out := cmd.OutOrStdout()
	pending := 0
	for _, path := range paths {
		if _, ok := done[filepath.Base(path)]; !ok {
			pending++
		}
	}
	if pending == 0 {
		fmt.Fprintln(out, "Every file already has a review record; nothing to analyze.")
		return nil
	}

	analyzer, closeAnalyzer, err := newAnalyzer(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeAnalyzer()

	metrics := analysis.NewMetrics(cfg.Analysis.Provider, cfg.ActiveModel())
	options := []analysis.Option{
		analysis.WithLimiter(ratelimit.New(cfg.Analysis.RequestsPerMinute)),
		analysis.WithExecutor(resilience.NewExecutor(retryConfig(cfg), logger)),
		analysis.WithMetrics(metrics),
		analysis.WithLogger(logger),
		analysis.WithConcurrency(cfg.Analysis.Concurrency),
	}
	if bar := newProgressBar(cmd.ErrOrStderr(), pending); bar != nil {
		options = append(options, analysis.WithProgress(bar))
	}
	orchestrator := analysis.NewOrchestrator(extractor, analyzer, cfg.ActiveModel(), options...)

	summary, runErr := orchestrator.Run(cmd.Context(), paths, done)

	if opts.metricsFile != "" {
		if err := metrics.WriteTextfile(opts.metricsFile); err != nil {
			logging.WarnWithContext(logger, "metrics textfile not written", "metrics_write_failed",
				logging.String("metrics_path", opts.metricsFile),
				logging.Error(err),
			)
		}
	}
	if len(summary.Records) == 0 {
		return runErr
	}

	fmt.Fprintln(out)
	reviewPath, err := writeReview(out, summary.Records, cfg.Paths.OutputDir, opts.xlsx)
	if err != nil {
		return errors.Join(runErr, err)
	}
	fmt.Fprintln(out, renderSummary(summary))
	if runErr != nil {
		fmt.Fprintln(out, "Run interrupted; the review file holds the files finished so far. Re-run with --resume to continue.")
		return runErr
	}
	printHint(out, "Review the approve column, then run:",
		fmt.Sprintf("ocr-rename rename %q --dir %q", reviewPath, dir))
	return nil
}

func submitBatch(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, extractor analysis.Extractor, dir string, paths []string, done map[string]struct{}) error {
	out := cmd.OutOrStdout()
	return withBatchRunner(cfg, extractor, logger, func(runner *analysis.BatchRunner, _ *ledger.Store) error {
		sub, err := runner.Submit(cmd.Context(), dir, paths, done)
		if errors.Is(err, analysis.ErrNothingToSubmit) && sub.PrepFailures == 0 {
			fmt.Fprintln(out, "Every file already has a review record; nothing to submit.")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Fprintln(out, renderTable(
			[]string{"Batch", "Status", "Requests", "Prep failures", "Skipped"},
			[][]string{{
				sub.Status.ID,
				string(sub.Status.ProcessingStatus),
				fmt.Sprint(sub.Submitted),
				fmt.Sprint(sub.PrepFailures),
				fmt.Sprint(sub.Skipped),
			}},
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
		))
		fmt.Fprintf(out, "Batch id saved: %s\n", sub.IDFile)
		printHint(out, "Batches usually finish within an hour. Check and collect with:",
			"ocr-rename batch status "+sub.Status.ID,
			"ocr-rename batch results "+sub.Status.ID)
		return nil
	})
}
