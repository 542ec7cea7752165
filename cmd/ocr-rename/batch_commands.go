package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zsafwan/ocr-rename/internal/analysis"
	"github.com/zsafwan/ocr-rename/internal/config"
	"github.com/zsafwan/ocr-rename/internal/ledger"
	"github.com/zsafwan/ocr-rename/internal/services/vision"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Follow message batches submitted with analyze --batch",
	}
	batchCmd.AddCommand(newBatchStatusCommand(ctx))
	batchCmd.AddCommand(newBatchResultsCommand(ctx))
	batchCmd.AddCommand(newBatchListCommand(ctx))
	return batchCmd
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func newBatchStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [batch-id]",
		Short: "Show the processing state of a batch (default: most recent)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			return withBatchRunner(cfg, nil, logger, func(runner *analysis.BatchRunner, _ *ledger.Store) error {
				id, err := runner.ResolveID(cmd.Context(), optionalArg(args))
				if err != nil {
					return err
				}
				status, err := runner.Status(cmd.Context(), id)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				colorize := isTerminal(out)
				kind := statusInfo
				if status.Ended() {
					kind = statusOK
				}
				fmt.Fprintln(out, renderStatusLine("Batch", statusInfo, status.ID, colorize))
				fmt.Fprintln(out, renderStatusLine("Status", kind, string(status.ProcessingStatus), colorize))
				fmt.Fprintln(out, renderStatusLine("Created", statusInfo, formatWhen(status.CreatedAt), colorize))
				fmt.Fprintln(out, renderStatusLine("Ended", statusInfo, yesNo(status.Ended())+" "+formatWhen(status.EndedAt), colorize))
				counts := status.Counts
				fmt.Fprintln(out, renderTable(
					[]string{"Processing", "Succeeded", "Errored", "Canceled", "Expired", "Total"},
					[][]string{{
						fmt.Sprint(counts.Processing),
						fmt.Sprint(counts.Succeeded),
						fmt.Sprint(counts.Errored),
						fmt.Sprint(counts.Canceled),
						fmt.Sprint(counts.Expired),
						fmt.Sprint(counts.Total()),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight},
				))
				if status.Ended() {
					printHint(out, "Results are ready:", "ocr-rename batch results "+status.ID)
				}
				return nil
			})
		},
	}
}

func newBatchResultsCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string
	var xlsx bool

	cmd := &cobra.Command{
		Use:   "results [batch-id]",
		Short: "Collect the results of an ended batch into a review file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output") {
				if cfg.Paths.OutputDir, err = config.ExpandPath(outputFlag); err != nil {
					return fmt.Errorf("resolve output directory: %w", err)
				}
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			return withBatchRunner(cfg, nil, logger, func(runner *analysis.BatchRunner, store *ledger.Store) error {
				id, err := runner.ResolveID(cmd.Context(), optionalArg(args))
				if err != nil {
					return err
				}
				summary, err := runner.Results(cmd.Context(), id)
				if errors.Is(err, vision.ErrBatchNotReady) {
					return fmt.Errorf("batch %s is still processing; check progress with 'ocr-rename batch status %s'", id, id)
				}
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(summary.Records) == 0 {
					fmt.Fprintf(out, "Batch %s returned no results\n", id)
					return nil
				}
				reviewPath, err := writeReview(out, summary.Records, cfg.Paths.OutputDir, xlsx)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderSummary(summary))

				sourceDir := "<pdf_directory>"
				if batch, err := store.GetBatch(cmd.Context(), id); err == nil && batch.SourceDir != "" {
					sourceDir = batch.SourceDir
				}
				printHint(out, "Review the approve column, then run:",
					fmt.Sprintf("ocr-rename rename %q --dir %q", reviewPath, sourceDir))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Directory for review files")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "Also write the review as an Excel workbook")
	return cmd
}

func newBatchListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List batches recorded in the local ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := openLedger(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			batches, err := store.ListBatches(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(batches) == 0 {
				fmt.Fprintln(out, "No batches recorded")
				return nil
			}
			rows := make([][]string, 0, len(batches))
			for _, batch := range batches {
				rows = append(rows, []string{
					batch.ID,
					formatWhen(batch.CreatedAt),
					fmt.Sprint(batch.RequestCount),
					batch.LastStatus,
					batch.Model,
					batch.SourceDir,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Batch", "Submitted", "Requests", "Last status", "Model", "Source"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum batches to list (0 for all)")
	return cmd
}
