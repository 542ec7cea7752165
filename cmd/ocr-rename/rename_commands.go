package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zsafwan/ocr-rename/internal/config"
	"github.com/zsafwan/ocr-rename/internal/renamer"
	"github.com/zsafwan/ocr-rename/internal/review"
)

func newRenameCommand(ctx *commandContext) *cobra.Command {
	var dirFlag string
	var outputFlag string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "rename <review.csv|review.xlsx>",
		Short: "Rename the approved files from a reviewed dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			reviewPath, err := resolveFile(args[0])
			if err != nil {
				return err
			}
			dir, err := resolveDir(dirFlag)
			if err != nil {
				return err
			}
			outputDir := cfg.Paths.OutputDir
			if cmd.Flags().Changed("output") {
				if outputDir, err = config.ExpandPath(outputFlag); err != nil {
					return fmt.Errorf("resolve output directory: %w", err)
				}
			}

			records, err := review.Load(reviewPath)
			if err != nil {
				return err
			}
			approved := renamer.Approved(records)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found %d entries, %d approved for rename\n", len(records), len(approved))
			if dryRun {
				fmt.Fprintln(out, "Dry run: no files will be changed")
			}
			if len(approved) == 0 {
				return nil
			}

			planned, err := renamer.Plan(dir, approved)
			if err != nil {
				return err
			}
			result, runErr := renamer.Execute(cmd.Context(), dir, planned, renamer.Options{
				DryRun:    dryRun,
				OutputDir: outputDir,
				Logger:    logger,
			})
			printRenameResult(out, result, isTerminal(out))
			if result.LogPath != "" {
				fmt.Fprintf(out, "Rename log saved: %s\n", result.LogPath)
				printHint(out, "To reverse this run:",
					fmt.Sprintf("ocr-rename undo %q --dir %q", result.LogPath, dir))
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&dirFlag, "dir", "d", "", "Directory holding the PDF files")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Directory for the rename log")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the renames without changing anything")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func printRenameResult(out io.Writer, result renamer.Result, colorize bool) {
	rows := make([][]string, 0, len(result.Entries))
	for _, entry := range result.Entries {
		rows = append(rows, []string{entry.Original, entry.New, entryLabel(entry, colorize)})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]string{"Original", "New", "Status"}, rows, nil))
	}
	fmt.Fprintln(out, renderTally([][]string{
		{"Renamed", fmt.Sprint(result.Renamed)},
		{"Dry run", fmt.Sprint(result.DryRun)},
		{"Skipped", fmt.Sprint(result.Skipped)},
		{"Errors", fmt.Sprint(result.Errors)},
	}))
}

func entryLabel(entry renamer.Entry, colorize bool) string {
	label := entry.Status
	color := ""
	switch {
	case entry.Status == renamer.StatusRenamed:
		color = ansiGreen
	case entry.Failed():
		color = ansiRed
	case entry.Status == renamer.StatusPending:
		label = "skipped (" + entry.SkipReason + ")"
		color = ansiYellow
	}
	if colorize && color != "" {
		return color + label + ansiReset
	}
	return label
}

func newUndoCommand(ctx *commandContext) *cobra.Command {
	var dirFlag string

	cmd := &cobra.Command{
		Use:   "undo <rename_log.json>",
		Short: "Reverse the renames recorded in a rename log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			logPath, err := resolveFile(args[0])
			if err != nil {
				return err
			}
			dir, err := resolveDir(dirFlag)
			if err != nil {
				return err
			}

			result, err := renamer.Undo(cmd.Context(), logPath, dir, logger)
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)
			rows := make([][]string, 0, len(result.Outcomes))
			for _, outcome := range result.Outcomes {
				label := outcome.Result
				if colorize {
					switch outcome.Result {
					case renamer.UndoReversed:
						label = ansiGreen + label + ansiReset
					case renamer.UndoNotFound:
						label = ansiYellow + label + ansiReset
					default:
						label = ansiRed + label + ansiReset
					}
				}
				rows = append(rows, []string{outcome.Entry.New, outcome.Entry.Original, label})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]string{"Current", "Restored", "Result"}, rows, nil))
			}
			fmt.Fprintln(out, renderTally([][]string{
				{"Reversed", fmt.Sprint(result.Reversed)},
				{"Skipped", fmt.Sprint(result.Skipped)},
				{"Errors", fmt.Sprint(result.Errors)},
			}))
			return err
		},
	}

	cmd.Flags().StringVarP(&dirFlag, "dir", "d", "", "Directory holding the renamed PDF files")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}
