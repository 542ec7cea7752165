package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zsafwan/ocr-rename/internal/config"
	"github.com/zsafwan/ocr-rename/internal/ledger"
	"github.com/zsafwan/ocr-rename/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check directories, credentials and provider reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := isTerminal(out)

			configDetail := ctx.configPath
			if !ctx.configSeen {
				configDetail += " (not found, using defaults)"
			}
			fmt.Fprintln(out, renderStatusLine("Config", statusInfo, configDetail, colorize))
			fmt.Fprintln(out, renderStatusLine("Provider", statusInfo, cfg.Analysis.Provider+" / "+cfg.ActiveModel(), colorize))

			var checker preflight.HealthChecker
			if cfg.RequireCredentials() == nil {
				analyzer, release, err := newAnalyzer(cmd.Context(), cfg)
				if err == nil {
					defer release()
					checker, _ = analyzer.(preflight.HealthChecker)
				}
			}

			failed := 0
			for _, result := range preflight.RunAll(cmd.Context(), cfg, checker) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failed++
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			fmt.Fprintln(out, lastBatchLine(cmd, cfg, colorize))

			if failed > 0 {
				return fmt.Errorf("%d status check(s) failed", failed)
			}
			return nil
		},
	}
}

func lastBatchLine(cmd *cobra.Command, cfg *config.Config, colorize bool) string {
	store, err := openLedger(cfg)
	if err != nil {
		return renderStatusLine("Last batch", statusWarn, err.Error(), colorize)
	}
	defer store.Close()

	batch, err := store.LatestBatch(cmd.Context())
	if errors.Is(err, ledger.ErrNotFound) {
		return renderStatusLine("Last batch", statusInfo, "None", colorize)
	}
	if err != nil {
		return renderStatusLine("Last batch", statusWarn, err.Error(), colorize)
	}
	return renderStatusLine("Last batch", statusInfo,
		fmt.Sprintf("%s (%s, %s)", batch.ID, batch.LastStatus, formatWhen(batch.CreatedAt)), colorize)
}
