package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"github.com/zsafwan/ocr-rename/internal/analysis"
	"github.com/zsafwan/ocr-rename/internal/language"
	"github.com/zsafwan/ocr-rename/internal/review"
)

func formatTokens(n int64) string {
	return humanize.Comma(n)
}

func formatCost(cost float64, known bool) string {
	if !known {
		return "unknown (model not in price table)"
	}
	return fmt.Sprintf("$%.4f", cost)
}

func formatWhen(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return fmt.Sprintf("%s (%s)", ts.Local().Format("2006-01-02 15:04"), humanize.Time(ts))
}

// newProgressBar returns a bar on interactive terminals only; callers fall
// back to sampled log lines otherwise.
func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	if total <= 0 || !isTerminal(w) {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("analyzing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
	)
}

// writeReview saves records as a review CSV and, when asked, an XLSX
// workbook. It returns the path the user should edit.
func writeReview(out io.Writer, records []review.Record, dir string, xlsx bool) (string, error) {
	csvPath, err := review.Write(records, dir)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(out, "Review file saved: %s\n", csvPath)
	if !xlsx {
		return csvPath, nil
	}
	xlsxPath, err := review.WriteXLSX(records, dir)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(out, "Review workbook saved: %s\n", xlsxPath)
	return xlsxPath, nil
}

func renderSummary(summary analysis.Summary) string {
	return renderTable(
		[]string{"Metric", "Value"},
		[][]string{
			{"Analyzed", humanize.Comma(int64(summary.Processed))},
			{"Identified", humanize.Comma(int64(summary.Processed - summary.Failed))},
			{"Failed", humanize.Comma(int64(summary.Failed))},
			{"Skipped (resume)", humanize.Comma(int64(summary.Skipped))},
			{"Languages", languageBreakdown(summary.Records)},
			{"Input tokens", formatTokens(summary.Usage.InputTokens)},
			{"Output tokens", formatTokens(summary.Usage.OutputTokens)},
			{"Estimated cost", formatCost(summary.Cost, summary.HasCost)},
		},
		[]columnAlignment{alignLeft, alignRight},
	)
}

// languageBreakdown lists identified languages by frequency, e.g.
// "Arabic 12, English 3".
func languageBreakdown(records []review.Record) string {
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.Failed() || rec.Language == "" {
			continue
		}
		counts[language.DisplayName(rec.Language)]++
	}
	if len(counts) == 0 {
		return "-"
	}
	names := slices.Collect(maps.Keys(counts))
	slices.SortFunc(names, func(a, b string) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		return strings.Compare(a, b)
	})
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s %d", name, counts[name])
	}
	return strings.Join(parts, ", ")
}
