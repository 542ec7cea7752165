package pdfpages

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/zsafwan/ocr-rename/internal/logging"
	"github.com/zsafwan/ocr-rename/internal/services"
)

// Budget bounds what is sent for one document.
type Budget struct {
	MaxPages      int
	MaxBytes      int64
	FallbackPages []int
}

// Extractor produces the leading pages of a PDF as a standalone PDF.
type Extractor struct {
	budget Budget
	conf   *model.Configuration
	logger *slog.Logger
}

var disableConfigDir sync.Once

// New builds an extractor for the given budget.
func New(budget Budget, logger *slog.Logger) *Extractor {
	// pdfcpu otherwise creates a config directory under the user's home.
	disableConfigDir.Do(func() { model.ConfigPath = "disable" })

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if budget.MaxPages < 1 {
		budget.MaxPages = 1
	}
	return &Extractor{
		budget: budget,
		conf:   conf,
		logger: logging.NewComponentLogger(logger, "pdfpages"),
	}
}

// Extract returns the first pages of the PDF at path within the budget. A
// file already within both the page and byte budgets is returned untouched.
// When no attempt fits the byte budget the smallest attempt is returned.
func (e *Extractor) Extract(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrExtraction, "pdfpages", "read", path, err)
	}

	total, err := api.PageCount(bytes.NewReader(raw), e.conf)
	if err != nil {
		return nil, services.Wrap(services.ErrExtraction, "pdfpages", "page count", path, err)
	}
	if total < 1 {
		return nil, services.Wrap(services.ErrExtraction, "pdfpages", "page count", path, fmt.Errorf("document has no pages"))
	}
	if total <= e.budget.MaxPages && e.withinSize(len(raw)) {
		return raw, nil
	}

	var payload []byte
	for _, pages := range pagePlan(total, e.budget.MaxPages, e.budget.FallbackPages) {
		payload, err = e.firstPages(raw, pages)
		if err != nil {
			return nil, services.Wrap(services.ErrExtraction, "pdfpages", "trim", path, err)
		}
		if e.withinSize(len(payload)) {
			return payload, nil
		}
		e.logger.Debug("payload over size budget",
			logging.String(logging.FieldFile, path),
			logging.Int("pages", pages),
			logging.Int64("payload_bytes", int64(len(payload))),
			logging.Int64("budget_bytes", e.budget.MaxBytes),
		)
	}
	logging.WarnWithContext(e.logger, "sending single page over size budget", "extraction_over_budget",
		logging.String(logging.FieldFile, path),
		logging.Int64("payload_bytes", int64(len(payload))),
		logging.String(logging.FieldImpact, "the service may reject this document"),
		logging.String(logging.FieldErrorHint, "raise analysis.max_pdf_size_mb or rescan at lower resolution"),
	)
	return payload, nil
}

func (e *Extractor) firstPages(raw []byte, pages int) ([]byte, error) {
	var out bytes.Buffer
	selection := []string{fmt.Sprintf("1-%d", pages)}
	if err := api.Trim(bytes.NewReader(raw), &out, selection, e.conf); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (e *Extractor) withinSize(n int) bool {
	return e.budget.MaxBytes <= 0 || int64(n) <= e.budget.MaxBytes
}

// pagePlan lists the page counts to try, largest first: the capped maximum,
// then each fallback smaller than it.
func pagePlan(total, maxPages int, fallback []int) []int {
	first := min(maxPages, total)
	plan := []int{first}
	for _, n := range fallback {
		n = min(n, total)
		if n < 1 || n >= plan[len(plan)-1] {
			continue
		}
		plan = append(plan, n)
	}
	return plan
}
