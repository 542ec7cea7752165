package renamer

import (
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/zsafwan/ocr-rename/internal/fileutil"
	"github.com/zsafwan/ocr-rename/internal/review"
	"github.com/zsafwan/ocr-rename/internal/services"
)

// Approved returns the records whose approve column renames them.
func Approved(records []review.Record) []review.Record {
	out := make([]review.Record, 0, len(records))
	for _, rec := range records {
		if rec.Approve.Approved() {
			out = append(out, rec)
		}
	}
	return out
}

// registry tracks claimed names under Unicode case folding.
type registry struct {
	fold  cases.Caser
	names map[string]struct{}
}

func newRegistry() *registry {
	return &registry{fold: cases.Fold(), names: make(map[string]struct{})}
}

func (r *registry) key(name string) string {
	return r.fold.String(name)
}

func (r *registry) has(name string) bool {
	_, ok := r.names[r.key(name)]
	return ok
}

func (r *registry) add(name string) {
	r.names[r.key(name)] = struct{}{}
}

// Plan assigns each record a target name that collides neither with a PDF
// already in dir nor with an earlier record. Records are processed in order,
// so earlier records claim names first. A record whose target folds to its
// own original name keeps it. The input slice is not modified.
func Plan(dir string, records []review.Record) ([]review.Record, error) {
	existing, err := fileutil.ListPDFs(dir)
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "renamer", "plan", "read directory "+dir, err)
	}
	reg := newRegistry()
	for _, name := range existing {
		reg.add(name)
	}

	out := make([]review.Record, 0, len(records))
	for _, rec := range records {
		if reg.key(rec.NewFilename) == reg.key(rec.OriginalFilename) {
			reg.add(rec.NewFilename)
			out = append(out, rec)
			continue
		}
		if reg.has(rec.NewFilename) {
			rec.NewFilename = nextFree(reg, rec.NewFilename)
		}
		reg.add(rec.NewFilename)
		out = append(out, rec)
	}
	return out, nil
}

// nextFree returns "stem (N).ext" for the lowest N >= 2 not yet registered.
func nextFree(reg *registry, name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 2; ; n++ {
		candidate := stem + " (" + strconv.Itoa(n) + ")" + ext
		if !reg.has(candidate) {
			return candidate
		}
	}
}
