package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

const maxErrorRunes = 200

// consoleHandler writes one line per record:
//
//	2026-02-14T10:30:00+01:00 INFO  analysis: identified file=scan.pdf confidence=0.93
//
// Run and batch ids and paths are only shown at debug level.
type consoleHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     slog.Leveler
	addSource bool
	fields    []field
	prefix    string
}

type field struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, level slog.Leveler, addSource bool) *consoleHandler {
	return &consoleHandler{mu: &sync.Mutex{}, w: w, level: level, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(ctx context.Context, record slog.Record) error {
	fields := make([]field, 0, len(h.fields)+record.NumAttrs()+2)
	fields = append(fields, h.fields...)
	for _, attr := range ContextFields(ctx) {
		fields = appendField(fields, "", attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendField(fields, h.prefix, attr)
		return true
	})
	fields = lastWins(fields)

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	debug := record.Level < slog.LevelInfo

	var b strings.Builder
	b.WriteString(ts.Format(time.RFC3339))
	fmt.Fprintf(&b, " %-5s ", levelLabel(record.Level))
	for _, f := range fields {
		if f.key == FieldComponent {
			b.WriteString(f.value.String())
			b.WriteString(": ")
			break
		}
	}
	b.WriteString(strings.TrimSpace(record.Message))
	for _, f := range fields {
		if f.key == FieldComponent || (!debug && debugOnly(f.key)) {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(f.key)
		b.WriteByte('=')
		b.WriteString(formatField(f))
	}
	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			fmt.Fprintf(&b, " source=%s:%d", filepath.Base(src.File), src.Line)
		}
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = append([]field(nil), h.fields...)
	for _, attr := range attrs {
		next.fields = appendField(next.fields, h.prefix, attr)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

// appendField flattens groups into dotted keys.
func appendField(dst []field, prefix string, attr slog.Attr) []field {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	if attr.Value.Kind() == slog.KindGroup {
		next := prefix
		if attr.Key != "" {
			next = prefix + attr.Key + "."
		}
		for _, member := range attr.Value.Group() {
			dst = appendField(dst, next, member)
		}
		return dst
	}
	return append(dst, field{key: prefix + attr.Key, value: attr.Value})
}

func lastWins(fields []field) []field {
	if len(fields) < 2 {
		return fields
	}
	index := make(map[string]int, len(fields))
	out := make([]field, 0, len(fields))
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if i, ok := index[f.key]; ok {
			out[i].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func debugOnly(key string) bool {
	switch key {
	case FieldRunID, FieldBatchID, "custom_id", "base_url":
		return true
	}
	return strings.HasSuffix(key, "_path") && key != "log_path"
}

func formatField(f field) string {
	v := f.value
	switch v.Kind() {
	case slog.KindInt64:
		if strings.HasSuffix(f.key, "_bytes") && v.Int64() >= 0 {
			return strconv.Quote(humanize.Bytes(uint64(v.Int64())))
		}
	case slog.KindUint64:
		if strings.HasSuffix(f.key, "_bytes") {
			return strconv.Quote(humanize.Bytes(v.Uint64()))
		}
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', -1, 64)
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	}

	s := v.String()
	if f.key == "error" {
		s = truncate(strings.TrimSpace(s), maxErrorRunes)
	}
	return quoteIfNeeded(s)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}

func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return strconv.Quote(s)
		}
	}
	return s
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
