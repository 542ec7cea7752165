package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zsafwan/ocr-rename/internal/config"
	"github.com/zsafwan/ocr-rename/internal/logging"
	"github.com/zsafwan/ocr-rename/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "ocr-rename.log")

	logger, err := logging.NewFromConfig(&cfg, "run-1", io.Discard)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Warn("circuit open", logging.String("operation", "vision.analyze"))

	content, err := os.ReadFile(cfg.Logging.File)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &line); err != nil {
		t.Fatalf("log file line is not JSON: %v (%q)", err, content)
	}
	if line["msg"] != "circuit open" || line["run_id"] != "run-1" || line["level"] != "warn" {
		t.Fatalf("unexpected log line: %v", line)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.NewComponentLogger(logger, "renamer").Info("renamed", logging.String(logging.FieldFile, "scan.pdf"), logging.Int("renamed", 3))

	out := buf.String()
	if strings.Contains(out, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", out)
	}
	if !strings.Contains(out, " INFO  renamer: renamed file=scan.pdf renamed=3\n") {
		t.Fatalf("unexpected line: %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected a single line, got %q", out)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("request sent", logging.String(logging.FieldBatchID, "msgbatch_1"))

	out := buf.String()
	if !strings.Contains(out, "source=logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", out)
	}
	if !strings.Contains(out, "batch_id=msgbatch_1") {
		t.Fatalf("expected debug-only field in debug output, got %q", out)
	}
}

func TestConsoleLoggerHidesDebugFieldsAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Output: &buf, RunID: "run-9"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("submitted", logging.Int64("payload_bytes", 2048))

	out := buf.String()
	if strings.Contains(out, "run-9") {
		t.Fatalf("expected run id hidden at info, got %q", out)
	}
	if !strings.Contains(out, `payload_bytes="2.0 kB"`) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestConsoleLoggerQuotesAndFlattens(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.WithGroup("usage").Info("tokens", logging.Int64("input", 1500), logging.String("model", "claude haiku"))
	logger.Warn("failed", logging.Error(errors.New(strings.Repeat("x", 300))))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %q", buf.String())
	}
	if !strings.HasSuffix(lines[0], `tokens usage.input=1500 usage.model="claude haiku"`) {
		t.Fatalf("unexpected grouped line: %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "error="+strings.Repeat("x", 200)+"…") {
		t.Fatalf("expected truncated error, got %q", lines[1])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "loud", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithBatchID(services.WithFile(context.Background(), "b.pdf"), "msgbatch_2")
	logging.WithContext(ctx, logger).Info("contextual log")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if line[logging.FieldFile] != "b.pdf" || line[logging.FieldBatchID] != "msgbatch_2" {
		t.Fatalf("missing context fields: %v", line)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "skipped", "rename_skipped", logging.Error(errors.New("boom")))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{logging.FieldEventType, logging.FieldErrorHint, logging.FieldImpact} {
		if _, ok := line[key]; !ok {
			t.Fatalf("expected %s in %v", key, line)
		}
	}
	if line[logging.FieldEventType] != "rename_skipped" {
		t.Fatalf("event_type = %v", line[logging.FieldEventType])
	}
}
