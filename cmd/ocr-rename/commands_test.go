package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/zsafwan/ocr-rename/internal/review"
	"github.com/zsafwan/ocr-rename/internal/testsupport"
)

const duneReply = `{"title": "Dune", "author": "Frank Herbert", "confidence": 0.95, "language": "en"}`

func messageJSON(text string) string {
	encoded, _ := json.Marshal(text)
	return fmt.Sprintf(`{"id":"msg_1","type":"message","stop_reason":"end_turn","content":[{"type":"text","text":%s}],"usage":{"input_tokens":1200,"output_tokens":40}}`, encoded)
}

func TestConfigInitAndValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")

	stdout, _, err := runCLI(t, []string{"config", "init", "--path", path}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(stdout, "Wrote sample configuration") {
		t.Fatalf("unexpected init output: %q", stdout)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", path}, ""); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}

	stdout, _, err = runCLI(t, []string{"config", "validate"}, path)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(stdout, "Configuration valid") || !strings.Contains(stdout, "claude-haiku-4-5-20251001") {
		t.Fatalf("unexpected validate output: %q", stdout)
	}
}

func TestConfigValidateRejectsBadProvider(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Analysis.Provider = "openai"
	path := writeTestConfig(t, cfg)

	if _, _, err := runCLI(t, []string{"config", "validate"}, path); err == nil || !strings.Contains(err.Error(), "analysis.provider") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestAnalyzeWritesReviewFile(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" || r.Header.Get("x-api-key") != "test" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, messageJSON("```json\n"+duneReply+"\n```"))
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(server.URL), testsupport.WithRate(6000, 2))
	configPath := writeTestConfig(t, cfg)
	dir := t.TempDir()
	testsupport.WritePDF(t, filepath.Join(dir, "scan1.pdf"), 1)
	testsupport.WritePDF(t, filepath.Join(dir, "scan2.pdf"), 6)
	testsupport.WriteFile(t, filepath.Join(dir, "notes.txt"), []byte("not a pdf"))

	stdout, _, err := runCLI(t, []string{"analyze", dir, "--xlsx", "--metrics-file", filepath.Join(cfg.Paths.OutputDir, "run.prom")}, configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 API calls, got %d", calls.Load())
	}
	if !strings.Contains(stdout, "Found 2 PDF files") || !strings.Contains(stdout, "ocr-rename rename") {
		t.Fatalf("unexpected analyze output: %q", stdout)
	}

	records, err := review.Read(globOne(t, filepath.Join(cfg.Paths.OutputDir, "review_*.csv")))
	if err != nil {
		t.Fatalf("read review: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.NewFilename != "Dune - Frank Herbert.pdf" || !rec.Approve.Approved() {
			t.Fatalf("unexpected record: %+v", rec)
		}
	}
	globOne(t, filepath.Join(cfg.Paths.OutputDir, "review_*.xlsx"))
	if _, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, "run.prom")); err != nil {
		t.Fatalf("metrics file missing: %v", err)
	}

	// A resumed run finds nothing left to do.
	stdout, _, err = runCLI(t, []string{"analyze", dir, "--resume"}, configPath)
	if err != nil {
		t.Fatalf("resumed analyze: %v", err)
	}
	if calls.Load() != 2 || !strings.Contains(stdout, "nothing to analyze") {
		t.Fatalf("resume should skip all files: calls=%d output=%q", calls.Load(), stdout)
	}
}

func TestAnalyzeRejectsMissingDirectory(t *testing.T) {
	configPath := writeTestConfig(t, testsupport.NewConfig(t))
	_, _, err := runCLI(t, []string{"analyze", filepath.Join(t.TempDir(), "missing")}, configPath)
	if err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Fatalf("expected directory error, got %v", err)
	}
}

func TestAnalyzeRequiresAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg := testsupport.NewConfig(t)
	cfg.Anthropic.APIKey = ""
	configPath := writeTestConfig(t, cfg)
	dir := t.TempDir()
	testsupport.WritePDF(t, filepath.Join(dir, "scan.pdf"), 1)

	_, _, err := runCLI(t, []string{"analyze", dir}, configPath)
	if err == nil || !strings.Contains(err.Error(), "ANTHROPIC_API_KEY") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestRenameThenUndo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "scan1.pdf"), []byte("one"))
	testsupport.WriteFile(t, filepath.Join(dir, "scan2.pdf"), []byte("two"))
	testsupport.WriteFile(t, filepath.Join(dir, "scan3.pdf"), []byte("three"))

	records := []review.Record{
		review.MakeRecord("scan1.pdf", review.Fields{Title: "Emma", Author: "Jane Austen", Confidence: 0.9}),
		review.MakeRecord("scan2.pdf", review.Fields{Title: "Emma", Author: "Jane Austen", Confidence: 0.85}),
		review.MakeRecord("scan3.pdf", review.Fields{Title: "Maybe", Confidence: 0.3}),
	}
	reviewPath, err := review.Write(records, t.TempDir())
	if err != nil {
		t.Fatalf("write review: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"rename", reviewPath, "--dir", dir, "--dry-run"}, configPath)
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !strings.Contains(stdout, "3 entries, 2 approved") || strings.Contains(stdout, "Rename log saved") {
		t.Fatalf("unexpected dry-run output: %q", stdout)
	}
	if got := dirNames(t, dir); !slices.Equal(got, []string{"scan1.pdf", "scan2.pdf", "scan3.pdf"}) {
		t.Fatalf("dry run changed files: %v", got)
	}

	stdout, _, err = runCLI(t, []string{"rename", reviewPath, "--dir", dir}, configPath)
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	want := []string{"Emma - Jane Austen (2).pdf", "Emma - Jane Austen.pdf", "scan3.pdf"}
	if got := dirNames(t, dir); !slices.Equal(got, want) {
		t.Fatalf("unexpected files after rename: got %v want %v", got, want)
	}
	logPath := globOne(t, filepath.Join(cfg.Paths.OutputDir, "rename_log_*.json"))
	if !strings.Contains(stdout, logPath) {
		t.Fatalf("rename output should name the log: %q", stdout)
	}

	stdout, _, err = runCLI(t, []string{"undo", logPath, "--dir", dir}, configPath)
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if got := dirNames(t, dir); !slices.Equal(got, []string{"scan1.pdf", "scan2.pdf", "scan3.pdf"}) {
		t.Fatalf("undo did not restore files: %v", got)
	}
	if !strings.Contains(stdout, "Reversed") {
		t.Fatalf("unexpected undo output: %q", stdout)
	}
}

func TestRenameRequiresDir(t *testing.T) {
	configPath := writeTestConfig(t, testsupport.NewConfig(t))
	reviewPath, err := review.Write(nil, t.TempDir())
	if err != nil {
		t.Fatalf("write review: %v", err)
	}
	if _, _, err := runCLI(t, []string{"rename", reviewPath}, configPath); err == nil {
		t.Fatal("rename without --dir should fail")
	}
}

func TestBatchSubmitStatusResults(t *testing.T) {
	var (
		mu        sync.Mutex
		customIDs []string
		serverURL string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/messages/batches":
			var body struct {
				Requests []struct {
					CustomID string `json:"custom_id"`
				} `json:"requests"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode batch body: %v", err)
			}
			mu.Lock()
			for _, req := range body.Requests {
				customIDs = append(customIDs, req.CustomID)
			}
			mu.Unlock()
			io.WriteString(w, `{"id":"msgbatch_cli","processing_status":"in_progress","request_counts":{"processing":2},"created_at":"2026-01-05T10:00:00Z"}`)
		case r.Method == http.MethodGet && r.URL.Path == "/v1/messages/batches/msgbatch_cli":
			fmt.Fprintf(w, `{"id":"msgbatch_cli","processing_status":"ended","request_counts":{"succeeded":2},"created_at":"2026-01-05T10:00:00Z","ended_at":"2026-01-05T10:20:00Z","results_url":%q}`, serverURL+"/results/msgbatch_cli")
		case r.Method == http.MethodGet && r.URL.Path == "/results/msgbatch_cli":
			mu.Lock()
			defer mu.Unlock()
			for _, id := range customIDs {
				fmt.Fprintf(w, "{\"custom_id\":%q,\"result\":{\"type\":\"succeeded\",\"message\":%s}}\n", id, messageJSON(duneReply))
			}
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()
	serverURL = server.URL

	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(server.URL))
	configPath := writeTestConfig(t, cfg)
	dir := t.TempDir()
	testsupport.WritePDF(t, filepath.Join(dir, "a.pdf"), 1)
	testsupport.WritePDF(t, filepath.Join(dir, "b.pdf"), 2)

	stdout, _, err := runCLI(t, []string{"analyze", dir, "--batch"}, configPath)
	if err != nil {
		t.Fatalf("analyze --batch: %v", err)
	}
	mu.Lock()
	submitted := len(customIDs)
	mu.Unlock()
	if !strings.Contains(stdout, "msgbatch_cli") || submitted != 2 {
		t.Fatalf("unexpected submit: %d requests, output=%q", submitted, stdout)
	}

	stdout, _, err = runCLI(t, []string{"batch", "list"}, configPath)
	if err != nil {
		t.Fatalf("batch list: %v", err)
	}
	if !strings.Contains(stdout, "msgbatch_cli") || !strings.Contains(stdout, dir) {
		t.Fatalf("unexpected list output: %q", stdout)
	}

	stdout, _, err = runCLI(t, []string{"batch", "status"}, configPath)
	if err != nil {
		t.Fatalf("batch status: %v", err)
	}
	if !strings.Contains(stdout, "ended") {
		t.Fatalf("unexpected status output: %q", stdout)
	}

	stdout, _, err = runCLI(t, []string{"batch", "results"}, configPath)
	if err != nil {
		t.Fatalf("batch results: %v", err)
	}
	if !strings.Contains(stdout, fmt.Sprintf("--dir %q", dir)) {
		t.Fatalf("results hint should use the submitted directory: %q", stdout)
	}
	records, err := review.Read(globOne(t, filepath.Join(cfg.Paths.OutputDir, "review_*.csv")))
	if err != nil {
		t.Fatalf("read review: %v", err)
	}
	names := []string{records[0].OriginalFilename, records[1].OriginalFilename}
	slices.Sort(names)
	if !slices.Equal(names, []string{"a.pdf", "b.pdf"}) {
		t.Fatalf("custom ids not mapped back to files: %v", names)
	}
}

func TestBatchListEmpty(t *testing.T) {
	configPath := writeTestConfig(t, testsupport.NewConfig(t))
	stdout, _, err := runCLI(t, []string{"batch", "list"}, configPath)
	if err != nil {
		t.Fatalf("batch list: %v", err)
	}
	if !strings.Contains(stdout, "No batches recorded") {
		t.Fatalf("unexpected output: %q", stdout)
	}
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names
}

func TestStatusChecksProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models/claude-haiku-4-5-20251001" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		io.WriteString(w, `{"type":"model","id":"claude-haiku-4-5-20251001","display_name":"Claude Haiku 4.5"}`)
	}))
	defer server.Close()

	configPath := writeTestConfig(t, testsupport.NewConfig(t, testsupport.WithBaseURL(server.URL)))
	stdout, _, err := runCLI(t, []string{"status"}, configPath)
	if err != nil {
		t.Fatalf("status: %v\n%s", err, stdout)
	}
	for _, want := range []string{"read/write ok", "API reachable", "Last batch", "None"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("status output missing %q: %q", want, stdout)
		}
	}
}

func TestStatusFailsWithoutKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	cfg := testsupport.NewConfig(t)
	cfg.Anthropic.APIKey = ""
	configPath := writeTestConfig(t, cfg)

	stdout, _, err := runCLI(t, []string{"status"}, configPath)
	if err == nil || !strings.Contains(stdout, "API key missing") {
		t.Fatalf("expected failing status, got err=%v output=%q", err, stdout)
	}
}
