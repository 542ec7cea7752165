package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"

	"github.com/zsafwan/ocr-rename/internal/services"
)

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New(context.Background(), Config{Model: "gemini-2.5-flash"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := New(context.Background(), Config{APIKey: "k"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing model, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{&googleapi.Error{Code: http.StatusTooManyRequests}, services.ErrTransient},
		{fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusServiceUnavailable}), services.ErrTransient},
		{&googleapi.Error{Code: http.StatusBadRequest}, services.ErrService},
		{errors.New("boom"), services.ErrService},
	}
	for _, tc := range cases {
		if got := classify(tc.err); got != tc.want {
			t.Fatalf("unexpected marker for %v: got %v want %v", tc.err, got, tc.want)
		}
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"title":`), genai.Text(`"A"}`)}},
		}},
	}
	text, err := responseText(resp)
	if err != nil {
		t.Fatalf("response text: %v", err)
	}
	if text != `{"title":"A"}` {
		t.Fatalf("unexpected text: %q", text)
	}

	if _, err := responseText(&genai.GenerateContentResponse{}); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}
