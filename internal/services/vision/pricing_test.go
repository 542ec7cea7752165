package vision_test

import (
	"math"
	"testing"

	"github.com/zsafwan/ocr-rename/internal/services/vision"
)

func TestEstimateCost(t *testing.T) {
	cost, ok := vision.EstimateCost("claude-haiku-4-5-20251001", vision.Usage{InputTokens: 2_000_000, OutputTokens: 100_000})
	if !ok {
		t.Fatal("expected known model")
	}
	if math.Abs(cost-2.5) > 1e-9 {
		t.Fatalf("unexpected cost: got %v want 2.5", cost)
	}

	cost, ok = vision.EstimateCost("claude-sonnet-4-5-20250929", vision.Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000})
	if !ok || math.Abs(cost-18) > 1e-9 {
		t.Fatalf("unexpected sonnet cost: %v %v", cost, ok)
	}

	if _, ok := vision.EstimateCost("gemini-2.5-flash", vision.Usage{InputTokens: 10}); ok {
		t.Fatal("unknown model must not produce an estimate")
	}
}

func TestUsageAdd(t *testing.T) {
	got := vision.Usage{InputTokens: 3, OutputTokens: 4}.Add(vision.Usage{InputTokens: 10, OutputTokens: 20})
	if got.InputTokens != 13 || got.OutputTokens != 24 {
		t.Fatalf("unexpected sum: %+v", got)
	}
}

func TestEstimateBatchCostHalvesListPrice(t *testing.T) {
	usage := vision.Usage{InputTokens: 2_000_000, OutputTokens: 100_000}
	cost, ok := vision.EstimateBatchCost("claude-haiku-4-5", usage)
	if !ok || math.Abs(cost-1.25) > 1e-9 {
		t.Fatalf("unexpected batch cost: %v %v", cost, ok)
	}
}
