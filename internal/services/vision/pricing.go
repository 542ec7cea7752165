package vision

// Price is the list price in US dollars per million tokens.
type Price struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

var prices = map[string]Price{
	"claude-haiku-4-5-20251001":  {InputPerMillion: 1.00, OutputPerMillion: 5.00},
	"claude-haiku-4-5":           {InputPerMillion: 1.00, OutputPerMillion: 5.00},
	"claude-sonnet-4-5-20250929": {InputPerMillion: 3.00, OutputPerMillion: 15.00},
	"claude-sonnet-4-5":          {InputPerMillion: 3.00, OutputPerMillion: 15.00},
}

// LookupPrice returns the price for model, if known.
func LookupPrice(model string) (Price, bool) {
	p, ok := prices[model]
	return p, ok
}

// EstimateCost converts usage into dollars. Unknown models report false.
func EstimateCost(model string, usage Usage) (float64, bool) {
	p, ok := LookupPrice(model)
	if !ok {
		return 0, false
	}
	cost := float64(usage.InputTokens)/1_000_000*p.InputPerMillion +
		float64(usage.OutputTokens)/1_000_000*p.OutputPerMillion
	return cost, true
}

// BatchDiscount is the fraction of list price charged for batch requests.
const BatchDiscount = 0.5

// EstimateBatchCost is EstimateCost at the batch discount.
func EstimateBatchCost(model string, usage Usage) (float64, bool) {
	cost, ok := EstimateCost(model, usage)
	return cost * BatchDiscount, ok
}
