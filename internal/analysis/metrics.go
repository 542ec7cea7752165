package analysis

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zsafwan/ocr-rename/internal/services/vision"
)

// Outcome labels for per-file metrics.
const (
	OutcomeSuccess    = "success"
	OutcomeError      = "error"
	OutcomeParseError = "parse_error"
	OutcomeAPIError   = "api_error"
)

// Metrics counts analysis outcomes in a private registry. A run can write the
// registry to a node-exporter textfile when it ends.
type Metrics struct {
	registry *prometheus.Registry

	filesTotal   *prometheus.CounterVec
	fileDuration *prometheus.HistogramVec
	inFlight     prometheus.Gauge
	tokensTotal  *prometheus.CounterVec
}

// NewMetrics builds the analysis metrics for provider and model.
func NewMetrics(provider, model string) *Metrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"provider": provider, "model": model}

	filesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "ocr_rename",
			Subsystem:   "analysis",
			Name:        "files_total",
			Help:        "Analyzed files by outcome.",
			ConstLabels: labels,
		},
		[]string{"outcome"},
	)
	fileDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   "ocr_rename",
			Subsystem:   "analysis",
			Name:        "file_duration_seconds",
			Help:        "Time from extraction start to record, by outcome.",
			Buckets:     []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			ConstLabels: labels,
		},
		[]string{"outcome"},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "ocr_rename",
			Subsystem:   "analysis",
			Name:        "in_flight",
			Help:        "Files currently being analyzed.",
			ConstLabels: labels,
		},
	)
	tokensTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "ocr_rename",
			Subsystem:   "analysis",
			Name:        "tokens_total",
			Help:        "Billed tokens by direction.",
			ConstLabels: labels,
		},
		[]string{"direction"},
	)

	registry.MustRegister(filesTotal, fileDuration, inFlight, tokensTotal)
	return &Metrics{
		registry:     registry,
		filesTotal:   filesTotal,
		fileDuration: fileDuration,
		inFlight:     inFlight,
		tokensTotal:  tokensTotal,
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// StartFile marks a file as in flight.
func (m *Metrics) StartFile() {
	m.inFlight.Inc()
}

// FinishFile records the outcome of one file.
func (m *Metrics) FinishFile(outcome string, duration time.Duration) {
	m.inFlight.Dec()
	m.filesTotal.WithLabelValues(outcome).Inc()
	m.fileDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// AddUsage counts billed tokens.
func (m *Metrics) AddUsage(usage vision.Usage) {
	m.tokensTotal.WithLabelValues("input").Add(float64(usage.InputTokens))
	m.tokensTotal.WithLabelValues("output").Add(float64(usage.OutputTokens))
}

// WriteTextfile writes the registry in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
