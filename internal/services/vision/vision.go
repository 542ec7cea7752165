package vision

import (
	"context"
	"errors"
	"time"
)

// Document is the page payload sent for identification.
type Document struct {
	Name      string
	MediaType string
	Data      []byte
}

// MediaTypePDF is the only media type produced by page extraction.
const MediaTypePDF = "application/pdf"

// Usage counts tokens billed for a call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Add returns the element-wise sum.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:  u.InputTokens + other.InputTokens,
		OutputTokens: u.OutputTokens + other.OutputTokens,
	}
}

// Response is the raw model reply.
type Response struct {
	Text  string
	Usage Usage
}

// Analyzer sends one document to a vision model and returns its reply text.
type Analyzer interface {
	Analyze(ctx context.Context, doc Document) (Response, error)
}

// ErrBatchNotReady is returned when results are requested before a batch ends.
var ErrBatchNotReady = errors.New("batch has not ended")

// ProcessingStatus is the coarse state of a submitted batch.
type ProcessingStatus string

const (
	StatusInProgress ProcessingStatus = "in_progress"
	StatusCanceling  ProcessingStatus = "canceling"
	StatusEnded      ProcessingStatus = "ended"
)

// RequestCounts tallies batch items by state.
type RequestCounts struct {
	Processing int `json:"processing"`
	Succeeded  int `json:"succeeded"`
	Errored    int `json:"errored"`
	Canceled   int `json:"canceled"`
	Expired    int `json:"expired"`
}

// Total returns the number of items in the batch.
func (c RequestCounts) Total() int {
	return c.Processing + c.Succeeded + c.Errored + c.Canceled + c.Expired
}

// BatchStatus describes a submitted batch.
type BatchStatus struct {
	ID               string
	ProcessingStatus ProcessingStatus
	Counts           RequestCounts
	CreatedAt        time.Time
	EndedAt          time.Time
}

// Ended reports whether results can be fetched.
func (s BatchStatus) Ended() bool {
	return s.ProcessingStatus == StatusEnded
}

// BatchRequest pairs a caller-chosen identifier with a document.
type BatchRequest struct {
	CustomID string
	Document Document
}

// ResultType is the per-item outcome reported by the batch service.
type ResultType string

const (
	ResultSucceeded ResultType = "succeeded"
	ResultErrored   ResultType = "errored"
	ResultCanceled  ResultType = "canceled"
	ResultExpired   ResultType = "expired"
)

// BatchResult is one item of a finished batch.
type BatchResult struct {
	CustomID     string
	Type         ResultType
	Response     Response
	ErrorType    string
	ErrorMessage string
}

// BatchClient submits and tracks deferred analysis batches.
type BatchClient interface {
	SubmitBatch(ctx context.Context, requests []BatchRequest) (BatchStatus, error)
	BatchStatus(ctx context.Context, id string) (BatchStatus, error)
	BatchResults(ctx context.Context, id string) ([]BatchResult, error)
}
