package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zsafwan/ocr-rename/internal/logging"
	"github.com/zsafwan/ocr-rename/internal/services"
	"github.com/zsafwan/ocr-rename/internal/services/vision"
)

const (
	batchesPath        = "/v1/messages/batches"
	maxResultLineBytes = 16 << 20
)

type batchCreateRequest struct {
	Requests []batchItem `json:"requests"`
}

type batchItem struct {
	CustomID string         `json:"custom_id"`
	Params   messageRequest `json:"params"`
}

type batchResponse struct {
	ID               string               `json:"id"`
	ProcessingStatus string               `json:"processing_status"`
	RequestCounts    vision.RequestCounts `json:"request_counts"`
	CreatedAt        time.Time            `json:"created_at"`
	EndedAt          *time.Time           `json:"ended_at"`
	ResultsURL       string               `json:"results_url"`
}

type resultLine struct {
	CustomID string `json:"custom_id"`
	Result   struct {
		Type    string           `json:"type"`
		Message *messageResponse `json:"message"`
		Error   *errorEnvelope   `json:"error"`
	} `json:"result"`
}

// SubmitBatch creates one batch holding a Messages request per document.
func (c *Client) SubmitBatch(ctx context.Context, requests []vision.BatchRequest) (vision.BatchStatus, error) {
	if c.cfg.APIKey == "" {
		return vision.BatchStatus{}, services.Wrap(services.ErrConfiguration, "anthropic", "create batch", "api key required", nil)
	}
	if len(requests) == 0 {
		return vision.BatchStatus{}, services.Wrap(services.ErrValidation, "anthropic", "create batch", "no requests", nil)
	}
	payload := batchCreateRequest{Requests: make([]batchItem, 0, len(requests))}
	for _, req := range requests {
		payload.Requests = append(payload.Requests, batchItem{
			CustomID: req.CustomID,
			Params:   c.messageParams(req.Document),
		})
	}
	var reply batchResponse
	if err := c.doJSON(ctx, http.MethodPost, batchesPath, payload, &reply); err != nil {
		return vision.BatchStatus{}, services.Wrap(markerFor(err), "anthropic", "create batch", "", err)
	}
	return reply.status(), nil
}

// BatchStatus retrieves the processing state of batch id.
func (c *Client) BatchStatus(ctx context.Context, id string) (vision.BatchStatus, error) {
	reply, err := c.retrieveBatch(ctx, id)
	if err != nil {
		return vision.BatchStatus{}, err
	}
	return reply.status(), nil
}

// BatchResults streams the JSONL results of an ended batch. It returns
// vision.ErrBatchNotReady while the batch is still processing.
func (c *Client) BatchResults(ctx context.Context, id string) ([]vision.BatchResult, error) {
	reply, err := c.retrieveBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if vision.ProcessingStatus(reply.ProcessingStatus) != vision.StatusEnded {
		return nil, vision.ErrBatchNotReady
	}

	resultsURL := strings.TrimSpace(reply.ResultsURL)
	if resultsURL == "" {
		if resultsURL, err = c.endpoint(batchesPath + "/" + url.PathEscape(id) + "/results"); err != nil {
			return nil, err
		}
	}
	resp, err := c.send(ctx, http.MethodGet, resultsURL, nil)
	if err != nil {
		return nil, services.Wrap(markerFor(err), "anthropic", "batch results", id, err)
	}
	defer resp.Body.Close()

	var results []vision.BatchResult
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxResultLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var parsed resultLine
		if err := json.Unmarshal([]byte(line), &parsed); err != nil {
			result, ok := malformedResult(line, err)
			if !ok {
				return nil, services.Wrap(services.ErrService, "anthropic", "batch results", "decode line", err)
			}
			logging.WarnWithContext(c.logger, "batch result not decodable", "batch_result_malformed",
				logging.String(logging.FieldBatchID, id),
				logging.String("custom_id", result.CustomID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file is reported as an API error"),
			)
			results = append(results, result)
			continue
		}
		results = append(results, parsed.toResult())
	}
	if err := scanner.Err(); err != nil {
		return nil, services.Wrap(services.ErrService, "anthropic", "batch results", "read stream", err)
	}
	return results, nil
}

func (c *Client) retrieveBatch(ctx context.Context, id string) (batchResponse, error) {
	var reply batchResponse
	id = strings.TrimSpace(id)
	if id == "" {
		return reply, services.Wrap(services.ErrValidation, "anthropic", "retrieve batch", "batch id required", nil)
	}
	if c.cfg.APIKey == "" {
		return reply, services.Wrap(services.ErrConfiguration, "anthropic", "retrieve batch", "api key required", nil)
	}
	if err := c.doJSON(ctx, http.MethodGet, batchesPath+"/"+url.PathEscape(id), nil, &reply); err != nil {
		return reply, services.Wrap(markerFor(err), "anthropic", "retrieve batch", id, err)
	}
	return reply, nil
}

func (b batchResponse) status() vision.BatchStatus {
	status := vision.BatchStatus{
		ID:               b.ID,
		ProcessingStatus: vision.ProcessingStatus(b.ProcessingStatus),
		Counts:           b.RequestCounts,
		CreatedAt:        b.CreatedAt,
	}
	if b.EndedAt != nil {
		status.EndedAt = *b.EndedAt
	}
	return status
}

// malformedResult keeps a line whose body does not decode, as long as its
// custom id can still be read.
func malformedResult(line string, decodeErr error) (vision.BatchResult, bool) {
	var head struct {
		CustomID string `json:"custom_id"`
	}
	if err := json.Unmarshal([]byte(line), &head); err != nil || strings.TrimSpace(head.CustomID) == "" {
		return vision.BatchResult{}, false
	}
	return vision.BatchResult{
		CustomID:     head.CustomID,
		Type:         vision.ResultErrored,
		ErrorType:    "malformed_result",
		ErrorMessage: decodeErr.Error(),
	}, true
}

func (l resultLine) toResult() vision.BatchResult {
	result := vision.BatchResult{
		CustomID: l.CustomID,
		Type:     vision.ResultType(l.Result.Type),
	}
	switch result.Type {
	case vision.ResultSucceeded:
		if l.Result.Message == nil {
			result.Type = vision.ResultErrored
			result.ErrorType = "empty_message"
			return result
		}
		resp, err := toResponse(*l.Result.Message, "batch results", l.CustomID)
		if err != nil {
			result.Type = vision.ResultErrored
			result.ErrorType = "empty_content"
			result.ErrorMessage = err.Error()
			return result
		}
		result.Response = resp
	case vision.ResultErrored:
		if l.Result.Error != nil {
			result.ErrorType = firstNonEmpty(l.Result.Error.Error.Type, l.Result.Error.Type)
			result.ErrorMessage = l.Result.Error.Error.Message
		}
	}
	return result
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

var (
	_ vision.Analyzer    = (*Client)(nil)
	_ vision.BatchClient = (*Client)(nil)
)
