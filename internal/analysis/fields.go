package analysis

import (
	"github.com/zsafwan/ocr-rename/internal/review"
	"github.com/zsafwan/ocr-rename/internal/services/vision"
)

// Notes prefixes for placeholder records.
const (
	parseNotePrefix = "Response parse error: "
	batchNotePrefix = "Batch error: "
)

func toFields(id vision.Identification) review.Fields {
	return review.Fields{
		Title:      id.Title.Value,
		Author:     id.Author.Value,
		Confidence: id.Confidence.Value,
		Language:   id.Language.Value,
		Edition:    id.Edition.Value,
		Notes:      id.Notes.Value,
	}
}

// recordFromReply decodes a model reply into a record. Undecodable replies
// become PARSE_ERROR placeholders; ok reports success.
func recordFromReply(name, text string) (rec review.Record, ok bool) {
	id, err := vision.DecodeIdentification(text)
	if err != nil {
		return review.Placeholder(name, review.SentinelParseError, parseNotePrefix+err.Error()), false
	}
	return review.MakeRecord(name, toFields(id)), true
}

// Summary describes a finished analysis or batch retrieval.
type Summary struct {
	Records   []review.Record
	Processed int
	Skipped   int
	Failed    int
	Usage     vision.Usage
	Cost      float64
	HasCost   bool
}

func (s *Summary) add(rec review.Record, usage vision.Usage) {
	s.Records = append(s.Records, rec)
	s.Processed++
	if rec.Failed() {
		s.Failed++
	}
	s.Usage = s.Usage.Add(usage)
}
