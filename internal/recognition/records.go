package recognition

import "github.com/ironsheep/food-vision-mcp/internal/detection"

// DefaultRecordCandidates is the candidate count returned to callers.
const DefaultRecordCandidates = 3

// Record is the external form of one classified detection.
type Record struct {
	Label              string           `json:"label"`
	ClassID            int              `json:"class_id"`
	Box                detection.Bounds `json:"bbox"`
	DetectedClass      string           `json:"detected_class"`
	DetectedConfidence float64          `json:"detected_confidence"`
	Group              *string          `json:"group"`
	Candidates         []Candidate      `json:"candidates"`
	Error              string           `json:"error,omitempty"`
}

// Records returns the merged result set in iteration order. Probabilities are
// rounded to four decimal places and each candidate list is cut to
// maxCandidates (non-positive means all).
func (r *Result) Records(maxCandidates int) []Record {
	if r == nil || r.Final == nil {
		return []Record{}
	}
	return toRecords(r.Final.Items(), maxCandidates)
}

// DetectionRecords is like Records but lists every detection before merging.
func (r *Result) DetectionRecords(maxCandidates int) []Record {
	if r == nil {
		return []Record{}
	}
	return toRecords(r.Detections, maxCandidates)
}

func toRecords(items []ClassifiedDetection, maxCandidates int) []Record {
	out := make([]Record, 0, len(items))
	for _, d := range items {
		out = append(out, newRecord(d, maxCandidates))
	}
	return out
}

func newRecord(d ClassifiedDetection, maxCandidates int) Record {
	cands := d.Candidates
	if maxCandidates > 0 && len(cands) > maxCandidates {
		cands = cands[:maxCandidates]
	}
	rounded := make([]Candidate, len(cands))
	for i, c := range cands {
		rounded[i] = c.Rounded()
	}

	rec := Record{
		Label:              d.Label(),
		ClassID:            d.ResolvedID,
		Box:                d.Box,
		DetectedClass:      d.SourceLabel,
		DetectedConfidence: detection.Round(d.SourceConfidence, 4),
		Candidates:         rounded,
	}
	if d.HasGroup() {
		g := d.Group
		rec.Group = &g
	}
	if d.Failure != nil {
		rec.Error = d.Failure.Error()
	}
	return rec
}
