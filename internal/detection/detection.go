package detection

import (
	"math"
	"sort"
)

// Candidate is one raw box produced by a detector before suppression and
// class-name lookup.
type Candidate struct {
	Box        Bounds  `json:"box"`
	ClassID    int     `json:"class_id"`
	Confidence float64 `json:"confidence"`
}

// Detection is one localized object proposal for a single image.
type Detection struct {
	Box        Bounds  `json:"box"`
	ClassID    int     `json:"class_id"`
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
}

// FilterConfidence drops candidates below threshold.
func FilterConfidence(cands []Candidate, threshold float64) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Confidence >= threshold {
			out = append(out, c)
		}
	}
	return out
}

// SuppressAgnostic performs greedy non-max suppression ignoring class ids.
//
// Candidates are ranked by confidence (stable for equal confidences) and a
// candidate is kept only if its IoU with every previously kept box is at most
// iouThreshold. The result is in ranked order.
func SuppressAgnostic(cands []Candidate, iouThreshold float64) []Candidate {
	if len(cands) == 0 {
		return []Candidate{}
	}

	ranked := make([]Candidate, len(cands))
	copy(ranked, cands)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	kept := make([]Candidate, 0, len(ranked))
	for _, c := range ranked {
		if c.Box.Empty() {
			continue
		}
		suppressed := false
		for _, k := range kept {
			if overlaps(c.Box, k.Box) && IoU(c.Box, k.Box) > iouThreshold {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, c)
		}
	}
	return kept
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
