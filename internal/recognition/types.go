package recognition

import (
	"image"

	"github.com/ironsheep/food-vision-mcp/internal/detection"
)

// DetectOptions are passed to the detector for one image.
type DetectOptions struct {
	ConfidenceThreshold float64
	InputSize           int
}

// Detector is a full-image object detector. Implementations return raw
// candidates in image coordinates; suppression and naming happen in the
// detection stage.
type Detector interface {
	Detect(img image.Image, opts DetectOptions) ([]detection.Candidate, error)
}

// Prediction is one entry of a classifier's probability distribution.
type Prediction struct {
	Label       string
	Probability float64
}

// Classifier assigns a label distribution to a cropped region. The returned
// predictions may be in any order; an empty slice means the model produced
// no distribution.
type Classifier interface {
	Classify(img image.Image) ([]Prediction, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(img image.Image) ([]Prediction, error)

func (f ClassifierFunc) Classify(img image.Image) ([]Prediction, error) { return f(img) }

// Candidate is one ranked classification label. Probability keeps the
// model's full precision; Rounded is used for external output.
type Candidate struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Rounded returns c with Probability rounded to four decimal places.
func (c Candidate) Rounded() Candidate {
	c.Probability = detection.Round(c.Probability, 4)
	return c
}

// ClassifiedDetection is a detection merged with its classification
// outcome. Candidates is empty when the detection had no group, the group had
// no classifier, the crop was degenerate or classification failed; Failure
// records which of the last three happened.
type ClassifiedDetection struct {
	ResolvedLabel    string
	ResolvedID       int
	Box              detection.Bounds
	SourceLabel      string
	SourceConfidence float64
	Group            string
	Candidates       []Candidate
	Failure          error
}

// Label is the top candidate's label, or the detector class name when there
// are no candidates.
func (c ClassifiedDetection) Label() string {
	if len(c.Candidates) > 0 {
		return c.Candidates[0].Label
	}
	return c.SourceLabel
}

// Score is the merge comparison key: the top candidate's probability, or the
// detector confidence when there are no candidates.
func (c ClassifiedDetection) Score() float64 {
	if len(c.Candidates) > 0 {
		return c.Candidates[0].Probability
	}
	return c.SourceConfidence
}

// HasGroup reports whether the detection was routed to a category group.
func (c ClassifiedDetection) HasGroup() bool {
	return c.Group != ""
}
