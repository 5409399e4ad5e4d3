package recognition

import (
	"fmt"
	"image"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/food-vision-mcp/internal/config"
	"github.com/ironsheep/food-vision-mcp/internal/detection"
)

// TopK is the number of classification candidates kept per detection.
const TopK = 5

// DetectStage turns raw detector output into named, suppressed detections.
type DetectStage struct {
	detector Detector
	cfg      *config.Config
	log      logrus.FieldLogger
}

// NewDetectStage wraps det with the class table and thresholds from cfg.
func NewDetectStage(det Detector, cfg *config.Config, log logrus.FieldLogger) *DetectStage {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &DetectStage{detector: det, cfg: cfg, log: log}
}

// Detect runs the detector on img and returns detections with confidence at
// least threshold, clipped to the image and suppressed class-agnostically.
// The result is ordered by confidence, highest first, ties in detector order.
func (s *DetectStage) Detect(img image.Image, threshold float64, inputSize int) ([]detection.Detection, error) {
	raw, err := s.detector.Detect(img, DetectOptions{
		ConfidenceThreshold: threshold,
		InputSize:           inputSize,
	})
	if err != nil {
		return nil, &DetectionError{Err: err}
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	kept := detection.FilterConfidence(raw, threshold)
	for i := range kept {
		kept[i].Box = detection.Clip(kept[i].Box, w, h)
	}
	kept = detection.SuppressAgnostic(kept, s.cfg.Detection.IoUThreshold)

	out := make([]detection.Detection, 0, len(kept))
	for _, c := range kept {
		name, ok := s.cfg.ClassName(c.ClassID)
		if !ok {
			name = fmt.Sprintf("class_%d", c.ClassID)
			s.log.WithField("class_id", c.ClassID).Warn("detector returned unknown class id")
		}
		out = append(out, detection.Detection{
			Box:        c.Box,
			ClassID:    c.ClassID,
			ClassName:  name,
			Confidence: c.Confidence,
		})
	}
	return out, nil
}

// Classify runs c on crop and returns at most TopK candidates ordered by
// probability, highest first. Equal probabilities keep the classifier's
// order. A panicking classifier is reported as an error.
func Classify(crop image.Image, c Classifier) (cands []Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			cands, err = nil, &ClassificationError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	preds, err := c.Classify(crop)
	if err != nil {
		return nil, &ClassificationError{Err: err}
	}

	cands = make([]Candidate, len(preds))
	for i, p := range preds {
		cands[i] = Candidate{Label: p.Label, Probability: p.Probability}
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Probability > cands[j].Probability
	})
	if len(cands) > TopK {
		cands = cands[:TopK]
	}
	return cands, nil
}
