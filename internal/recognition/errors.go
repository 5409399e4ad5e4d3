package recognition

import (
	"errors"
	"fmt"
)

var (
	// ErrImageLoad matches any *ImageLoadError. It terminates a run.
	ErrImageLoad = errors.New("image load failed")

	// ErrDetection matches any *DetectionError. It terminates a run.
	ErrDetection = errors.New("detection failed")

	// ErrPredictorUnavailable is recorded on a detection whose group has no
	// loaded classifier. It never terminates a run.
	ErrPredictorUnavailable = errors.New("no classifier available for group")

	// ErrClassification matches any *ClassificationError. It never
	// terminates a run.
	ErrClassification = errors.New("classification failed")

	// ErrDegenerateCrop is recorded when the expanded box has zero area.
	ErrDegenerateCrop = errors.New("expanded box has zero area")
)

// ImageLoadError reports input that could not be decoded.
type ImageLoadError struct {
	Source string
	Err    error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("load image %s: %v", e.Source, e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }

func (e *ImageLoadError) Is(target error) bool { return target == ErrImageLoad }

// DetectionError reports a failing detector.
type DetectionError struct {
	Err error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("detect: %v", e.Err)
}

func (e *DetectionError) Unwrap() error { return e.Err }

func (e *DetectionError) Is(target error) bool { return target == ErrDetection }

// ClassificationError reports a classifier call that failed or panicked for
// one detection.
type ClassificationError struct {
	Group string
	Err   error
}

func (e *ClassificationError) Error() string {
	if e.Group == "" {
		return fmt.Sprintf("classify: %v", e.Err)
	}
	return fmt.Sprintf("classify group %s: %v", e.Group, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

func (e *ClassificationError) Is(target error) bool { return target == ErrClassification }

func unavailable(group string) error {
	return fmt.Errorf("%w %q", ErrPredictorUnavailable, group)
}
