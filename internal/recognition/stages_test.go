package recognition

import (
	"errors"
	"image"
	"testing"

	"github.com/ironsheep/food-vision-mcp/internal/detection"
)

func TestClassify_SortsAndTruncates(t *testing.T) {
	c := &fakeClassifier{preds: []Prediction{
		{"kiwi", 0.01},
		{"apple", 0.60},
		{"pear", 0.10},
		{"plum", 0.10},
		{"mango", 0.05},
		{"grape", 0.09},
		{"fig", 0.05},
	}}

	got, err := Classify(testImage(8, 8), c)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(got) != TopK {
		t.Fatalf("got %d candidates, want %d", len(got), TopK)
	}

	want := []string{"apple", "pear", "plum", "grape", "mango"}
	for i, w := range want {
		if got[i].Label != w {
			t.Errorf("candidate %d = %s, want %s", i, got[i].Label, w)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Probability > got[i-1].Probability {
			t.Errorf("candidates not descending at %d: %v", i, got)
		}
	}
}

func TestClassify_Failures(t *testing.T) {
	tests := []struct {
		name string
		c    Classifier
	}{
		{"error", &fakeClassifier{err: errBoom}},
		{"panic", ClassifierFunc(func(image.Image) ([]Prediction, error) {
			panic("tensor shape mismatch")
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(testImage(4, 4), tt.c)
			if !errors.Is(err, ErrClassification) {
				t.Errorf("error = %v, want ErrClassification", err)
			}
			if got != nil {
				t.Errorf("candidates = %v, want nil", got)
			}
		})
	}
}

func TestClassify_EmptyDistribution(t *testing.T) {
	got, err := Classify(testImage(4, 4), &fakeClassifier{})
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want no candidates", got)
	}
}

func TestDetectStage_Detect(t *testing.T) {
	det := &fakeDetector{cands: []detection.Candidate{
		{Box: box(10, 10, 50, 50), ClassID: 3, Confidence: 0.80},
		{Box: box(12, 12, 50, 50), ClassID: 4, Confidence: 0.75}, // overlaps the apple
		{Box: box(60, 60, 140, 140), ClassID: 7, Confidence: 0.70},
		{Box: box(0, 0, 5, 5), ClassID: 2, Confidence: 0.20},
		{Box: box(80, 0, 90, 10), ClassID: 42, Confidence: 0.50},
	}}
	stage := NewDetectStage(det, testConfig(), quietLogger())

	got, err := stage.Detect(testImage(120, 120), 0.3, 640)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if det.last.ConfidenceThreshold != 0.3 || det.last.InputSize != 640 {
		t.Errorf("detector options = %+v", det.last)
	}

	want := []struct {
		name string
		box  detection.Bounds
	}{
		{"apple", box(10, 10, 50, 50)},
		{"steak", box(60, 60, 120, 120)},
		{"class_42", box(80, 0, 90, 10)},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d detections, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].ClassName != w.name || got[i].Box != w.box {
			t.Errorf("detection %d = %s %v, want %s %v", i, got[i].ClassName, got[i].Box, w.name, w.box)
		}
	}
}

func TestDetectStage_NoneAboveThreshold(t *testing.T) {
	det := &fakeDetector{cands: []detection.Candidate{
		{Box: box(0, 0, 10, 10), ClassID: 3, Confidence: 0.1},
	}}
	got, err := NewDetectStage(det, testConfig(), quietLogger()).Detect(testImage(20, 20), 0.3, 1024)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil slice", got)
	}
}

func TestDetectStage_DetectorError(t *testing.T) {
	det := &fakeDetector{err: errBoom}
	_, err := NewDetectStage(det, testConfig(), quietLogger()).Detect(testImage(20, 20), 0.3, 1024)
	if !errors.Is(err, ErrDetection) {
		t.Errorf("error = %v, want ErrDetection", err)
	}
	if !errors.Is(err, errBoom) {
		t.Errorf("error should wrap the detector error: %v", err)
	}
}
