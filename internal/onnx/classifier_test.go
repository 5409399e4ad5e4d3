package onnx

import (
	"image/color"
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
)

func quiet() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestClassifier_Predictions(t *testing.T) {
	tests := []struct {
		name    string
		softmax bool
		raw     []float32
		want    []float64
	}{
		{"probabilities", false, []float32{0.7, 0.2, 0.1}, []float64{0.7, 0.2, 0.1}},
		{"logits", true, []float32{0, 0, 0}, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Classifier{labels: []string{"apple", "banana", "pear"}, softmax: tt.softmax}
			got := c.predictions(tt.raw)
			if len(got) != 3 {
				t.Fatalf("got %d predictions", len(got))
			}
			for i, p := range got {
				if p.Label != c.labels[i] {
					t.Errorf("prediction %d label = %s, want %s", i, p.Label, c.labels[i])
				}
				if math.Abs(p.Probability-tt.want[i]) > 1e-6 {
					t.Errorf("prediction %d = %v, want %v", i, p.Probability, tt.want[i])
				}
			}
		})
	}
}

func TestClassifier_PredictionsTruncateToLabels(t *testing.T) {
	c := &Classifier{labels: []string{"apple"}}
	if got := c.predictions([]float32{0.5, 0.5}); len(got) != 1 {
		t.Errorf("got %d predictions, want 1", len(got))
	}
}

func TestClassifier_Uninitialized(t *testing.T) {
	var c *Classifier
	if _, err := c.Classify(solidImage(4, 4, color.NRGBA{A: 255})); err == nil {
		t.Error("expected error from nil classifier")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on nil classifier: %v", err)
	}
}
