package recognition

import (
	"errors"
	"image"
	"image/color"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/food-vision-mcp/internal/config"
	"github.com/ironsheep/food-vision-mcp/internal/detection"
)

// fakeDetector returns a fixed candidate list.
type fakeDetector struct {
	mu    sync.Mutex
	cands []detection.Candidate
	err   error
	last  DetectOptions
}

func (d *fakeDetector) Detect(img image.Image, opts DetectOptions) ([]detection.Candidate, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = opts
	if d.err != nil {
		return nil, d.err
	}
	out := make([]detection.Candidate, len(d.cands))
	copy(out, d.cands)
	return out, nil
}

// fakeClassifier returns a fixed distribution and counts calls.
type fakeClassifier struct {
	mu     sync.Mutex
	preds  []Prediction
	err    error
	calls  int
	closed bool
	sizes  []image.Point
}

func (c *fakeClassifier) Classify(img image.Image) ([]Prediction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.sizes = append(c.sizes, img.Bounds().Size())
	if c.err != nil {
		return nil, c.err
	}
	out := make([]Prediction, len(c.preds))
	copy(out, c.preds)
	return out, nil
}

func (c *fakeClassifier) Close() error {
	c.closed = true
	return nil
}

func (c *fakeClassifier) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig() *config.Config {
	return &config.Config{
		Detection: config.DetectionConfig{
			Model:               "detector.onnx",
			ConfidenceThreshold: 0.3,
			IoUThreshold:        0.7,
			InputSize:           1024,
			ExpandScale:         1.1,
		},
		Groups: []config.Group{
			{Name: "fruit", Classes: []string{"apple", "banana", "pear"}},
			{Name: "meat", Classes: []string{"steak", "chicken"}},
		},
		ClassNames: map[int]string{
			0: "banana",
			1: "chicken",
			2: "milk_carton",
			3: "apple",
			4: "pear",
			7: "steak",
		},
	}
}

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	return img
}

func box(x1, y1, x2, y2 int) detection.Bounds {
	return detection.Bounds{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

func newTestPipeline(t *testing.T, det Detector, classifiers map[string]Classifier) *Pipeline {
	t.Helper()
	p, err := New(testConfig(), det, NewClassifierPool(classifiers), WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p
}

var errBoom = errors.New("boom")
