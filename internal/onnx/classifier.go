package onnx

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/ironsheep/food-vision-mcp/internal/config"
	"github.com/ironsheep/food-vision-mcp/internal/recognition"
)

// Classifier runs an image classification model exported to ONNX. Input and
// output tensors are allocated once and reused; calls are serialized.
type Classifier struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	labels  []string
	size    int
	softmax bool

	mu sync.Mutex
}

// LoadClassifier creates a session for one group's classifier.
// InitEnvironment must have been called.
func LoadClassifier(cfg config.Classifier, rt config.RuntimeConfig, log logrus.FieldLogger) (*Classifier, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	names, err := config.LoadClassNames(cfg.Labels)
	if err != nil {
		return nil, fmt.Errorf("load labels: %w", err)
	}
	labels, err := config.LabelList(names)
	if err != nil {
		return nil, fmt.Errorf("load labels %s: %w", cfg.Labels, err)
	}

	in, out, err := modelIO(cfg.Model)
	if err != nil {
		return nil, err
	}
	size, err := squareInputSize(in.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("classifier %s: %w", cfg.Model, err)
	}
	if size == 0 {
		size = cfg.InputSize
	}
	if n := out.Dimensions; len(n) == 2 && n[1] > 0 && int(n[1]) != len(labels) {
		return nil, fmt.Errorf("classifier %s has %d outputs but %d labels", cfg.Model, n[1], len(labels))
	}

	opts, err := newSessionOptions(rt)
	if err != nil {
		return nil, err
	}
	defer opts.Destroy()

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(size), int64(size)))
	if err != nil {
		return nil, fmt.Errorf("allocate classifier input: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(labels))))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("allocate classifier output: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		cfg.Model,
		[]string{in.Name},
		[]string{out.Name},
		[]ort.Value{input},
		[]ort.Value{output},
		opts,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create classifier session: %w", err)
	}

	log.WithFields(logrus.Fields{
		"model":  cfg.Model,
		"labels": len(labels),
		"size":   size,
	}).Debug("classifier session created")

	return &Classifier{
		session: session,
		input:   input,
		output:  output,
		labels:  labels,
		size:    size,
		softmax: cfg.Softmax,
	}, nil
}

// Classify centre-crops img to the model input size and returns the full
// label distribution in label order.
func (c *Classifier) Classify(img image.Image) ([]recognition.Prediction, error) {
	if c == nil || c.session == nil {
		return nil, errors.New("classifier not initialized")
	}

	fitted := imaging.Fill(img, c.size, c.size, imaging.Center, imaging.Linear)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := fillCHW(fitted, c.input.GetData()); err != nil {
		return nil, err
	}
	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("classifier run: %w", err)
	}
	return c.predictions(c.output.GetData()), nil
}

func (c *Classifier) predictions(raw []float32) []recognition.Prediction {
	var probs []float64
	if c.softmax {
		probs = softmax(raw)
	} else {
		probs = make([]float64, len(raw))
		for i, v := range raw {
			probs[i] = float64(v)
		}
	}

	n := len(probs)
	if len(c.labels) < n {
		n = len(c.labels)
	}
	out := make([]recognition.Prediction, n)
	for i := 0; i < n; i++ {
		out[i] = recognition.Prediction{Label: c.labels[i], Probability: probs[i]}
	}
	return out
}

// Labels returns the classifier's label list.
func (c *Classifier) Labels() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

// Close releases the session and its tensors.
func (c *Classifier) Close() error {
	if c == nil || c.session == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.session.Destroy()
	c.input.Destroy()
	c.output.Destroy()
	c.session = nil
	return err
}
