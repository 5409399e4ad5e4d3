package onnx

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/ironsheep/food-vision-mcp/internal/config"
	"github.com/ironsheep/food-vision-mcp/internal/detection"
	"github.com/ironsheep/food-vision-mcp/internal/recognition"
)

// Detector runs a YOLO-style detection model exported to ONNX.
type Detector struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string

	// fixedSize is the model's square input size, or 0 when the model
	// accepts any size.
	fixedSize int

	log logrus.FieldLogger
	mu  sync.Mutex
}

// LoadDetector creates a session for the configured detection model.
// InitEnvironment must have been called.
func LoadDetector(cfg config.DetectionConfig, rt config.RuntimeConfig, log logrus.FieldLogger) (*Detector, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	in, out, err := modelIO(cfg.Model)
	if err != nil {
		return nil, err
	}
	fixed, err := squareInputSize(in.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("detector %s: %w", cfg.Model, err)
	}

	opts, err := newSessionOptions(rt)
	if err != nil {
		return nil, err
	}
	defer opts.Destroy()

	session, err := ort.NewDynamicAdvancedSession(cfg.Model, []string{in.Name}, []string{out.Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("create detector session: %w", err)
	}

	log.WithFields(logrus.Fields{
		"model":      cfg.Model,
		"input":      in.Name,
		"output":     out.Name,
		"fixed_size": fixed,
	}).Info("detector loaded")

	return &Detector{
		session:    session,
		inputName:  in.Name,
		outputName: out.Name,
		fixedSize:  fixed,
		log:        log,
	}, nil
}

// squareInputSize validates an NCHW image input and returns its fixed side
// length, or 0 for dynamic spatial dimensions.
func squareInputSize(dims ort.Shape) (int, error) {
	if len(dims) != 4 {
		return 0, fmt.Errorf("expected NCHW input, got shape %v", dims)
	}
	if dims[1] > 0 && dims[1] != 3 {
		return 0, fmt.Errorf("expected 3 input channels, got %d", dims[1])
	}
	h, w := dims[2], dims[3]
	if h <= 0 || w <= 0 {
		return 0, nil
	}
	if h != w {
		return 0, fmt.Errorf("expected square input, got %dx%d", w, h)
	}
	return int(h), nil
}

// Detect letterboxes img, runs the model and returns candidates in image
// coordinates. Suppression is left to the caller.
func (d *Detector) Detect(img image.Image, opts recognition.DetectOptions) ([]detection.Candidate, error) {
	if d == nil || d.session == nil {
		return nil, errors.New("detector not initialized")
	}

	size := opts.InputSize
	if d.fixedSize > 0 && size != d.fixedSize {
		d.log.WithFields(logrus.Fields{
			"requested": size,
			"model":     d.fixedSize,
		}).Debug("detector has a fixed input size")
		size = d.fixedSize
	}
	if size <= 0 {
		return nil, fmt.Errorf("invalid detector input size %d", size)
	}

	canvas, lb := letterboxImage(img, size)
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(size), int64(size)))
	if err != nil {
		return nil, fmt.Errorf("allocate detector input: %w", err)
	}
	defer input.Destroy()

	if err := fillCHW(canvas, input.GetData()); err != nil {
		return nil, err
	}

	outputs := []ort.Value{nil}
	d.mu.Lock()
	err = d.session.Run([]ort.Value{input}, outputs)
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("detector run: %w", err)
	}
	defer outputs[0].Destroy()

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("detector output %s is not a float32 tensor", d.outputName)
	}
	return decodeYOLO(tensor.GetData(), tensor.GetShape(), opts.ConfidenceThreshold, lb)
}

// Close releases the session.
func (d *Detector) Close() error {
	if d == nil || d.session == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.session.Destroy()
	d.session = nil
	return err
}
