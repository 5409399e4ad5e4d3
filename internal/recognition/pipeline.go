package recognition

import (
	"context"
	"errors"
	"image"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/food-vision-mcp/internal/config"
	"github.com/ironsheep/food-vision-mcp/internal/detection"
	"github.com/ironsheep/food-vision-mcp/internal/imaging"
)

// Pipeline runs detection, routing, classification and merging for one image
// at a time. A Pipeline is safe for concurrent use when its detector and
// classifiers are.
type Pipeline struct {
	cfg         *config.Config
	detect      *DetectStage
	router      *Router
	pool        *ClassifierPool
	log         logrus.FieldLogger
	expandScale float64
	newRunID    func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for run tracing.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithExpandScale overrides the crop expansion factor from the config.
func WithExpandScale(scale float64) Option {
	return func(p *Pipeline) {
		if scale > 0 {
			p.expandScale = scale
		}
	}
}

// New assembles a pipeline. The router is built from cfg.Groups. cfg must
// not be modified once the pipeline is in use.
func New(cfg *config.Config, det Detector, pool *ClassifierPool, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("recognition: nil config")
	}
	if det == nil {
		return nil, errors.New("recognition: nil detector")
	}
	if pool == nil {
		return nil, errors.New("recognition: nil classifier pool")
	}
	// Index class names now so concurrent runs only read the config.
	cfg.BuildIndex()

	p := &Pipeline{
		cfg:         cfg,
		router:      NewRouter(cfg.Groups),
		pool:        pool,
		log:         logrus.StandardLogger(),
		expandScale: cfg.Detection.ExpandScale,
		newRunID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.expandScale <= 0 {
		p.expandScale = config.DefaultExpandScale
	}
	p.detect = NewDetectStage(det, cfg, p.log)
	return p, nil
}

// RunOptions tune a single run. Zero values fall back to the config, so a
// threshold of exactly 0 cannot be requested; callers reject it up front.
type RunOptions struct {
	ConfidenceThreshold float64
	InputSize           int
	Verbose             bool
}

// Result is the outcome of one run.
type Result struct {
	RunID      string
	Source     string
	Width      int
	Height     int
	Detections []ClassifiedDetection
	Final      *FinalResultSet
}

// Router exposes the group table.
func (p *Pipeline) Router() *Router { return p.router }

// Pool exposes the classifier pool.
func (p *Pipeline) Pool() *ClassifierPool { return p.pool }

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() *config.Config { return p.cfg }

// RunFile decodes the image at path and runs the pipeline on it.
func (p *Pipeline) RunFile(ctx context.Context, path string, opts RunOptions) (*Result, error) {
	img, _, err := imaging.DecodeFile(path)
	if err != nil {
		return nil, &ImageLoadError{Source: path, Err: err}
	}
	return p.RunImage(ctx, img, path, opts)
}

// RunBytes decodes an in-memory image and runs the pipeline on it.
func (p *Pipeline) RunBytes(ctx context.Context, data []byte, opts RunOptions) (*Result, error) {
	img, _, err := imaging.DecodeBytes(data)
	if err != nil {
		return nil, &ImageLoadError{Source: "upload", Err: err}
	}
	return p.RunImage(ctx, img, "upload", opts)
}

// RunImage runs the pipeline on a decoded image. Only detector failures and
// cancellation end a run early; classification problems are recorded on the
// affected detection.
func (p *Pipeline) RunImage(ctx context.Context, img image.Image, source string, opts RunOptions) (*Result, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, &ImageLoadError{Source: source, Err: imaging.ErrEmptyImage}
	}

	threshold, inputSize := p.resolve(opts)

	res := &Result{
		RunID:  p.newRunID(),
		Source: source,
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}
	log := p.log.WithFields(logrus.Fields{"run_id": res.RunID, "source": source})
	trace := log.Debugf
	if opts.Verbose {
		trace = log.Infof
	}

	trace("detecting (conf=%.2f, imgsz=%d, %dx%d)", threshold, inputSize, res.Width, res.Height)
	dets, err := p.detect.Detect(img, threshold, inputSize)
	if err != nil {
		log.WithError(err).Error("detection failed")
		return nil, err
	}
	trace("%d detections", len(dets))

	res.Detections = make([]ClassifiedDetection, 0, len(dets))
	for i, det := range dets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cd := p.classifyOne(img, det)
		if cd.Failure != nil {
			log.WithFields(logrus.Fields{
				"detection": i,
				"class":     det.ClassName,
				"group":     cd.Group,
			}).WithError(cd.Failure).Warn("classification skipped")
		}
		trace("detection %d: %s (%.3f) group=%q -> %s (%.3f)",
			i, det.ClassName, det.Confidence, cd.Group, cd.Label(), cd.Score())
		res.Detections = append(res.Detections, cd)
	}

	res.Final = Merge(res.Detections)
	trace("%d labels after merge: %v", res.Final.Len(), res.Final.Labels())
	return res, nil
}

// Detect runs only the detection stage on img.
func (p *Pipeline) Detect(img image.Image, opts RunOptions) ([]detection.Detection, error) {
	threshold, inputSize := p.resolve(opts)
	return p.detect.Detect(img, threshold, inputSize)
}

func (p *Pipeline) resolve(opts RunOptions) (float64, int) {
	threshold := opts.ConfidenceThreshold
	if threshold <= 0 {
		threshold = p.cfg.Detection.ConfidenceThreshold
	}
	inputSize := opts.InputSize
	if inputSize <= 0 {
		inputSize = p.cfg.Detection.InputSize
	}
	return threshold, inputSize
}

func (p *Pipeline) classifyOne(img image.Image, det detection.Detection) ClassifiedDetection {
	cd := ClassifiedDetection{
		ResolvedLabel:    det.ClassName,
		ResolvedID:       det.ClassID,
		Box:              det.Box,
		SourceLabel:      det.ClassName,
		SourceConfidence: det.Confidence,
	}

	group, ok := p.router.Route(det.ClassName)
	if !ok {
		return cd
	}
	cd.Group = group

	c, ok := p.pool.Get(group)
	if !ok {
		cd.Failure = unavailable(group)
		return cd
	}

	b := img.Bounds()
	expanded := detection.Expand(det.Box, b.Dx(), b.Dy(), p.expandScale)
	if expanded.Empty() {
		cd.Failure = ErrDegenerateCrop
		return cd
	}
	crop, err := imaging.CropRegion(img, expanded)
	if err != nil {
		cd.Failure = &ClassificationError{Group: group, Err: err}
		return cd
	}

	cands, err := Classify(crop, c)
	if err != nil {
		var ce *ClassificationError
		if errors.As(err, &ce) {
			ce.Group = group
		}
		cd.Failure = err
		return cd
	}

	cd.Candidates = cands
	cd.ResolvedLabel = cd.Label()
	if len(cands) > 0 {
		if id, ok := p.cfg.ClassID(cd.ResolvedLabel); ok {
			cd.ResolvedID = id
		}
	}
	return cd
}
