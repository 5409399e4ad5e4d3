// Package config loads the recognition pipeline configuration.
//
// The pipeline is described by a single YAML file naming the detector model,
// the detector class map, the ordered category groups and one classifier per
// group. Label maps are JSON files in the format produced by the training
// scripts: either a plain array of names or an object keyed by class index.
//
// Configuration is loaded once at startup. Every failure is returned as a
// *LoadError and is fatal: a pipeline must never be built from a partially
// valid configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile = "food-vision.yaml"

	EnvConfigPath    = "FOOD_VISION_CONFIG"
	EnvConfThreshold = "FOOD_VISION_CONF_THRESHOLD"
	EnvInputSize     = "FOOD_VISION_DET_IMGSZ"

	DefaultConfidenceThreshold = 0.3
	DefaultIoUThreshold        = 0.7
	DefaultDetectionInputSize  = 1024
	DefaultClassifierInputSize = 224
	DefaultExpandScale         = 1.1
)

// ErrConfigLoad is matched by every error returned from Load.
var ErrConfigLoad = errors.New("config load failed")

// LoadError reports a fatal configuration problem.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load config: %v", e.Err)
	}
	return fmt.Sprintf("load config %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrConfigLoad) match any LoadError.
func (e *LoadError) Is(target error) bool { return target == ErrConfigLoad }

// Config is the root pipeline configuration.
type Config struct {
	Runtime     RuntimeConfig         `yaml:"runtime"`
	Detection   DetectionConfig       `yaml:"detection"`
	Groups      []Group               `yaml:"groups"`
	GroupsFile  string                `yaml:"groups_file"`
	Classifiers map[string]Classifier `yaml:"classifiers"`

	// ClassNames maps detector class id to class name. Populated from
	// Detection.Classes during Load.
	ClassNames map[int]string `yaml:"-"`

	nameToID map[string]int
}

// RuntimeConfig controls the onnxruntime environment.
type RuntimeConfig struct {
	SharedLibrary string `yaml:"shared_library"`
	IntraThreads  int    `yaml:"intra_threads"`
	InterThreads  int    `yaml:"inter_threads"`
}

// DetectionConfig describes the full-image detector.
type DetectionConfig struct {
	Model               string  `yaml:"model"`
	Classes             string  `yaml:"classes"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	IoUThreshold        float64 `yaml:"iou_threshold"`
	InputSize           int     `yaml:"input_size"`
	ExpandScale         float64 `yaml:"expand_scale"`
}

// Group is a named bucket of detector classes sharing one classifier.
type Group struct {
	Name    string   `yaml:"name"`
	Classes []string `yaml:"classes"`
}

// Classifier describes the classification model serving one group.
type Classifier struct {
	Model     string `yaml:"model"`
	Labels    string `yaml:"labels"`
	InputSize int    `yaml:"input_size"`
	Softmax   bool   `yaml:"softmax"`
}

// Path returns the config file path from FOOD_VISION_CONFIG or the default.
func Path() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p
	}
	return DefaultConfigFile
}

// Load reads the YAML file at path, resolves relative model and label paths
// against the file's directory, loads the detector class map and validates
// the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	cfg, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return cfg, nil
}

// Parse builds a Config from YAML bytes. Relative paths are resolved
// against baseDir.
func Parse(data []byte, baseDir string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	cfg.resolvePaths(baseDir)
	applyDefaults(&cfg)
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if len(cfg.Groups) == 0 && cfg.GroupsFile != "" {
		groups, err := LoadGroups(cfg.GroupsFile)
		if err != nil {
			return nil, fmt.Errorf("load groups %s: %w", cfg.GroupsFile, err)
		}
		cfg.Groups = groups
	}

	if strings.TrimSpace(cfg.Detection.Classes) == "" {
		return nil, errors.New("detection.classes must be set")
	}
	names, err := LoadClassNames(cfg.Detection.Classes)
	if err != nil {
		return nil, fmt.Errorf("load detection classes %s: %w", cfg.Detection.Classes, err)
	}
	cfg.ClassNames = names

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	cfg.BuildIndex()
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Runtime.IntraThreads <= 0 {
		cfg.Runtime.IntraThreads = 1
	}
	if cfg.Runtime.InterThreads <= 0 {
		cfg.Runtime.InterThreads = 1
	}
	if cfg.Detection.ConfidenceThreshold == 0 {
		cfg.Detection.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.Detection.IoUThreshold == 0 {
		cfg.Detection.IoUThreshold = DefaultIoUThreshold
	}
	if cfg.Detection.InputSize == 0 {
		cfg.Detection.InputSize = DefaultDetectionInputSize
	}
	if cfg.Detection.ExpandScale == 0 {
		cfg.Detection.ExpandScale = DefaultExpandScale
	}
	for name, c := range cfg.Classifiers {
		if c.InputSize == 0 {
			c.InputSize = DefaultClassifierInputSize
			cfg.Classifiers[name] = c
		}
	}
}

func applyEnv(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvConfThreshold)); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvConfThreshold, err)
		}
		cfg.Detection.ConfidenceThreshold = f
	}
	if v := strings.TrimSpace(os.Getenv(EnvInputSize)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvInputSize, err)
		}
		cfg.Detection.InputSize = n
	}
	return nil
}

func (c *Config) resolvePaths(baseDir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) || baseDir == "" {
			return p
		}
		return filepath.Join(baseDir, p)
	}
	c.Detection.Model = resolve(c.Detection.Model)
	c.Detection.Classes = resolve(c.Detection.Classes)
	c.GroupsFile = resolve(c.GroupsFile)
	for name, cl := range c.Classifiers {
		cl.Model = resolve(cl.Model)
		cl.Labels = resolve(cl.Labels)
		c.Classifiers[name] = cl
	}
}

// BuildIndex rebuilds the class name lookup used by ClassID. Parse calls it;
// configs assembled in code should call it before the config is shared.
// When two ids carry the same name the lowest id wins.
func (c *Config) BuildIndex() {
	c.nameToID = make(map[string]int, len(c.ClassNames))
	for id, name := range c.ClassNames {
		if prev, ok := c.nameToID[name]; ok && prev < id {
			continue
		}
		c.nameToID[name] = id
	}
}

// ClassName returns the detector class name for id.
func (c *Config) ClassName(id int) (string, bool) {
	name, ok := c.ClassNames[id]
	return name, ok
}

// ClassID returns the detector class id registered for name. Classifier
// labels that are not detector classes have no id. ClassID never writes to
// c, so it is safe for concurrent use; without an index it scans ClassNames.
func (c *Config) ClassID(name string) (int, bool) {
	if c.nameToID != nil {
		id, ok := c.nameToID[name]
		return id, ok
	}
	found, best := false, 0
	for id, n := range c.ClassNames {
		if n == name && (!found || id < best) {
			found, best = true, id
		}
	}
	return best, found
}
