package onnx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/ironsheep/food-vision-mcp/internal/config"
)

// EnvSharedLibrary overrides the onnxruntime shared library location.
const EnvSharedLibrary = "ONNXRUNTIME_SHARED_LIBRARY_PATH"

var (
	initMu   sync.Mutex
	initDone bool

	// ErrNoSharedLibrary is returned when no onnxruntime library can be found.
	ErrNoSharedLibrary = errors.New("onnxruntime shared library not found; set " + EnvSharedLibrary + " or runtime.shared_library")
)

// InitEnvironment loads the onnxruntime shared library and initializes the
// process-wide environment. Calls after the first successful one are no-ops.
func InitEnvironment(cfg config.RuntimeConfig, log logrus.FieldLogger) error {
	initMu.Lock()
	defer initMu.Unlock()

	if initDone || ort.IsInitialized() {
		initDone = true
		return nil
	}

	libPath := ResolveSharedLibrary(cfg.SharedLibrary)
	if libPath == "" {
		return ErrNoSharedLibrary
	}
	ort.SetSharedLibraryPath(libPath)

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	if log != nil {
		log.WithField("library", libPath).Info("onnxruntime initialized")
	}
	initDone = true
	return nil
}

// DestroyEnvironment tears down the onnxruntime environment. Sessions must be
// closed first.
func DestroyEnvironment() error {
	initMu.Lock()
	defer initMu.Unlock()

	if !initDone {
		return nil
	}
	initDone = false
	return ort.DestroyEnvironment()
}

// ResolveSharedLibrary returns the onnxruntime library to load. An explicit
// path wins, then the environment variable, then the first library found in
// the usual install locations. It returns "" when nothing is found.
func ResolveSharedLibrary(explicit string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return p
	}
	if env := strings.TrimSpace(os.Getenv(EnvSharedLibrary)); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.so",
		"onnxruntime.so",
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"onnxruntime.dll",
	}
	dirs := []string{
		".",
		"lib",
		"third_party",
		"/opt/homebrew/lib",
		"/usr/local/lib",
		"/usr/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}

func newSessionOptions(cfg config.RuntimeConfig) (*ort.SessionOptions, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	if err := opts.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		opts.Destroy()
		return nil, fmt.Errorf("set graph optimization: %w", err)
	}
	if cfg.IntraThreads > 0 {
		if err := opts.SetIntraOpNumThreads(cfg.IntraThreads); err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("set intra threads: %w", err)
		}
	}
	if cfg.InterThreads > 0 {
		if err := opts.SetInterOpNumThreads(cfg.InterThreads); err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("set inter threads: %w", err)
		}
	}
	return opts, nil
}

// modelIO returns the single float input and output of a model.
func modelIO(modelPath string) (ort.InputOutputInfo, ort.InputOutputInfo, error) {
	var none ort.InputOutputInfo

	if _, err := os.Stat(modelPath); err != nil {
		return none, none, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}
	inputs, outputs, err := ort.GetInputOutputInfoWithOptions(modelPath, nil)
	if err != nil {
		return none, none, fmt.Errorf("inspect model %s: %w", modelPath, err)
	}
	if len(inputs) != 1 {
		return none, none, fmt.Errorf("model %s: expected 1 input, found %d", modelPath, len(inputs))
	}
	if len(outputs) == 0 {
		return none, none, fmt.Errorf("model %s: no outputs found", modelPath)
	}
	return inputs[0], outputs[0], nil
}
