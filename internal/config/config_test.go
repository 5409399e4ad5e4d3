package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeFile writes content under dir and returns the full path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const validYAML = `
detection:
  model: models/detection.onnx
  classes: dicts/classes.json
groups:
  - name: fruit
    classes: [apple, pear]
  - name: meat
    classes: [steak]
classifiers:
  fruit:
    model: models/fruit.onnx
    labels: models/fruit.json
`

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dicts/classes.json", `{"0": "milk_carton", "3": "apple", "7": "steak"}`)
	path := writeFile(t, dir, "food-vision.yaml", validYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Detection.Model != filepath.Join(dir, "models/detection.onnx") {
		t.Errorf("detection model not resolved: %s", cfg.Detection.Model)
	}
	if cfg.Classifiers["fruit"].Labels != filepath.Join(dir, "models/fruit.json") {
		t.Errorf("classifier labels not resolved: %s", cfg.Classifiers["fruit"].Labels)
	}

	if cfg.Detection.ConfidenceThreshold != DefaultConfidenceThreshold {
		t.Errorf("confidence default: got %v", cfg.Detection.ConfidenceThreshold)
	}
	if cfg.Detection.InputSize != DefaultDetectionInputSize {
		t.Errorf("input size default: got %d", cfg.Detection.InputSize)
	}
	if cfg.Detection.ExpandScale != DefaultExpandScale {
		t.Errorf("expand scale default: got %v", cfg.Detection.ExpandScale)
	}
	if cfg.Classifiers["fruit"].InputSize != DefaultClassifierInputSize {
		t.Errorf("classifier input size default: got %d", cfg.Classifiers["fruit"].InputSize)
	}

	if name, ok := cfg.ClassName(7); !ok || name != "steak" {
		t.Errorf("ClassName(7): got %q, %v", name, ok)
	}
	if id, ok := cfg.ClassID("apple"); !ok || id != 3 {
		t.Errorf("ClassID(apple): got %d, %v", id, ok)
	}
	if _, ok := cfg.ClassID("granny_smith"); ok {
		t.Error("ClassID should not resolve unknown labels")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "dicts/classes.json", `["apple", "steak"]`)
	path := writeFile(t, dir, "food-vision.yaml", validYAML)

	t.Setenv(EnvConfThreshold, "0.45")
	t.Setenv(EnvInputSize, "640")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Detection.ConfidenceThreshold != 0.45 {
		t.Errorf("confidence: got %v, want 0.45", cfg.Detection.ConfidenceThreshold)
	}
	if cfg.Detection.InputSize != 640 {
		t.Errorf("input size: got %d, want 640", cfg.Detection.InputSize)
	}
}

func TestLoad_GroupsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "classes.json", `["apple", "steak"]`)
	writeFile(t, dir, "groups.json", `{"meat": ["steak"], "fruit": ["apple"]}`)
	path := writeFile(t, dir, "food-vision.yaml", `
detection:
  model: detection.onnx
  classes: classes.json
groups_file: groups.json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Groups) != 2 {
		t.Fatalf("groups: got %d, want 2", len(cfg.Groups))
	}
	if cfg.Groups[0].Name != "fruit" || cfg.Groups[1].Name != "meat" {
		t.Errorf("groups should be sorted by name, got %s, %s", cfg.Groups[0].Name, cfg.Groups[1].Name)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		classes string
		yaml    string
		wantMsg string
	}{
		{
			name:    "malformed yaml",
			classes: `["apple"]`,
			yaml:    "detection: [",
			wantMsg: "parse yaml",
		},
		{
			name:    "missing model",
			classes: `["apple"]`,
			yaml: `
detection:
  classes: classes.json
groups:
  - name: fruit
    classes: [apple]
`,
			wantMsg: "detection.model",
		},
		{
			name:    "malformed class map",
			classes: `{"zero": "apple"}`,
			yaml: `
detection:
  model: d.onnx
  classes: classes.json
groups:
  - name: fruit
    classes: [apple]
`,
			wantMsg: "invalid class index",
		},
		{
			name:    "class in two groups",
			classes: `["apple"]`,
			yaml: `
detection:
  model: d.onnx
  classes: classes.json
groups:
  - name: fruit
    classes: [apple]
  - name: misc
    classes: [apple]
`,
			wantMsg: `class "apple" listed in groups`,
		},
		{
			name:    "duplicate group",
			classes: `["apple"]`,
			yaml: `
detection:
  model: d.onnx
  classes: classes.json
groups:
  - name: fruit
    classes: [apple]
  - name: fruit
    classes: [pear]
`,
			wantMsg: "defined twice",
		},
		{
			name:    "classifier for unknown group",
			classes: `["apple"]`,
			yaml: `
detection:
  model: d.onnx
  classes: classes.json
groups:
  - name: fruit
    classes: [apple]
classifiers:
  dairy:
    model: dairy.onnx
    labels: dairy.json
`,
			wantMsg: "does not match any group",
		},
		{
			name:    "threshold out of range",
			classes: `["apple"]`,
			yaml: `
detection:
  model: d.onnx
  classes: classes.json
  confidence_threshold: 1.5
groups:
  - name: fruit
    classes: [apple]
`,
			wantMsg: "confidence_threshold",
		},
		{
			name:    "no groups",
			classes: `["apple"]`,
			yaml: `
detection:
  model: d.onnx
  classes: classes.json
`,
			wantMsg: "at least one group",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "classes.json", tt.classes)
			path := writeFile(t, dir, "food-vision.yaml", tt.yaml)

			_, err := Load(path)
			if err == nil {
				t.Fatal("Load should fail")
			}
			if !errors.Is(err, ErrConfigLoad) {
				t.Errorf("error should match ErrConfigLoad: %v", err)
			}
			var le *LoadError
			if !errors.As(err, &le) || le.Path != path {
				t.Errorf("error should be a LoadError for %s: %v", path, err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrConfigLoad) {
		t.Fatalf("expected ErrConfigLoad, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("underlying error should be ErrNotExist: %v", err)
	}
}

func TestPath(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	if got := Path(); got != DefaultConfigFile {
		t.Errorf("Path: got %s, want %s", got, DefaultConfigFile)
	}
	t.Setenv(EnvConfigPath, "/etc/food-vision.yaml")
	if got := Path(); got != "/etc/food-vision.yaml" {
		t.Errorf("Path: got %s", got)
	}
}

func TestClassID_WithoutIndex(t *testing.T) {
	cfg := &Config{ClassNames: map[int]string{4: "apple", 1: "apple", 2: "pear"}}

	for _, indexed := range []bool{false, true} {
		if indexed {
			cfg.BuildIndex()
		}
		if id, ok := cfg.ClassID("apple"); !ok || id != 1 {
			t.Errorf("indexed=%v ClassID(apple): got %d, %v, want 1", indexed, id, ok)
		}
		if _, ok := cfg.ClassID("plum"); ok {
			t.Errorf("indexed=%v ClassID(plum) should not resolve", indexed)
		}
	}
}

func TestClassID_UnindexedLeavesConfigUntouched(t *testing.T) {
	cfg := &Config{ClassNames: map[int]string{3: "apple"}}
	cfg.ClassID("apple")
	if cfg.nameToID != nil {
		t.Error("ClassID must not build the index lazily")
	}
}
