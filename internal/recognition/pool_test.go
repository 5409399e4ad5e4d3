package recognition

import (
	"errors"
	"image"
	"testing"

	"github.com/ironsheep/food-vision-mcp/internal/config"
)

func TestLoadClassifierPool_IsolatesFailures(t *testing.T) {
	fruit := &fakeClassifier{}
	specs := map[string]config.Classifier{
		"fruit":     {Model: "fruit.onnx"},
		"meat":      {Model: "meat.onnx"},
		"vegetable": {Model: "vegetable.onnx"},
		"cheese":    {Model: "cheese.onnx"},
	}

	load := func(group string, spec config.Classifier) (Classifier, error) {
		switch group {
		case "fruit":
			return fruit, nil
		case "meat":
			return nil, errBoom
		case "vegetable":
			panic("corrupt model")
		default:
			return nil, nil
		}
	}

	pool := LoadClassifierPool(specs, load, quietLogger())

	if c, ok := pool.Get("fruit"); !ok || c != fruit {
		t.Errorf("Get(fruit) = (%v, %v), want loaded classifier", c, ok)
	}
	for _, g := range []string{"meat", "vegetable", "cheese", "never-configured"} {
		if c, ok := pool.Get(g); ok || c != nil {
			t.Errorf("Get(%s) = (%v, %v), want unavailable", g, c, ok)
		}
	}

	status := pool.Status()
	if len(status) != 4 {
		t.Fatalf("Status: got %d entries, want 4", len(status))
	}
	wantOrder := []string{"cheese", "fruit", "meat", "vegetable"}
	for i, st := range status {
		if st.Name != wantOrder[i] {
			t.Errorf("Status[%d].Name = %s, want %s", i, st.Name, wantOrder[i])
		}
		if st.Available != (st.Name == "fruit") {
			t.Errorf("Status[%s].Available = %v", st.Name, st.Available)
		}
		if !st.Available && st.Error == "" {
			t.Errorf("Status[%s] should carry the load error", st.Name)
		}
	}
}

func TestNewClassifierPool_NilMarksUnavailable(t *testing.T) {
	pool := NewClassifierPool(map[string]Classifier{
		"fruit": &fakeClassifier{},
		"meat":  nil,
	})

	if _, ok := pool.Get("meat"); ok {
		t.Error("nil classifier should be unavailable")
	}
	for _, st := range pool.Status() {
		if st.Name == "meat" && st.Available {
			t.Error("meat should be reported unavailable")
		}
	}
}

func TestClassifierPool_Close(t *testing.T) {
	a := &fakeClassifier{}
	b := &fakeClassifier{}
	plain := ClassifierFunc(func(_ image.Image) ([]Prediction, error) { return nil, nil })

	pool := NewClassifierPool(map[string]Classifier{"a": a, "b": b, "plain": plain, "gone": nil})
	if err := pool.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("Close should release every closable classifier")
	}
}

func TestClassifierPool_NilSafe(t *testing.T) {
	var pool *ClassifierPool
	if _, ok := pool.Get("fruit"); ok {
		t.Error("nil pool should have no classifiers")
	}
	if err := pool.Close(); err != nil {
		t.Errorf("nil pool Close: %v", err)
	}
	if !errors.Is(unavailable("fruit"), ErrPredictorUnavailable) {
		t.Error("unavailable error should match ErrPredictorUnavailable")
	}
}
