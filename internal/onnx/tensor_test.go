package onnx

import (
	"image"
	"image/color"
	"math"
	"testing"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/ironsheep/food-vision-mcp/internal/detection"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestLetterboxImage(t *testing.T) {
	tests := []struct {
		name       string
		w, h, size int
		wantScale  float64
		wantPadX   int
		wantPadY   int
	}{
		{"landscape", 200, 100, 100, 0.5, 0, 25},
		{"portrait", 100, 200, 100, 0.5, 25, 0},
		{"square upscale", 50, 50, 100, 2, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := solidImage(tt.w, tt.h, color.NRGBA{255, 0, 0, 255})
			canvas, lb := letterboxImage(img, tt.size)

			if canvas.Rect.Dx() != tt.size || canvas.Rect.Dy() != tt.size {
				t.Fatalf("canvas = %v, want %dx%d", canvas.Rect, tt.size, tt.size)
			}
			if lb.scale != tt.wantScale || lb.padX != tt.wantPadX || lb.padY != tt.wantPadY {
				t.Errorf("letterbox = %+v, want scale=%v pad=(%d,%d)", lb, tt.wantScale, tt.wantPadX, tt.wantPadY)
			}

			centre := canvas.NRGBAAt(tt.size/2, tt.size/2)
			if centre.R < 250 || centre.G > 5 {
				t.Errorf("centre pixel = %v, want red", centre)
			}
			if tt.wantPadY > 0 {
				if px := canvas.NRGBAAt(tt.size/2, 0); px.R != padValue || px.G != padValue {
					t.Errorf("pad pixel = %v, want grey %d", px, padValue)
				}
			}
		})
	}
}

func TestLetterbox_ToImage(t *testing.T) {
	lb := letterbox{size: 100, scale: 0.5, padX: 0, padY: 25}

	// A box covering the full image area of a 200x100 source.
	got := lb.toImage(50, 50, 100, 50)
	want := detection.Bounds{X1: 0, Y1: 0, X2: 200, Y2: 100}
	if got != want {
		t.Errorf("toImage = %v, want %v", got, want)
	}
}

func TestFillCHW(t *testing.T) {
	img := solidImage(2, 2, color.NRGBA{255, 51, 0, 255})
	img.SetNRGBA(1, 1, color.NRGBA{0, 0, 255, 255})

	dst := make([]float32, 12)
	if err := fillCHW(img, dst); err != nil {
		t.Fatalf("fillCHW failed: %v", err)
	}

	if dst[0] != 1 || dst[4] != 0.2 || dst[8] != 0 {
		t.Errorf("pixel 0 = (%v,%v,%v), want (1,0.2,0)", dst[0], dst[4], dst[8])
	}
	if dst[3] != 0 || dst[7] != 0 || dst[11] != 1 {
		t.Errorf("pixel 3 = (%v,%v,%v), want (0,0,1)", dst[3], dst[7], dst[11])
	}

	if err := fillCHW(img, make([]float32, 5)); err == nil {
		t.Error("expected error for undersized tensor")
	}
}

func TestDecodeYOLO(t *testing.T) {
	lb := letterbox{size: 100, scale: 1}

	// Three anchors, two classes: attributes are cx, cy, w, h, s0, s1.
	anchors := [][]float32{
		{20, 20, 10, 10, 0.9, 0.1},
		{50, 50, 20, 20, 0.1, 0.6},
		{80, 80, 10, 10, 0.2, 0.1},
	}
	wantBoxes := []detection.Candidate{
		{Box: detection.Bounds{X1: 15, Y1: 15, X2: 25, Y2: 25}, ClassID: 0, Confidence: 0.9},
		{Box: detection.Bounds{X1: 40, Y1: 40, X2: 60, Y2: 60}, ClassID: 1, Confidence: 0.6},
	}

	channelsFirst := make([]float32, 6*3)
	channelsLast := make([]float32, 6*3)
	for a, attrs := range anchors {
		for i, v := range attrs {
			channelsFirst[i*3+a] = v
			channelsLast[a*6+i] = v
		}
	}

	tests := []struct {
		name  string
		data  []float32
		shape ort.Shape
	}{
		{"channels first", channelsFirst, ort.NewShape(1, 6, 3)},
		{"channels last", channelsLast, ort.NewShape(1, 3, 6)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeYOLO(tt.data, tt.shape, 0.3, lb)
			if err != nil {
				t.Fatalf("decodeYOLO failed: %v", err)
			}
			if len(got) != len(wantBoxes) {
				t.Fatalf("got %d candidates, want %d: %+v", len(got), len(wantBoxes), got)
			}
			for i, w := range wantBoxes {
				if got[i].Box != w.Box || got[i].ClassID != w.ClassID || math.Abs(got[i].Confidence-w.Confidence) > 1e-6 {
					t.Errorf("candidate %d = %+v, want %+v", i, got[i], w)
				}
			}
		})
	}
}

func TestDecodeYOLO_BadShapes(t *testing.T) {
	lb := letterbox{size: 10, scale: 1}
	tests := []struct {
		name  string
		data  []float32
		shape ort.Shape
	}{
		{"rank 2", make([]float32, 6), ort.NewShape(1, 6)},
		{"batch 2", make([]float32, 24), ort.NewShape(2, 6, 2)},
		{"too few attributes", make([]float32, 16), ort.NewShape(1, 4, 4)},
		{"size mismatch", make([]float32, 5), ort.NewShape(1, 6, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeYOLO(tt.data, tt.shape, 0.3, lb); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSoftmax(t *testing.T) {
	got := softmax([]float32{1, 2, 3})
	var sum float64
	for _, v := range got {
		sum += v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("softmax sums to %v", sum)
	}
	if !(got[2] > got[1] && got[1] > got[0]) {
		t.Errorf("softmax not monotonic: %v", got)
	}

	big := softmax([]float32{1000, 1000})
	if math.IsNaN(big[0]) || math.Abs(big[0]-0.5) > 1e-9 {
		t.Errorf("softmax overflowed: %v", big)
	}
	if len(softmax(nil)) != 0 {
		t.Error("softmax(nil) should be empty")
	}
}

func TestSquareInputSize(t *testing.T) {
	tests := []struct {
		name    string
		dims    ort.Shape
		want    int
		wantErr bool
	}{
		{"fixed", ort.NewShape(1, 3, 640, 640), 640, false},
		{"dynamic", ort.NewShape(-1, 3, -1, -1), 0, false},
		{"not square", ort.NewShape(1, 3, 480, 640), 0, true},
		{"grayscale", ort.NewShape(1, 1, 224, 224), 0, true},
		{"rank 3", ort.NewShape(3, 224, 224), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := squareInputSize(tt.dims)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("size = %d, want %d", got, tt.want)
			}
		})
	}
}
