package onnx

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"

	"github.com/ironsheep/food-vision-mcp/internal/detection"
)

// padValue is the grey used to fill letterbox borders.
const padValue = 114

// letterbox records how an image was fitted into a square model input.
type letterbox struct {
	size  int
	scale float64
	padX  int
	padY  int
}

// letterboxImage resizes img to fit a size x size square keeping its aspect
// ratio and centres it on a grey canvas.
func letterboxImage(img image.Image, size int) (*image.NRGBA, letterbox) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	scale := math.Min(float64(size)/float64(w), float64(size)/float64(h))
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	lb := letterbox{
		size:  size,
		scale: scale,
		padX:  (size - nw) / 2,
		padY:  (size - nh) / 2,
	}

	resized := transform.Resize(img, nw, nh, transform.Linear)
	canvas := imaging.New(size, size, color.NRGBA{R: padValue, G: padValue, B: padValue, A: 255})
	canvas = imaging.Paste(canvas, resized, image.Pt(lb.padX, lb.padY))
	return canvas, lb
}

// toImage maps a centre-format box in model input pixels back to image
// coordinates.
func (lb letterbox) toImage(cx, cy, w, h float32) detection.Bounds {
	x1 := (float64(cx) - float64(w)/2 - float64(lb.padX)) / lb.scale
	y1 := (float64(cy) - float64(h)/2 - float64(lb.padY)) / lb.scale
	x2 := (float64(cx) + float64(w)/2 - float64(lb.padX)) / lb.scale
	y2 := (float64(cy) + float64(h)/2 - float64(lb.padY)) / lb.scale
	return detection.Bounds{
		X1: int(math.Round(x1)),
		Y1: int(math.Round(y1)),
		X2: int(math.Round(x2)),
		Y2: int(math.Round(y2)),
	}
}

// fillCHW writes img into dst as planar RGB scaled to [0, 1]. dst must hold
// 3 * width * height values.
func fillCHW(img *image.NRGBA, dst []float32) error {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	plane := w * h
	if len(dst) != 3*plane {
		return fmt.Errorf("tensor holds %d values, image needs %d", len(dst), 3*plane)
	}

	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			i := y*w + x
			px := row[x*4 : x*4+4]
			dst[i] = float32(px[0]) / 255
			dst[plane+i] = float32(px[1]) / 255
			dst[2*plane+i] = float32(px[2]) / 255
		}
	}
	return nil
}

// decodeYOLO reads a YOLO detection head. The output is [1, 4+nc, N] or its
// transpose [1, N, 4+nc]; each anchor is (cx, cy, w, h, score_0..score_nc-1)
// in model input pixels. Anchors whose best class score is below threshold
// are dropped.
func decodeYOLO(data []float32, shape []int64, threshold float64, lb letterbox) ([]detection.Candidate, error) {
	if len(shape) != 3 || shape[0] != 1 {
		return nil, fmt.Errorf("unexpected detector output shape %v", shape)
	}

	// The attribute axis is the short one.
	attrs, anchors := int(shape[1]), int(shape[2])
	channelsFirst := true
	if attrs > anchors {
		attrs, anchors = anchors, attrs
		channelsFirst = false
	}
	if attrs < 5 {
		return nil, fmt.Errorf("detector output has %d attributes, need at least 5", attrs)
	}
	if len(data) != attrs*anchors {
		return nil, fmt.Errorf("detector output holds %d values, shape %v needs %d", len(data), shape, attrs*anchors)
	}

	at := func(anchor, attr int) float32 {
		if channelsFirst {
			return data[attr*anchors+anchor]
		}
		return data[anchor*attrs+attr]
	}

	var out []detection.Candidate
	for a := 0; a < anchors; a++ {
		best, bestScore := -1, float32(0)
		for c := 4; c < attrs; c++ {
			if s := at(a, c); best < 0 || s > bestScore {
				best, bestScore = c-4, s
			}
		}
		if float64(bestScore) < threshold {
			continue
		}
		out = append(out, detection.Candidate{
			Box:        lb.toImage(at(a, 0), at(a, 1), at(a, 2), at(a, 3)),
			ClassID:    best,
			Confidence: float64(bestScore),
		})
	}
	return out, nil
}

// softmax converts logits to probabilities.
func softmax(logits []float32) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}

	maxV := float64(logits[0])
	for _, v := range logits[1:] {
		if float64(v) > maxV {
			maxV = float64(v)
		}
	}
	var sum float64
	for i, v := range logits {
		out[i] = math.Exp(float64(v) - maxV)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
