package detection

import (
	"fmt"
	"image"
)

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// (X1, Y1) is the top-left corner and (X2, Y2) the bottom-right corner. When
// used as a crop region X2 and Y2 are exclusive.
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Width is X2 - X1, or 0 for an inverted box.
func (b Bounds) Width() int {
	return maxInt(0, b.X2-b.X1)
}

// Height is Y2 - Y1, or 0 for an inverted box.
func (b Bounds) Height() int {
	return maxInt(0, b.Y2-b.Y1)
}

// Area returns Width * Height.
func (b Bounds) Area() int {
	return b.Width() * b.Height()
}

// Empty reports whether the box has zero area.
func (b Bounds) Empty() bool {
	return b.Area() == 0
}

// Rect converts the box to an image.Rectangle offset by origin.
func (b Bounds) Rect(origin image.Point) image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2).Add(origin)
}

func (b Bounds) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d)", b.X1, b.Y1, b.X2, b.Y2)
}

// Expand scales b by scale around its centre and clips the result to
// [0, width-1] x [0, height-1]. New edges are truncated toward zero, matching
// the crop coordinates the classifiers were trained with.
//
// A non-positive scale is treated as 1. The result may be empty when the
// input is degenerate or lies on the image border.
func Expand(b Bounds, width, height int, scale float64) Bounds {
	if scale <= 0 {
		scale = 1
	}

	w := float64(b.X2 - b.X1)
	h := float64(b.Y2 - b.Y1)
	cx := float64(b.X1) + w/2
	cy := float64(b.Y1) + h/2
	nw := w * scale
	nh := h * scale

	out := Bounds{
		X1: maxInt(0, int(cx-nw/2)),
		Y1: maxInt(0, int(cy-nh/2)),
		X2: minInt(width-1, int(cx+nw/2)),
		Y2: minInt(height-1, int(cy+nh/2)),
	}

	// Keep the ordering invariant even for boxes entirely outside the image.
	out.X1 = minInt(out.X1, maxInt(0, width-1))
	out.Y1 = minInt(out.Y1, maxInt(0, height-1))
	out.X2 = maxInt(out.X2, out.X1)
	out.Y2 = maxInt(out.Y2, out.Y1)
	return out
}

// Clip limits b to [0, width] x [0, height].
func Clip(b Bounds, width, height int) Bounds {
	return Bounds{
		X1: clampInt(b.X1, 0, width),
		Y1: clampInt(b.Y1, 0, height),
		X2: clampInt(b.X2, 0, width),
		Y2: clampInt(b.Y2, 0, height),
	}
}

// Intersect returns the overlapping region of a and b, which is empty when
// they do not overlap.
func Intersect(a, b Bounds) Bounds {
	out := Bounds{
		X1: maxInt(a.X1, b.X1),
		Y1: maxInt(a.Y1, b.Y1),
		X2: minInt(a.X2, b.X2),
		Y2: minInt(a.Y2, b.Y2),
	}
	if out.X2 < out.X1 {
		out.X2 = out.X1
	}
	if out.Y2 < out.Y1 {
		out.Y2 = out.Y1
	}
	return out
}

// IoU is the intersection-over-union of a and b in [0, 1].
func IoU(a, b Bounds) float64 {
	inter := Intersect(a, b).Area()
	if inter == 0 {
		return 0
	}
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// overlaps checks if two bounds share any area
func overlaps(a, b Bounds) bool {
	return a.X1 < b.X2 && a.X2 > b.X1 && a.Y1 < b.Y2 && a.Y2 > b.Y1
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	return minInt(maxInt(v, lo), hi)
}
