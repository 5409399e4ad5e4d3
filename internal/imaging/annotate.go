package imaging

import (
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/food-vision-mcp/internal/detection"
)

// Annotation is one box to draw on an overlay.
type Annotation struct {
	Box   detection.Bounds
	Label string
	// Muted boxes (no category group) are drawn in grey.
	Muted bool
}

// LegendEntry ties a numeric tag drawn on the image to its label.
type LegendEntry struct {
	Tag   int              `json:"tag"`
	Label string           `json:"label"`
	Color string           `json:"color"`
	Box   detection.Bounds `json:"box"`
}

// AnnotateResult contains the overlay image and its legend.
type AnnotateResult struct {
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	ImageBase64 string        `json:"image_base64"`
	MimeType    string        `json:"mime_type"`
	Legend      []LegendEntry `json:"legend"`
}

const boxThickness = 2

// Annotate draws every annotation as a coloured rectangle with a numeric tag
// in its top-left corner. A label always gets the same colour.
func Annotate(img image.Image, annotations []Annotation) (*AnnotateResult, error) {
	bounds := img.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	legend := make([]LegendEntry, 0, len(annotations))
	for i, a := range annotations {
		c := LabelColor(a.Label)
		if a.Muted {
			c = colorful.Color{R: 0.5, G: 0.5, B: 0.5}
		}
		r, g, b := c.RGB255()
		rgba := color.RGBA{R: r, G: g, B: b, A: 255}

		box := detection.Clip(a.Box, bounds.Dx(), bounds.Dy())
		drawRect(result, box, rgba, boxThickness)

		tag := i + 1
		drawLabel(result, box.X1+boxThickness, box.Y1+boxThickness, strconv.Itoa(tag),
			color.RGBA{255, 255, 255, 255}, rgba)

		legend = append(legend, LegendEntry{
			Tag:   tag,
			Label: a.Label,
			Color: c.Hex(),
			Box:   a.Box,
		})
	}

	encoded, err := EncodePNG(result)
	if err != nil {
		return nil, err
	}

	return &AnnotateResult{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
		Legend:      legend,
	}, nil
}

// LabelColor derives a stable, saturated colour from a label.
func LabelColor(label string) colorful.Color {
	h := fnv.New32a()
	h.Write([]byte(label))
	hue := float64(h.Sum32()%360) + 0.5
	return colorful.Hcl(hue, 0.8, 0.6).Clamped()
}

// drawRect outlines b with the given stroke thickness.
func drawRect(img *image.RGBA, b detection.Bounds, c color.RGBA, thickness int) {
	bounds := img.Bounds()
	set := func(x, y int) {
		if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			img.Set(x, y, c)
		}
	}

	for t := 0; t < thickness; t++ {
		for x := b.X1; x < b.X2; x++ {
			set(x, b.Y1+t)
			set(x, b.Y2-1-t)
		}
		for y := b.Y1; y < b.Y2; y++ {
			set(b.X1+t, y)
			set(b.X2-1-t, y)
		}
	}
}

// drawLabel draws a tag using a 3x5 pixel digit font on a filled background.
func drawLabel(img *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			px, py := x+dx, y+dy
			if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
				img.Set(px, py, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					px, py := cx+col, y+row
					if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
						img.Set(px, py, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}
