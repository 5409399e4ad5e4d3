package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/food-vision-mcp/internal/detection"
)

// CropResult contains an encoded crop returned to MCP clients.
type CropResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// CropRegion copies the region b out of img. Coordinates are relative to the
// image origin and X2/Y2 are exclusive. The region is clipped to the image;
// an empty region is an error.
func CropRegion(img image.Image, b detection.Bounds) (*image.NRGBA, error) {
	bounds := img.Bounds()
	b = detection.Clip(b, bounds.Dx(), bounds.Dy())
	if b.Empty() {
		return nil, fmt.Errorf("crop region %v is empty", b)
	}
	return imaging.Crop(img, b.Rect(bounds.Min)), nil
}

// Crop extracts a rectangular region and returns it as a base64 PNG,
// optionally scaled.
func Crop(img image.Image, b detection.Bounds, scale float64) (*CropResult, error) {
	bounds := img.Bounds()

	if b.X1 < 0 || b.Y1 < 0 || b.X2 > bounds.Dx() || b.Y2 > bounds.Dy() {
		return nil, fmt.Errorf("crop region %v outside image bounds (0,0)-(%d,%d)",
			b, bounds.Dx(), bounds.Dy())
	}
	if b.X1 >= b.X2 || b.Y1 >= b.Y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	cropped, err := CropRegion(img, b)
	if err != nil {
		return nil, err
	}

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	encoded, err := EncodePNG(cropped)
	if err != nil {
		return nil, err
	}

	return &CropResult{
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}, nil
}

// EncodePNG encodes img as a base64 PNG string.
func EncodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
