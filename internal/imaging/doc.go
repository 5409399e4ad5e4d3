// Package imaging provides the image handling used around the recognition
// pipeline: decoding uploads and files, caching decoded images, cropping
// detection regions and drawing annotated overlays.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based and relative to the image
// origin, regardless of image.Bounds().Min:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Formats
//
// PNG, JPEG, GIF, BMP and WebP are decoded. The format is detected from file
// contents, never from the extension.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Decoding, cropping and
// annotation never mutate their input and can run concurrently on the same
// image.
package imaging
