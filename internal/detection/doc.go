// Package detection provides the geometry and post-processing shared by the
// food recognition stages.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Boxes are (X1, Y1, X2, Y2) with X1 < X2 and Y1 < Y2 for a valid box
//
// Box coordinates are relative to the image origin, not to image.Bounds().Min.
// Callers working with sub-images translate before cropping.
//
// # Expansion
//
// Classifiers see slightly more context than the tight detector box. Expand
// scales a box around its centre and clips the result to the last valid pixel
// on each axis. Clipping can collapse a box on the image border to zero area;
// Empty reports that case so callers can skip the crop.
//
// # Suppression
//
// Detector output is suppressed class-agnostically: two overlapping boxes are
// treated as the same physical object even when the detector assigned them
// different classes. The higher-confidence box survives.
package detection
