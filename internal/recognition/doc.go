// Package recognition implements the two-stage food recognition pipeline.
//
// A full-image detector proposes boxes. Each detection is routed by its class
// name to a category group, the group's classifier labels an expanded crop of
// the box, and detections that resolve to the same label are merged so that
// at most one result per label remains.
//
// # Failure Handling
//
// Only an undecodable image (ErrImageLoad) or a failing detector
// (ErrDetection) ends a run. A missing classifier, a degenerate crop or a
// classifier error is recorded on the affected detection, which then falls
// back to its detector class name and confidence.
//
// # Ordering
//
// Detections are processed in confidence order. The merged set keeps
// first-insertion order, except that a replaced label moves to the end.
package recognition
