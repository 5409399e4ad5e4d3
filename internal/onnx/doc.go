// Package onnx provides the onnxruntime-backed detector and classifiers.
//
// The runtime must be initialized once per process with InitEnvironment
// before any model is loaded. Each Detector and Classifier owns one session
// and serializes calls to it.
//
// Detector input is letterboxed onto a grey square canvas; classifier input
// is resized and centre-cropped. Both are fed as planar RGB in [0, 1].
package onnx
