// Package alpr defines the license plate recognition pipeline the service calls
// into, and a registry of engines that provide it.
//
// Engines live in subpackages and register themselves from init, so a binary
// only needs a blank import to make an engine selectable by name.
package alpr

import (
	"context"
	"image"
)

// A Pipeline detects plates in an image and reads their text.
// Implementations must be safe for concurrent use.
type Pipeline interface {
	// Name is the registry name of the engine.
	Name() string
	// Predict returns one Result per detected plate, in detection order.
	Predict(ctx context.Context, img image.Image) ([]Result, error)
}

// Result pairs a detection with its OCR read.
//
// Detection is intentionally untyped: engines expose the plate location under
// different names and shapes, see ExtractBox.
type Result struct {
	Detection any
	OCR       OCRResult
}

type OCRResult struct {
	Text       string
	Confidence float64
}
