package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveAnnotationPreview saves the pivot frame with the seed drawn on it.
	SaveAnnotationPreview(img image.Image) error

	// SaveStoreJSON saves the unified mask store summary.
	SaveStoreJSON(data []byte) error

	// SaveSplitJSON saves the pivot split plan.
	SaveSplitJSON(data []byte) error

	// SaveRenderedFrame saves one rendered frame for a compositor mode.
	SaveRenderedFrame(mode string, index int, img image.Image) error
}
