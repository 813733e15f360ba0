package ports

import (
	"image"

	"github.com/user/pivotseg/pkg/mask"
)

// ImageIO loads and stores individual frame files.
type ImageIO interface {
	// Load decodes the image at path into an RGBA buffer with bounds
	// starting at (0,0).
	Load(path string) (*image.RGBA, error)

	// Save encodes img to path. The format follows the file extension.
	Save(path string, img image.Image) error
}

// Renderer draws human-readable overlays for debugging.
type Renderer interface {
	// DrawAnnotation returns a copy of frame with the seed annotation drawn
	// on top: foreground points green, background points red, boxes as an
	// outline.
	DrawAnnotation(frame image.Image, a mask.Annotation) image.Image
}
