// Package frameio loads and stores frame images on disk.
package frameio

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/user/pivotseg/pkg/ports"
)

// IO implements ports.ImageIO with imaging for codecs.
type IO struct {
	jpegQuality int
}

// New creates an IO that writes JPEG files at the given quality (1-100).
func New(jpegQuality int) *IO {
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = 95
	}
	return &IO{jpegQuality: jpegQuality}
}

// Load decodes the image at path. EXIF orientation is ignored so pixel
// coordinates match what the segmenter sees.
func (o *IO) Load(path string) (*image.RGBA, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frame %s: %w", filepath.Base(path), err)
	}
	return ToRGBA(img), nil
}

// Save encodes img to path; the format is chosen from the extension.
func (o *IO) Save(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create frame dir: %w", err)
		}
	}
	if err := imaging.Save(img, path, imaging.JPEGQuality(o.jpegQuality)); err != nil {
		return fmt.Errorf("save frame %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ToRGBA returns img as an *image.RGBA whose bounds start at (0,0). An
// RGBA input that already satisfies this is returned as is.
func ToRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return rgba
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(dst, image.Point{}, img, b, draw.Src, nil)
	return dst
}

// Ensure IO implements ports.ImageIO
var _ ports.ImageIO = (*IO)(nil)
