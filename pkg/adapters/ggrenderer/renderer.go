// Package ggrenderer draws annotation previews using the gg library.
package ggrenderer

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/pivotseg/pkg/mask"
	"github.com/user/pivotseg/pkg/ports"
)

// DefaultMaxWidth is the preview width above which frames are scaled down.
const DefaultMaxWidth = 1280

var (
	foregroundColor = color.RGBA{R: 0x00, G: 0xc8, B: 0x50, A: 0xff}
	backgroundColor = color.RGBA{R: 0xe0, G: 0x20, B: 0x20, A: 0xff}
	boxColor        = color.RGBA{R: 0x00, G: 0xc8, B: 0x50, A: 0xff}
)

// Renderer implements ports.Renderer using the gg library.
type Renderer struct {
	maxWidth int
}

// New creates a new Renderer. Previews wider than maxWidth are scaled
// down; zero selects DefaultMaxWidth.
func New(maxWidth int) *Renderer {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	return &Renderer{maxWidth: maxWidth}
}

// DrawAnnotation returns a copy of frame with the prompt drawn on top:
// foreground points green, background points red, a box as a green outline.
func (r *Renderer) DrawAnnotation(frame image.Image, a mask.Annotation) image.Image {
	b := frame.Bounds()
	scale := 1.0
	if b.Dx() > r.maxWidth {
		scale = float64(r.maxWidth) / float64(b.Dx())
	}
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))

	dc := gg.NewContext(w, h)
	dc.DrawImage(ResizeImage(frame, w, h), 0, 0)

	radius := math.Max(4, float64(min(w, h))/80)
	switch a.Kind {
	case mask.KindPoints:
		for _, p := range a.Points {
			c := backgroundColor
			if p.Label == mask.LabelForeground {
				c = foregroundColor
			}
			dc.DrawCircle(p.X*scale, p.Y*scale, radius)
			dc.SetColor(c)
			dc.FillPreserve()
			dc.SetColor(color.White)
			dc.SetLineWidth(radius / 3)
			dc.Stroke()
		}
	case mask.KindBox:
		bx := a.Box
		dc.DrawRectangle(bx.X1*scale, bx.Y1*scale, (bx.X2-bx.X1)*scale, (bx.Y2-bx.Y1)*scale)
		dc.SetColor(boxColor)
		dc.SetLineWidth(math.Max(2, radius/2))
		dc.Stroke()
	}
	return dc.Image()
}

// ResizeImage resizes an image to the specified dimensions. The image is
// returned as is when it already has that size.
func ResizeImage(img image.Image, width, height int) image.Image {
	if img.Bounds().Dx() == width && img.Bounds().Dy() == height {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// Ensure Renderer implements ports.Renderer
var _ ports.Renderer = (*Renderer)(nil)
