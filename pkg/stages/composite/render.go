package composite

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/user/pivotseg/pkg/mask"
)

// Palette is the cyclic list of overlay colors. An object's color is chosen
// by its rank among the objects present in the frame.
type Palette []color.RGBA

// DefaultPalette is orange (#ff8000) for the first object, then blue
// (#0080ff). Frames are RGB.
var DefaultPalette = Palette{
	{R: 0xff, G: 0x80, B: 0x00, A: 0xff},
	{R: 0x00, G: 0x80, B: 0xff, A: 0xff},
}

// ParsePalette parses "#rrggbb" (or "rrggbb") entries.
func ParsePalette(hex []string) (Palette, error) {
	p := make(Palette, 0, len(hex))
	for _, h := range hex {
		s := strings.TrimPrefix(strings.TrimSpace(h), "#")
		if len(s) != 6 {
			return nil, fmt.Errorf("invalid color %q", h)
		}
		v, err := strconv.ParseUint(s, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid color %q: %w", h, err)
		}
		p = append(p, color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff})
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("palette is empty")
	}
	return p, nil
}

// Color returns the color for the object at rank.
func (p Palette) Color(rank int) color.RGBA {
	return p[rank%len(p)]
}

// Overlay weights, in tenths, for original and palette color.
const (
	originalWeight = 6
	colorWeight    = 4
)

// Colored blends each object's palette color into the pixels it covers:
// 0.6 original + 0.4 color, rounded to nearest. Objects are applied in
// ascending id order.
// Pixels outside every mask are copied unchanged.
func Colored(frame *image.RGBA, masks mask.ObjectMasks, palette Palette) (*image.RGBA, error) {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	out, w, h := clone(frame)
	if err := masks.CheckSize(w, h); err != nil {
		return nil, err
	}
	for rank, id := range masks.IDs() {
		m := masks[id]
		c := palette.Color(rank)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				if !m.Bits[y*w+x] {
					continue
				}
				i := out.PixOffset(x, y)
				px := out.Pix[i : i+3 : i+3]
				px[0] = blend(px[0], c.R)
				px[1] = blend(px[1], c.G)
				px[2] = blend(px[2], c.B)
			}
		}
	}
	return out, nil
}

func blend(orig, c uint8) uint8 {
	return uint8((originalWeight*int(orig) + colorWeight*int(c) + 5) / 10)
}

// Silhouette renders white wherever any object is present and black
// elsewhere.
func Silhouette(frame *image.RGBA, masks mask.ObjectMasks) (*image.RGBA, error) {
	b := frame.Bounds()
	union, err := masks.Union(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for i, on := range union.Bits {
		v := uint8(0)
		if on {
			v = 0xff
		}
		p := out.Pix[i*4 : i*4+4 : i*4+4]
		p[0], p[1], p[2], p[3] = v, v, v, 0xff
	}
	return out, nil
}

// OriginalOnWhite keeps the original pixels wherever any object is present
// and paints the rest white.
func OriginalOnWhite(frame *image.RGBA, masks mask.ObjectMasks) (*image.RGBA, error) {
	b := frame.Bounds()
	union, err := masks.Union(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	out, w, h := clone(frame)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if union.Bits[y*w+x] {
				continue
			}
			i := out.PixOffset(x, y)
			p := out.Pix[i : i+4 : i+4]
			p[0], p[1], p[2], p[3] = 0xff, 0xff, 0xff, 0xff
		}
	}
	return out, nil
}

// clone copies frame into a new zero-origin image.
func clone(frame *image.RGBA) (*image.RGBA, int, int) {
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		src := frame.PixOffset(b.Min.X, b.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+w*4], frame.Pix[src:src+w*4])
	}
	return out, w, h
}
