// Package mask defines the segmentation data model: per-frame boolean masks,
// object identifiers, seed annotations and the unified mask store.
package mask

import (
	"errors"
	"fmt"
	"image"
	"sort"
)

// ErrDimensionMismatch is returned when a mask and the frame it annotates
// disagree in size.
var ErrDimensionMismatch = errors.New("mask: dimension mismatch")

// ObjectID identifies a tracked entity. Both segments of a run reuse the
// same id so their masks merge without remapping.
type ObjectID int

// DefaultObjectID is the id used when the caller tracks a single object.
const DefaultObjectID ObjectID = 1

// Mask is a boolean 2D array stored row-major.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// New creates an all-false mask of the given size.
func New(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		Width:  width,
		Height: height,
		Bits:   make([]bool, width*height),
	}
}

// FromImage thresholds an image into a mask. A pixel is set when its
// luminance is above half intensity. The result always starts at (0,0).
func FromImage(img image.Image) *Mask {
	b := img.Bounds()
	m := New(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			// 16-bit channels; Rec.601 weights.
			lum := (299*r + 587*g + 114*bl) / 1000
			m.Bits[y*m.Width+x] = lum > 0x7fff
		}
	}
	return m
}

// At reports whether (x, y) is inside the mask. Out-of-range coordinates
// report false.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Bits[y*m.Width+x]
}

// Set assigns the bit at (x, y). Out-of-range coordinates are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Bits[y*m.Width+x] = v
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// CheckSize returns ErrDimensionMismatch unless the mask is exactly
// width x height.
func (m *Mask) CheckSize(width, height int) error {
	if m.Width != width || m.Height != height || len(m.Bits) != width*height {
		return fmt.Errorf("%w: mask %dx%d, frame %dx%d", ErrDimensionMismatch, m.Width, m.Height, width, height)
	}
	return nil
}

// ObjectMasks maps object ids to their mask within one frame.
type ObjectMasks map[ObjectID]*Mask

// IDs returns the object ids in ascending order.
func (om ObjectMasks) IDs() []ObjectID {
	ids := make([]ObjectID, 0, len(om))
	for id := range om {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CheckSize validates every mask against the frame size.
func (om ObjectMasks) CheckSize(width, height int) error {
	for _, id := range om.IDs() {
		if err := om[id].CheckSize(width, height); err != nil {
			return fmt.Errorf("object %d: %w", id, err)
		}
	}
	return nil
}

// Union OR-combines every object mask into one. Returns an all-false mask
// of the given size when om is empty.
func (om ObjectMasks) Union(width, height int) (*Mask, error) {
	out := New(width, height)
	for _, id := range om.IDs() {
		m := om[id]
		if err := m.CheckSize(width, height); err != nil {
			return nil, fmt.Errorf("object %d: %w", id, err)
		}
		for i, b := range m.Bits {
			if b {
				out.Bits[i] = true
			}
		}
	}
	return out, nil
}
