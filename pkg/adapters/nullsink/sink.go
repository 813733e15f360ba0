// Package nullsink provides a no-op debug sink implementation.
package nullsink

import (
	"image"

	"github.com/user/pivotseg/pkg/ports"
)

// Sink is a no-op implementation of ports.DebugSink.
// It discards all debug output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SaveAnnotationPreview does nothing.
func (s *Sink) SaveAnnotationPreview(img image.Image) error {
	return nil
}

// SaveStoreJSON does nothing.
func (s *Sink) SaveStoreJSON(data []byte) error {
	return nil
}

// SaveSplitJSON does nothing.
func (s *Sink) SaveSplitJSON(data []byte) error {
	return nil
}

// SaveRenderedFrame does nothing.
func (s *Sink) SaveRenderedFrame(mode string, index int, img image.Image) error {
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
