package mocks

import (
	"image"
	"sync"

	"github.com/user/pivotseg/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	AnnotationPreview image.Image
	StoreJSON         []byte
	SplitJSON         []byte
	RenderedFrames    map[string]map[int]image.Image
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:        enabled,
		RenderedFrames: make(map[string]map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SaveAnnotationPreview(img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnnotationPreview = img
	return nil
}

func (m *DebugSink) SaveStoreJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoreJSON = data
	return nil
}

func (m *DebugSink) SaveSplitJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SplitJSON = data
	return nil
}

func (m *DebugSink) SaveRenderedFrame(mode string, index int, img image.Image) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RenderedFrames[mode] == nil {
		m.RenderedFrames[mode] = make(map[int]image.Image)
	}
	m.RenderedFrames[mode][index] = img
	return nil
}

// RenderedCount returns how many frames were saved for mode.
func (m *DebugSink) RenderedCount(mode string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.RenderedFrames[mode])
}

var _ ports.DebugSink = (*DebugSink)(nil)

// NullSink is a no-op implementation of ports.DebugSink.
type NullSink struct{}

func (m *NullSink) Enabled() bool                                                   { return false }
func (m *NullSink) SaveAnnotationPreview(img image.Image) error                     { return nil }
func (m *NullSink) SaveStoreJSON(data []byte) error                                 { return nil }
func (m *NullSink) SaveSplitJSON(data []byte) error                                 { return nil }
func (m *NullSink) SaveRenderedFrame(mode string, index int, img image.Image) error { return nil }

var _ ports.DebugSink = (*NullSink)(nil)
