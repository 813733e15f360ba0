package mocks

import (
	"image"
	"sync"

	"github.com/user/pivotseg/pkg/mask"
	"github.com/user/pivotseg/pkg/ports"
)

// Renderer is a mock implementation of ports.Renderer.
type Renderer struct {
	mu sync.Mutex

	DrawAnnotationFunc func(frame image.Image, a mask.Annotation) image.Image

	Drawn []mask.Annotation
}

func (m *Renderer) DrawAnnotation(frame image.Image, a mask.Annotation) image.Image {
	m.mu.Lock()
	m.Drawn = append(m.Drawn, a)
	m.mu.Unlock()
	if m.DrawAnnotationFunc != nil {
		return m.DrawAnnotationFunc(frame, a)
	}
	return frame
}

var _ ports.Renderer = (*Renderer)(nil)
