package mocks

import (
	"fmt"
	"image"
	"image/draw"
	"sort"
	"strings"
	"sync"

	"github.com/user/pivotseg/pkg/ports"
)

// ImageIO is an in-memory implementation of ports.ImageIO keyed by path.
type ImageIO struct {
	mu     sync.RWMutex
	images map[string]*image.RGBA

	LoadFunc func(path string) (*image.RGBA, error)
	SaveFunc func(path string, img image.Image) error
}

// NewImageIO creates an empty in-memory ImageIO.
func NewImageIO() *ImageIO {
	return &ImageIO{images: make(map[string]*image.RGBA)}
}

func (m *ImageIO) Load(path string) (*image.RGBA, error) {
	if m.LoadFunc != nil {
		return m.LoadFunc(path)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	img, ok := m.images[path]
	if !ok {
		return nil, fmt.Errorf("image not found: %s", path)
	}
	return cloneRGBA(img), nil
}

func (m *ImageIO) Save(path string, img image.Image) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(path, img)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[path] = cloneRGBA(img)
	return nil
}

// Put stores img at path without copying.
func (m *ImageIO) Put(path string, img *image.RGBA) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[path] = img
}

// Has reports whether an image is stored at path.
func (m *ImageIO) Has(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.images[path]
	return ok
}

// Get returns the stored image without copying.
func (m *ImageIO) Get(path string) (*image.RGBA, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	img, ok := m.images[path]
	return img, ok
}

// PathsIn returns the sorted paths stored directly below dir.
func (m *ImageIO) PathsIn(dir string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix := strings.TrimSuffix(dir, "/") + "/"
	var paths []string
	for p := range m.images {
		if rest, ok := strings.CutPrefix(p, prefix); ok && !strings.Contains(rest, "/") {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}

// Delete removes every image stored below dir.
func (m *ImageIO) Delete(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(dir, "/") + "/"
	for p := range m.images {
		if strings.HasPrefix(p, prefix) {
			delete(m.images, p)
		}
	}
}

var _ ports.ImageIO = (*ImageIO)(nil)

func cloneRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
