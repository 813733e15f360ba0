// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/pivotseg/pkg/ports"
)

// Sink saves debug output to files.
type Sink struct {
	baseDir string
	fs      ports.FileSystem
	images  ports.ImageIO
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, images ports.ImageIO) *Sink {
	return &Sink{
		baseDir: baseDir,
		fs:      fs,
		images:  images,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveAnnotationPreview saves the pivot frame with the prompt drawn on it.
func (s *Sink) SaveAnnotationPreview(img image.Image) error {
	if err := s.fs.MkdirAll(s.baseDir); err != nil {
		return err
	}
	return s.images.Save(filepath.Join(s.baseDir, "annotation.png"), img)
}

// SaveStoreJSON saves the per-frame mask summary.
func (s *Sink) SaveStoreJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "store.json"), data)
}

// SaveSplitJSON saves the segment layout.
func (s *Sink) SaveSplitJSON(data []byte) error {
	return s.fs.WriteFile(filepath.Join(s.baseDir, "split.json"), data)
}

// SaveRenderedFrame saves one rendered frame under frames/<mode>.
func (s *Sink) SaveRenderedFrame(mode string, index int, img image.Image) error {
	dir := filepath.Join(s.baseDir, "frames", mode)
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	path := filepath.Join(dir, fmt.Sprintf("frame-%05d.png", index))
	if err := s.images.Save(path, img); err != nil {
		return fmt.Errorf("save %s frame: %w", mode, err)
	}
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
