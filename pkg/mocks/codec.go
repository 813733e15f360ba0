package mocks

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/user/pivotseg/pkg/ports"
)

// AssembleCall records a call to FrameCodec.Assemble.
type AssembleCall struct {
	FrameDir   string
	OutputPath string
	Options    ports.AssembleOptions
}

// AssembleListCall records a call to FrameCodec.AssembleList.
type AssembleListCall struct {
	FramePaths []string
	OutputPath string
	Options    ports.AssembleOptions
}

// FrameCodec is a mock implementation of ports.FrameCodec. A "video" is an
// ordered list of images; frames travel through the shared ImageIO so that
// extraction and assembly behave like their ffmpeg counterparts.
type FrameCodec struct {
	mu     sync.Mutex
	images *ImageIO
	videos map[string][]*image.RGBA

	ExtractFunc      func(ctx context.Context, videoPath, outputDir string, opts ports.ExtractOptions) ([]string, error)
	AssembleFunc     func(ctx context.Context, frameDir, outputPath string, opts ports.AssembleOptions) error
	AssembleListFunc func(ctx context.Context, framePaths []string, outputPath string, opts ports.AssembleOptions) error

	ExtractCalls      []string
	AssembleCalls     []AssembleCall
	AssembleListCalls []AssembleListCall
}

// NewFrameCodec creates a FrameCodec that reads and writes frames through images.
func NewFrameCodec(images *ImageIO) *FrameCodec {
	return &FrameCodec{
		images: images,
		videos: make(map[string][]*image.RGBA),
	}
}

// AddVideo registers frames as the content of videoPath.
func (m *FrameCodec) AddVideo(videoPath string, frames []*image.RGBA) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[videoPath] = frames
}

// Video returns the frames assembled into videoPath.
func (m *FrameCodec) Video(videoPath string) ([]*image.RGBA, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	frames, ok := m.videos[videoPath]
	return frames, ok
}

func (m *FrameCodec) Extract(ctx context.Context, videoPath, outputDir string, opts ports.ExtractOptions) ([]string, error) {
	m.mu.Lock()
	m.ExtractCalls = append(m.ExtractCalls, videoPath)
	frames, ok := m.videos[videoPath]
	m.mu.Unlock()

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, videoPath, outputDir, opts)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("video not found: %s", videoPath)
	}

	pattern := opts.Pattern
	if pattern == "" {
		pattern = ports.DefaultFramePattern
	}
	paths := make([]string, len(frames))
	for i, frame := range frames {
		paths[i] = filepath.Join(outputDir, fmt.Sprintf(pattern, opts.StartNumber+i))
		if err := m.images.Save(paths[i], frame); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

func (m *FrameCodec) Assemble(ctx context.Context, frameDir, outputPath string, opts ports.AssembleOptions) error {
	m.mu.Lock()
	m.AssembleCalls = append(m.AssembleCalls, AssembleCall{FrameDir: frameDir, OutputPath: outputPath, Options: opts})
	m.mu.Unlock()

	if m.AssembleFunc != nil {
		return m.AssembleFunc(ctx, frameDir, outputPath, opts)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	pattern := opts.Pattern
	if pattern == "" {
		pattern = ports.DefaultFramePattern
	}
	var frames []*image.RGBA
	for n := opts.StartNumber; ; n++ {
		img, ok := m.images.Get(filepath.Join(frameDir, fmt.Sprintf(pattern, n)))
		if !ok {
			break
		}
		frames = append(frames, img)
	}
	if len(frames) == 0 {
		return fmt.Errorf("no frames in %s from %d", frameDir, opts.StartNumber)
	}
	m.AddVideo(outputPath, frames)
	return nil
}

func (m *FrameCodec) AssembleList(ctx context.Context, framePaths []string, outputPath string, opts ports.AssembleOptions) error {
	m.mu.Lock()
	m.AssembleListCalls = append(m.AssembleListCalls, AssembleListCall{
		FramePaths: append([]string(nil), framePaths...),
		OutputPath: outputPath,
		Options:    opts,
	})
	m.mu.Unlock()

	if m.AssembleListFunc != nil {
		return m.AssembleListFunc(ctx, framePaths, outputPath, opts)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(framePaths) == 0 {
		return fmt.Errorf("empty frame list")
	}

	frames := make([]*image.RGBA, len(framePaths))
	for i, p := range framePaths {
		img, ok := m.images.Get(p)
		if !ok {
			return fmt.Errorf("frame not found: %s", p)
		}
		frames[i] = img
	}
	m.AddVideo(outputPath, frames)
	return nil
}

var _ ports.FrameCodec = (*FrameCodec)(nil)
