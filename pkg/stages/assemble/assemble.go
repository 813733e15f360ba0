// Package assemble encodes a rendered frame set into a video.
package assemble

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/user/pivotseg/pkg/pipeline"
	"github.com/user/pivotseg/pkg/ports"
)

// maxSuffix bounds the search for a free output name.
const maxSuffix = 10000

// UniqueOutputPath returns path, or path with _1, _2, ... inserted before
// the extension when a file already exists there.
func UniqueOutputPath(fs ports.FileSystem, path string) (string, error) {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	candidate := path
	for i := 1; ; i++ {
		exists, err := fs.Exists(candidate)
		if err != nil {
			return "", fmt.Errorf("check output path: %w", err)
		}
		if !exists {
			return candidate, nil
		}
		if i > maxSuffix {
			return "", fmt.Errorf("no free output name for %s", path)
		}
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
}

// Stage assembles frames into a video without overwriting existing files.
type Stage struct {
	codec  ports.FrameCodec
	fs     ports.FileSystem
	logger ports.Logger
}

// NewStage creates a new assemble stage.
func NewStage(codec ports.FrameCodec, fs ports.FileSystem, logger ports.Logger) *Stage {
	return &Stage{
		codec:  codec,
		fs:     fs,
		logger: logger.WithComponent("assemble"),
	}
}

// Execute encodes input.FrameDir into a free path derived from input.OutputPath.
func (s *Stage) Execute(ctx context.Context, input pipeline.AssembleInput) (pipeline.AssembleResult, error) {
	out, err := UniqueOutputPath(s.fs, input.OutputPath)
	if err != nil {
		return pipeline.AssembleResult{}, err
	}
	if out != input.OutputPath {
		s.logger.Debug("%s exists, writing %s instead", input.OutputPath, out)
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := s.fs.MkdirAll(dir); err != nil {
			return pipeline.AssembleResult{}, fmt.Errorf("create output dir: %w", err)
		}
	}

	opts := input.Options
	if opts.Pattern == "" {
		opts.Pattern = ports.DefaultFramePattern
	}
	s.logger.Debug("Encoding %s at %.1f fps with %s", input.FrameDir, opts.Framerate, opts.Codec)
	if err := s.codec.Assemble(ctx, input.FrameDir, out, opts); err != nil {
		return pipeline.AssembleResult{}, err
	}
	return pipeline.AssembleResult{OutputPath: out}, nil
}
