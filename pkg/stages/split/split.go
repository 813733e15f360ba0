// Package split implements the pivot splitter stage.
package split

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/user/pivotseg/pkg/lifecycle"
	"github.com/user/pivotseg/pkg/pipeline"
	"github.com/user/pivotseg/pkg/ports"
)

var (
	// ErrNoFrames is returned when the source video produced no frames.
	ErrNoFrames = errors.New("no frames to split")
	// ErrPivotOutOfRange is returned when the pivot is outside [0, N-1].
	ErrPivotOutOfRange = errors.New("pivot out of range")
	// ErrFrameCountMismatch is returned when a re-extracted segment does
	// not have as many frames as were assembled into it.
	ErrFrameCountMismatch = errors.New("segment frame count mismatch")
)

// ValidatePivot checks pivot against a video of n frames.
func ValidatePivot(n, pivot int) error {
	if n <= 0 {
		return ErrNoFrames
	}
	if pivot < 0 || pivot >= n {
		return fmt.Errorf("%w: pivot %d, valid range [0, %d]", ErrPivotOutOfRange, pivot, n-1)
	}
	return nil
}

// Plan returns the absolute frame indices of the reverse segment
// (pivot down to 0) and the forward segment (pivot+1 up to n-1).
// The forward slice is empty when the pivot is the last frame.
func Plan(n, pivot int) (reverse, forward []int, err error) {
	if err := ValidatePivot(n, pivot); err != nil {
		return nil, nil, err
	}
	reverse = make([]int, 0, pivot+1)
	for i := pivot; i >= 0; i-- {
		reverse = append(reverse, i)
	}
	forward = make([]int, 0, n-pivot-1)
	for i := pivot + 1; i < n; i++ {
		forward = append(forward, i)
	}
	return reverse, forward, nil
}

// Options controls how segments are encoded and re-extracted.
type Options struct {
	Extract  ports.ExtractOptions
	Assemble ports.AssembleOptions
}

// Stage splits the original frames at the pivot and materializes each
// segment as a temporary video, re-extracted into its own frame directory.
type Stage struct {
	codec  ports.FrameCodec
	temps  *lifecycle.Manager
	sink   ports.DebugSink
	logger ports.Logger
	opts   Options
}

// NewStage creates a new split stage.
func NewStage(codec ports.FrameCodec, temps *lifecycle.Manager, sink ports.DebugSink, logger ports.Logger, opts Options) *Stage {
	if opts.Extract.Pattern == "" {
		opts.Extract.Pattern = ports.DefaultFramePattern
	}
	if opts.Assemble.Pattern == "" {
		opts.Assemble.Pattern = opts.Extract.Pattern
	}
	return &Stage{
		codec:  codec,
		temps:  temps,
		sink:   sink,
		logger: logger.WithComponent("split"),
		opts:   opts,
	}
}

// Execute builds both segments. On success the segment temporaries are
// returned in SplitResult.Temps; on failure they are already released.
func (s *Stage) Execute(ctx context.Context, input pipeline.SplitInput) (result pipeline.SplitResult, err error) {
	defer func() {
		if err != nil {
			if rerr := result.Release(); rerr != nil {
				s.logger.Warn("Failed to release segment files: %s", rerr)
			}
			result = pipeline.SplitResult{}
		}
	}()

	n := len(input.FramePaths)
	reverse, forward, err := Plan(n, input.Pivot)
	if err != nil {
		return result, err
	}

	result.Reverse = pipeline.Segment{Direction: pipeline.Reverse, Pivot: input.Pivot, Total: n, Absolute: reverse}
	result.Forward = pipeline.Segment{Direction: pipeline.Forward, Pivot: input.Pivot, Total: n, Absolute: forward}
	s.logger.Debug("Split %d frames at pivot %d: reverse=%d forward=%d", n, input.Pivot, len(reverse), len(forward))

	// Reverse order cannot be expressed with an image2 pattern, so the
	// frames go through a concat list.
	paths := make([]string, len(reverse))
	for i, abs := range reverse {
		paths[i] = input.FramePaths[abs]
	}
	video, err := s.temps.TempFile("reverse.mp4")
	if err != nil {
		return result, err
	}
	result.Temps = append(result.Temps, video)
	if err := s.codec.AssembleList(ctx, paths, video.Path(), s.opts.Assemble); err != nil {
		return result, fmt.Errorf("assemble reverse segment: %w", err)
	}
	result.Reverse.VideoPath = video.Path()
	if err := s.reextract(ctx, &result, &result.Reverse); err != nil {
		return result, err
	}

	if result.Forward.Empty() {
		s.logger.Debug("Pivot is the last frame, forward segment is empty")
	} else {
		video, err := s.temps.TempFile("forward.mp4")
		if err != nil {
			return result, err
		}
		result.Temps = append(result.Temps, video)
		opts := s.opts.Assemble
		opts.Pattern = s.opts.Extract.Pattern
		opts.StartNumber = s.opts.Extract.StartNumber + input.Pivot + 1
		if err := s.codec.Assemble(ctx, filepath.Dir(input.FramePaths[0]), video.Path(), opts); err != nil {
			return result, fmt.Errorf("assemble forward segment: %w", err)
		}
		result.Forward.VideoPath = video.Path()
		if err := s.reextract(ctx, &result, &result.Forward); err != nil {
			return result, err
		}
	}

	if s.sink.Enabled() {
		if data, err := json.MarshalIndent(result, "", "  "); err == nil {
			s.sink.SaveSplitJSON(data)
		}
	}

	return result, nil
}

// reextract decodes a segment video into a fresh directory whose frames
// are numbered from 0 in local order.
func (s *Stage) reextract(ctx context.Context, result *pipeline.SplitResult, seg *pipeline.Segment) error {
	dir, err := s.temps.TempDir(seg.Direction.String() + "-frames")
	if err != nil {
		return err
	}
	result.Temps = append(result.Temps, dir)
	opts := s.opts.Extract
	opts.StartNumber = 0
	frames, err := s.codec.Extract(ctx, seg.VideoPath, dir.Path(), opts)
	if err != nil {
		return fmt.Errorf("extract %s segment: %w", seg.Direction, err)
	}
	if len(frames) != seg.Len() {
		return fmt.Errorf("%w: %s segment has %d frames, want %d", ErrFrameCountMismatch, seg.Direction, len(frames), seg.Len())
	}
	seg.FrameDir = dir.Path()
	return nil
}
