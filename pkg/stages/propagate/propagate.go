package propagate

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/user/pivotseg/pkg/pipeline"
	"github.com/user/pivotseg/pkg/ports"
)

// Observer receives per-segment propagation timings.
type Observer interface {
	ObserveSession(direction string, frames int, elapsed time.Duration)
}

// Stage seeds and drains one session per segment.
type Stage struct {
	segmenter  ports.Segmenter
	logger     ports.Logger
	concurrent bool
	observer   Observer
}

// NewStage creates a new propagate stage. When concurrent is true the
// sessions run in parallel; otherwise they run in input order.
func NewStage(segmenter ports.Segmenter, logger ports.Logger, concurrent bool) *Stage {
	return &Stage{
		segmenter:  segmenter,
		logger:     logger.WithComponent("propagate"),
		concurrent: concurrent,
	}
}

// WithObserver sets the receiver of session timings.
func (s *Stage) WithObserver(o Observer) *Stage {
	s.observer = o
	return s
}

// Execute propagates every segment and returns once all are drained.
func (s *Stage) Execute(ctx context.Context, input pipeline.PropagateInput) (pipeline.PropagateResult, error) {
	if err := input.Annotation.Validate(); err != nil {
		return pipeline.PropagateResult{}, err
	}

	outputs := make([]pipeline.SegmentOutput, len(input.Segments))
	if !s.concurrent {
		for i, seg := range input.Segments {
			out, err := s.run(ctx, seg, input)
			if err != nil {
				return pipeline.PropagateResult{}, err
			}
			outputs[i] = out
		}
		return pipeline.PropagateResult{Outputs: outputs}, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, seg := range input.Segments {
		g.Go(func() error {
			out, err := s.run(gctx, seg, input)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return pipeline.PropagateResult{}, err
	}
	return pipeline.PropagateResult{Outputs: outputs}, nil
}

func (s *Stage) run(ctx context.Context, seg pipeline.Segment, input pipeline.PropagateInput) (out pipeline.SegmentOutput, err error) {
	out.Segment = seg
	if seg.Empty() {
		s.logger.Debug("Skipping empty %s segment", seg.Direction)
		return out, nil
	}

	start := time.Now()
	s.logger.Debug("Propagating %s segment (%d frames)", seg.Direction, seg.Len())

	session, err := Open(ctx, s.segmenter, seg.FrameDir)
	if err != nil {
		return out, fmt.Errorf("open %s session: %w", seg.Direction, err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s session: %w", seg.Direction, cerr)
		}
	}()

	if _, err := session.Seed(ctx, input.ObjectID, input.Annotation); err != nil {
		return out, fmt.Errorf("seed %s session: %w", seg.Direction, err)
	}
	frames, err := session.Drain(ctx)
	if err != nil {
		return out, fmt.Errorf("propagate %s session: %w", seg.Direction, err)
	}
	out.Frames = frames

	elapsed := time.Since(start)
	if s.observer != nil {
		s.observer.ObserveSession(seg.Direction.String(), len(frames), elapsed)
	}
	s.logger.Debug("Propagated %d frames of %s segment in %d ms", len(frames), seg.Direction, elapsed.Milliseconds())
	return out, nil
}
