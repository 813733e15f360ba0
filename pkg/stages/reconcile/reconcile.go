// Package reconcile maps segment-local frame indices back onto the
// original timeline and merges them into one mask store.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/user/pivotseg/pkg/mask"
	"github.com/user/pivotseg/pkg/pipeline"
	"github.com/user/pivotseg/pkg/ports"
)

var (
	// ErrPropagationUnderrun is returned when some absolute frame received
	// no masks.
	ErrPropagationUnderrun = errors.New("propagation under-ran its segment")
	// ErrDuplicateFrame is returned when two local frames map to the same
	// absolute index.
	ErrDuplicateFrame = mask.ErrDuplicateFrame
	// ErrIndexOutOfRange is returned when a local index maps outside the
	// original timeline.
	ErrIndexOutOfRange = errors.New("frame index out of range")
)

// AbsoluteIndex converts a local index of a segment split at pivot.
func AbsoluteIndex(d pipeline.Direction, pivot, local int) int {
	if d == pipeline.Reverse {
		return pivot - local
	}
	return pivot + local + 1
}

// LocalIndex is the inverse of AbsoluteIndex.
func LocalIndex(d pipeline.Direction, pivot, absolute int) int {
	if d == pipeline.Reverse {
		return pivot - absolute
	}
	return absolute - pivot - 1
}

// Reconcile builds the unified store and checks that it covers exactly
// [0, total-1] with masks of a single size.
func Reconcile(input pipeline.ReconcileInput) (*mask.Store, error) {
	store := mask.NewStore()
	width, height := -1, -1

	for _, out := range input.Outputs {
		dir := out.Segment.Direction
		for _, f := range out.Frames {
			abs := AbsoluteIndex(dir, input.Pivot, f.Index)
			if abs < 0 || abs >= input.Total || !inSegment(dir, input.Pivot, abs) {
				return nil, fmt.Errorf("%w: %s local %d maps to %d", ErrIndexOutOfRange, dir, f.Index, abs)
			}
			for _, id := range f.Masks.IDs() {
				m := f.Masks[id]
				if width < 0 {
					width, height = m.Width, m.Height
				}
				if err := m.CheckSize(width, height); err != nil {
					return nil, fmt.Errorf("frame %d object %d: %w", abs, id, err)
				}
			}
			if err := store.Put(abs, f.Masks); err != nil {
				return nil, fmt.Errorf("%s local %d: %w", dir, f.Index, err)
			}
		}
	}

	if missing := store.Missing(input.Total); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %d of %d frames missing, first %d", ErrPropagationUnderrun, len(missing), input.Total, missing[0])
	}
	return store, nil
}

// inSegment reports whether abs belongs to the segment on the given side.
func inSegment(d pipeline.Direction, pivot, abs int) bool {
	if d == pipeline.Reverse {
		return abs <= pivot
	}
	return abs > pivot
}

// Stage wraps Reconcile for the pipeline.
type Stage struct {
	sink   ports.DebugSink
	logger ports.Logger
}

// NewStage creates a new reconcile stage.
func NewStage(sink ports.DebugSink, logger ports.Logger) *Stage {
	return &Stage{
		sink:   sink,
		logger: logger.WithComponent("reconcile"),
	}
}

// Execute reconciles the propagated outputs.
func (s *Stage) Execute(ctx context.Context, input pipeline.ReconcileInput) (pipeline.ReconcileResult, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.ReconcileResult{}, err
	}

	store, err := Reconcile(input)
	if err != nil {
		return pipeline.ReconcileResult{}, err
	}
	s.logger.Debug("Reconciled %d frames around pivot %d", store.Len(), input.Pivot)

	if s.sink.Enabled() {
		if data, err := json.MarshalIndent(store.Summarize(), "", "  "); err == nil {
			s.sink.SaveStoreJSON(data)
		}
	}
	return pipeline.ReconcileResult{Store: store}, nil
}
