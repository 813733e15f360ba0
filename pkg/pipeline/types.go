package pipeline

import (
	"errors"

	"github.com/user/pivotseg/pkg/mask"
	"github.com/user/pivotseg/pkg/ports"
)

// =============================================================================
// Segments
// =============================================================================

// Direction is the temporal direction of a segment relative to the pivot.
type Direction int

const (
	// Reverse covers the pivot down to frame 0.
	Reverse Direction = iota
	// Forward covers pivot+1 up to the last frame.
	Forward
)

// String returns the string representation of the direction.
func (d Direction) String() string {
	switch d {
	case Reverse:
		return "reverse"
	case Forward:
		return "forward"
	default:
		return "unknown"
	}
}

// Segment is one directional sub-sequence produced by the pivot split.
type Segment struct {
	Direction Direction `json:"direction"`
	Pivot     int       `json:"pivot"`
	Total     int       `json:"total"`    // Frame count of the original video
	Absolute  []int     `json:"absolute"` // Absolute index of each local frame
	VideoPath string    `json:"video_path,omitempty"`
	FrameDir  string    `json:"frame_dir,omitempty"` // Re-extracted local frames
}

// Len returns the number of local frames.
func (s Segment) Len() int {
	return len(s.Absolute)
}

// Empty reports whether the segment has no frames.
func (s Segment) Empty() bool {
	return len(s.Absolute) == 0
}

// =============================================================================
// Split Stage Types
// =============================================================================

// SplitInput contains the extracted original frames and the pivot.
type SplitInput struct {
	FramePaths []string // Original frames in absolute order
	Pivot      int
}

// Releaser is an owned temporary artifact.
type Releaser interface {
	Release() error
}

// SplitResult contains both materialized segments. Temps holds the segment
// videos and frame directories; the caller releases them once the segments
// are consumed.
type SplitResult struct {
	Reverse Segment
	Forward Segment
	Temps   []Releaser `json:"-"`
}

// Release releases every segment temporary. It is safe to call more than
// once.
func (r SplitResult) Release() error {
	var errs []error
	for i := len(r.Temps) - 1; i >= 0; i-- {
		if err := r.Temps[i].Release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Segments returns the segments in reverse, forward order.
func (r SplitResult) Segments() []Segment {
	return []Segment{r.Reverse, r.Forward}
}

// =============================================================================
// Propagate Stage Types
// =============================================================================

// PropagateInput seeds every segment with the same annotation.
type PropagateInput struct {
	Segments   []Segment
	ObjectID   mask.ObjectID
	Annotation mask.Annotation
}

// LocalFrame is the propagated masks for one local frame index.
type LocalFrame struct {
	Index int
	Masks mask.ObjectMasks
}

// SegmentOutput is the fully drained propagation output of one segment.
type SegmentOutput struct {
	Segment Segment
	Frames  []LocalFrame
}

// PropagateResult contains one output per input segment, in input order.
type PropagateResult struct {
	Outputs []SegmentOutput
}

// =============================================================================
// Reconcile Stage Types
// =============================================================================

// ReconcileInput contains everything needed to build the unified store.
type ReconcileInput struct {
	Pivot   int
	Total   int
	Outputs []SegmentOutput
}

// ReconcileResult contains the unified mask store.
type ReconcileResult struct {
	Store *mask.Store
}

// =============================================================================
// Render Stage Types
// =============================================================================

// RenderMode selects a compositor.
type RenderMode int

const (
	ModeColored RenderMode = iota
	ModeSilhouette
	ModeOriginalOnWhite
)

// String returns the string representation of the mode.
func (m RenderMode) String() string {
	switch m {
	case ModeColored:
		return "colored"
	case ModeSilhouette:
		return "silhouette"
	case ModeOriginalOnWhite:
		return "original_on_white"
	default:
		return "unknown"
	}
}

// RenderInput contains the original frames and the store to composite.
type RenderInput struct {
	Mode       RenderMode
	FramePaths []string // Original frames in absolute order
	Store      *mask.Store
	OutputDir  string
	Pattern    string // Output file name pattern, e.g. %05d.jpg
}

// RenderResult describes the rendered frame set.
type RenderResult struct {
	Mode       RenderMode
	FrameDir   string
	FramePaths []string
}

// =============================================================================
// Assemble Stage Types
// =============================================================================

// AssembleInput contains parameters for frames-to-video assembly.
type AssembleInput struct {
	FrameDir   string
	OutputPath string
	Options    ports.AssembleOptions
}

// DefaultAssembleOptions returns the encoding settings used for outputs.
func DefaultAssembleOptions() ports.AssembleOptions {
	return ports.AssembleOptions{
		Framerate:   30,
		Codec:       "libx264",
		PixelFormat: "yuv420p",
		StartNumber: 0,
		Pattern:     ports.DefaultFramePattern,
	}
}

// AssembleResult contains the final output location.
type AssembleResult struct {
	OutputPath string
}
