// Package summarizer builds human-readable reports of segmentation runs.
package summarizer

import "time"

// Summary contains all data collected during a segmentation run.
type Summary struct {
	GeneratedAt time.Time

	Video    VideoInfo
	Prompt   PromptInfo
	Segments []SegmentInfo
	Stages   []StageTiming
	Outputs  []OutputInfo
	Settings Settings
}

// VideoInfo describes the input video.
type VideoInfo struct {
	Path       string
	FrameCount int
	Width      int
	Height     int
	FrameRate  float64 // 0 when unknown
	Codec      string
}

// PromptInfo describes the seed annotation.
type PromptInfo struct {
	Kind     string // points or box
	Pivot    int
	Points   int    // Number of points for point prompts
	Box      string // "x1,y1,x2,y2" for box prompts
	ObjectID int
}

// SegmentInfo describes one directional segment. First and Last are
// absolute frame indices in propagation order.
type SegmentInfo struct {
	Direction string
	Frames    int
	First     int
	Last      int
}

// StageTiming is the wall time of one stage.
type StageTiming struct {
	Stage      string
	DurationMs int64
}

// OutputInfo describes a produced artifact.
type OutputInfo struct {
	Kind     string // colored, silhouette, original_on_white, removed
	Path     string
	FileSize int64 // 0 for frame directories
}

// Settings contains the run configuration worth reporting.
type Settings struct {
	ConcurrentSessions bool
	Workers            int
	Device             string
	Codec              string
	Framerate          float64
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithVideo sets input video information.
func (b *Builder) WithVideo(video VideoInfo) *Builder {
	b.summary.Video = video
	return b
}

// WithPrompt sets the seed annotation.
func (b *Builder) WithPrompt(prompt PromptInfo) *Builder {
	b.summary.Prompt = prompt
	return b
}

// AddSegment appends a segment. Empty segments are skipped.
func (b *Builder) AddSegment(direction string, absolute []int) *Builder {
	if len(absolute) == 0 {
		return b
	}
	b.summary.Segments = append(b.summary.Segments, SegmentInfo{
		Direction: direction,
		Frames:    len(absolute),
		First:     absolute[0],
		Last:      absolute[len(absolute)-1],
	})
	return b
}

// AddStage appends a stage timing.
func (b *Builder) AddStage(stage string, d time.Duration) *Builder {
	b.summary.Stages = append(b.summary.Stages, StageTiming{
		Stage:      stage,
		DurationMs: d.Milliseconds(),
	})
	return b
}

// AddOutput appends an output artifact.
func (b *Builder) AddOutput(kind, path string, size int64) *Builder {
	b.summary.Outputs = append(b.summary.Outputs, OutputInfo{
		Kind:     kind,
		Path:     path,
		FileSize: size,
	})
	return b
}

// WithSettings sets run settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
