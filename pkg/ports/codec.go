// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
)

// DefaultFramePattern names extracted frames as zero-padded sequential
// integers. Temporal order is inferred from the number, so every frame
// directory must use a fixed-width pattern.
const DefaultFramePattern = "%05d.jpg"

// ExtractOptions configures video-to-frames extraction.
type ExtractOptions struct {
	Quality     int    // JPEG quality scale passed as -q:v (2-31, lower is better)
	StartNumber int    // Number given to the first extracted frame
	Pattern     string // printf-style file name pattern, e.g. %05d.jpg
}

// AssembleOptions configures frames-to-video assembly.
type AssembleOptions struct {
	Framerate   float64
	Codec       string // e.g. libx264
	PixelFormat string // e.g. yuv420p
	StartNumber int    // First frame number read from the pattern
	Pattern     string
}

// FrameCodec converts between videos and ordered still-image sequences.
// Every call blocks until the external process exits. A non-zero exit is
// returned as an error carrying the captured diagnostics.
type FrameCodec interface {
	// Extract decodes videoPath into outputDir and returns the frame paths
	// in temporal order.
	Extract(ctx context.Context, videoPath, outputDir string, opts ExtractOptions) ([]string, error)

	// Assemble encodes the frames in frameDir matching opts.Pattern,
	// starting at opts.StartNumber, into outputPath.
	Assemble(ctx context.Context, frameDir, outputPath string, opts AssembleOptions) error

	// AssembleList encodes an explicit, ordered list of frame files into
	// outputPath. The list may run in any order relative to the file names.
	AssembleList(ctx context.Context, framePaths []string, outputPath string, opts AssembleOptions) error
}

// VideoInfo describes a video container without decoding it.
type VideoInfo struct {
	FrameCount int
	FrameRate  float64
	Width      int
	Height     int
	Codec      string // h264, hevc, av1, vp9 or empty when unknown
}

// VideoProber reads container metadata in-process.
type VideoProber interface {
	// Probe returns metadata for the video at path.
	Probe(path string) (VideoInfo, error)
}
