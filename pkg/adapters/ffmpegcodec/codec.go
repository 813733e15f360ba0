// Package ffmpegcodec implements ports.FrameCodec with the ffmpeg CLI.
package ffmpegcodec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/user/pivotseg/pkg/ports"
)

// Codec runs ffmpeg as a blocking external process. Once started, an
// invocation runs to completion; the context is only checked before launch.
type Codec struct {
	ffmpegPath string
	logger     ports.Logger
}

// New creates a Codec using the given ffmpeg executable path.
func New(ffmpegPath string, logger ports.Logger) *Codec {
	return &Codec{
		ffmpegPath: ffmpegPath,
		logger:     logger.WithComponent("ffmpeg"),
	}
}

// Extract decodes videoPath into numbered frames inside outputDir.
func (c *Codec) Extract(ctx context.Context, videoPath, outputDir string, opts ports.ExtractOptions) ([]string, error) {
	opts = normalizeExtract(opts)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create frame dir: %w", err)
	}

	if err := c.run(ctx, extractArgs(videoPath, outputDir, opts)); err != nil {
		return nil, err
	}

	frames, err := ListFrames(outputDir, filepath.Ext(opts.Pattern))
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFrames, videoPath)
	}
	c.logger.Debug("Extracted %d frames from %s", len(frames), filepath.Base(videoPath))
	return frames, nil
}

// Assemble encodes the numbered frames in frameDir into outputPath.
func (c *Codec) Assemble(ctx context.Context, frameDir, outputPath string, opts ports.AssembleOptions) error {
	opts = normalizeAssemble(opts)
	if err := ensureParent(outputPath); err != nil {
		return err
	}
	if err := c.run(ctx, assembleArgs(frameDir, outputPath, opts)); err != nil {
		return err
	}
	c.logger.Debug("Assembled %s from %s", filepath.Base(outputPath), frameDir)
	return nil
}

// AssembleList encodes framePaths, in the given order, into outputPath
// through the concat demuxer. Every listed image becomes exactly one frame
// of the output.
func (c *Codec) AssembleList(ctx context.Context, framePaths []string, outputPath string, opts ports.AssembleOptions) error {
	if len(framePaths) == 0 {
		return fmt.Errorf("assemble list: %w", ErrNoFrames)
	}
	opts = normalizeAssemble(opts)
	if err := ensureParent(outputPath); err != nil {
		return err
	}

	listPath := outputPath + ".txt"
	if err := os.WriteFile(listPath, []byte(ConcatList(framePaths, opts.Framerate)), 0644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	defer os.Remove(listPath)

	if err := c.run(ctx, concatArgs(listPath, outputPath, opts)); err != nil {
		return err
	}
	c.logger.Debug("Assembled %s from %d listed frames", filepath.Base(outputPath), len(framePaths))
	return nil
}

func (c *Codec) run(ctx context.Context, args []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd := exec.Command(c.ffmpegPath, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &ProcessError{
			Args:     args,
			ExitCode: exitCode,
			Stderr:   tail(stderr.String(), maxStderrBytes),
			Err:      err,
		}
	}
	return nil
}

func extractArgs(videoPath, outputDir string, opts ports.ExtractOptions) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-fps_mode", "passthrough",
		"-q:v", strconv.Itoa(opts.Quality),
		"-start_number", strconv.Itoa(opts.StartNumber),
		filepath.Join(outputDir, opts.Pattern),
	}
}

func assembleArgs(frameDir, outputPath string, opts ports.AssembleOptions) []string {
	return []string{
		"-y",
		"-framerate", formatRate(opts.Framerate),
		"-start_number", strconv.Itoa(opts.StartNumber),
		"-i", filepath.Join(frameDir, opts.Pattern),
		"-c:v", opts.Codec,
		"-pix_fmt", opts.PixelFormat,
		outputPath,
	}
}

func concatArgs(listPath, outputPath string, opts ports.AssembleOptions) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-fps_mode", "passthrough",
		"-c:v", opts.Codec,
		"-pix_fmt", opts.PixelFormat,
		outputPath,
	}
}

// ConcatList renders an ffmpeg concat demuxer script for framePaths, each
// shown for 1/fps seconds. Paths are made absolute so the list can live
// anywhere. The last file is listed once; passthrough timing would turn a
// repeat into an extra frame.
func ConcatList(framePaths []string, fps float64) string {
	if fps <= 0 {
		fps = 30
	}
	duration := strconv.FormatFloat(1/fps, 'f', 6, 64)

	var b strings.Builder
	for _, p := range framePaths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		// Inside single quotes a quote is written as '\''.
		p = strings.ReplaceAll(filepath.ToSlash(p), "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\nduration %s\n", p, duration)
	}
	return b.String()
}

// ListFrames returns the numerically named files with extension ext in dir,
// sorted by their number.
func ListFrames(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame dir: %w", err)
	}

	type numbered struct {
		n    int
		path string
	}
	var frames []numbered
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.EqualFold(filepath.Ext(name), ext) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(name, filepath.Ext(name)))
		if err != nil {
			continue
		}
		frames = append(frames, numbered{n: n, path: filepath.Join(dir, name)})
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].n < frames[j].n })

	paths := make([]string, len(frames))
	for i, f := range frames {
		paths[i] = f.path
	}
	return paths, nil
}

func normalizeExtract(opts ports.ExtractOptions) ports.ExtractOptions {
	if opts.Quality <= 0 {
		opts.Quality = 2
	}
	if opts.Pattern == "" {
		opts.Pattern = ports.DefaultFramePattern
	}
	return opts
}

func normalizeAssemble(opts ports.AssembleOptions) ports.AssembleOptions {
	if opts.Framerate <= 0 {
		opts.Framerate = 30
	}
	if opts.Codec == "" {
		opts.Codec = "libx264"
	}
	if opts.PixelFormat == "" {
		opts.PixelFormat = "yuv420p"
	}
	if opts.Pattern == "" {
		opts.Pattern = ports.DefaultFramePattern
	}
	return opts
}

func formatRate(fps float64) string {
	return strconv.FormatFloat(fps, 'f', -1, 64)
}

func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

// Ensure Codec implements ports.FrameCodec
var _ ports.FrameCodec = (*Codec)(nil)
