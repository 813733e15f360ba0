// Package orchestrator coordinates the pivot segmentation pipeline.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/user/pivotseg/pkg/lifecycle"
	"github.com/user/pivotseg/pkg/mask"
	"github.com/user/pivotseg/pkg/metrics"
	"github.com/user/pivotseg/pkg/pipeline"
	"github.com/user/pivotseg/pkg/ports"
	"github.com/user/pivotseg/pkg/stages/assemble"
	"github.com/user/pivotseg/pkg/stages/composite"
	"github.com/user/pivotseg/pkg/stages/propagate"
	"github.com/user/pivotseg/pkg/stages/reconcile"
	"github.com/user/pivotseg/pkg/stages/split"
)

var (
	// ErrInputNotFound is returned when the input video does not exist.
	ErrInputNotFound = errors.New("input video not found")
	// ErrNotSegmented is returned when a render is requested without a
	// completed segmentation.
	ErrNotSegmented = errors.New("no segmentation result")
	// ErrRemoverNotConfigured is returned by RemoveObject when no
	// ObjectRemover was supplied.
	ErrRemoverNotConfigured = errors.New("object remover not configured")
)

// Config holds orchestrator configuration.
type Config struct {
	InputPath string
	OutputDir string // Defaults to the directory of InputPath
	WorkDir   string // Parent of the per-run temporary root

	Extract  ports.ExtractOptions
	Assemble ports.AssembleOptions

	ObjectID           mask.ObjectID
	Palette            composite.Palette
	Workers            int
	ConcurrentSessions bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		WorkDir: os.TempDir(),
		Extract: ports.ExtractOptions{
			Quality:     2,
			StartNumber: 0,
			Pattern:     ports.DefaultFramePattern,
		},
		Assemble: pipeline.DefaultAssembleOptions(),
		ObjectID: 1,
		Palette:  composite.DefaultPalette,
		Workers:  0,
	}
}

// Dependencies holds the adapters the orchestrator drives. Prober, Remover
// and Metrics are optional.
type Dependencies struct {
	FileSystem ports.FileSystem
	Codec      ports.FrameCodec
	Prober     ports.VideoProber
	Segmenter  ports.Segmenter
	Remover    ports.ObjectRemover
	Images     ports.ImageIO
	Renderer   ports.Renderer
	Sink       ports.DebugSink
	Logger     ports.Logger
	Metrics    *metrics.Metrics
}

// StageTiming records how long one stage of a run took.
type StageTiming struct {
	Stage    string
	Duration time.Duration
}

// Result is the outcome of a segmentation. It stays valid until Cleanup.
type Result struct {
	Prompt     string
	Pivot      int
	FrameCount int
	Annotation mask.Annotation
	Split      pipeline.SplitResult
	Store      *mask.Store
	Timings    []StageTiming

	framePaths []string
	generation int
}

// Orchestrator coordinates the segmentation stages.
type Orchestrator struct {
	cfg     Config
	fs      ports.FileSystem
	codec   ports.FrameCodec
	prober  ports.VideoProber
	remover ports.ObjectRemover
	images  ports.ImageIO
	render  ports.Renderer
	sink    ports.DebugSink
	logger  ports.Logger
	metrics *metrics.Metrics
	temps   *lifecycle.Manager

	split     pipeline.Stage[pipeline.SplitInput, pipeline.SplitResult]
	propagate pipeline.Stage[pipeline.PropagateInput, pipeline.PropagateResult]
	reconcile pipeline.Stage[pipeline.ReconcileInput, pipeline.ReconcileResult]
	composite pipeline.Stage[pipeline.RenderInput, pipeline.RenderResult]
	assemble  pipeline.Stage[pipeline.AssembleInput, pipeline.AssembleResult]

	mu         sync.Mutex
	frames     []string // Original frames, extracted once per run
	generation int      // Incremented by Cleanup
}

// New creates an Orchestrator and its stages.
func New(deps Dependencies, cfg Config) *Orchestrator {
	if cfg.Extract.Pattern == "" {
		cfg.Extract.Pattern = ports.DefaultFramePattern
	}
	if cfg.Assemble.Pattern == "" {
		cfg.Assemble.Pattern = cfg.Extract.Pattern
	}
	if cfg.ObjectID == 0 {
		cfg.ObjectID = 1
	}
	if len(cfg.Palette) == 0 {
		cfg.Palette = composite.DefaultPalette
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}

	temps := lifecycle.New(deps.FileSystem, cfg.WorkDir, deps.Logger)
	prop := propagate.NewStage(deps.Segmenter, deps.Logger, cfg.ConcurrentSessions)
	if deps.Metrics != nil {
		prop = prop.WithObserver(deps.Metrics)
	}

	return &Orchestrator{
		cfg:     cfg,
		fs:      deps.FileSystem,
		codec:   deps.Codec,
		prober:  deps.Prober,
		remover: deps.Remover,
		images:  deps.Images,
		render:  deps.Renderer,
		sink:    deps.Sink,
		logger:  deps.Logger,
		metrics: deps.Metrics,
		temps:   temps,

		split: split.NewStage(deps.Codec, temps, deps.Sink, deps.Logger, split.Options{
			Extract:  cfg.Extract,
			Assemble: cfg.Assemble,
		}),
		propagate: prop,
		reconcile: reconcile.NewStage(deps.Sink, deps.Logger),
		composite: composite.NewStage(deps.Images, deps.Sink, deps.Logger, cfg.Palette, cfg.Workers),
		assemble:  assemble.NewStage(deps.Codec, deps.FileSystem, deps.Logger),
	}
}

// RunID returns the identifier of this run's temporary root.
func (o *Orchestrator) RunID() string {
	return o.temps.RunID()
}

// SegmentWithPoints segments the object marked by labeled points on the
// pivot frame. Label 1 marks foreground, 0 background.
func (o *Orchestrator) SegmentWithPoints(ctx context.Context, points [][2]float64, labels []int, pivot int) (*Result, error) {
	a, err := mask.NewPoints(points, labels)
	if err != nil {
		o.metrics.IncRun("points", false)
		return nil, err
	}
	return o.segment(ctx, "points", a, pivot)
}

// SegmentWithBox segments the object inside box on the pivot frame.
func (o *Orchestrator) SegmentWithBox(ctx context.Context, box mask.Box, pivot int) (*Result, error) {
	a, err := mask.NewBox(box)
	if err != nil {
		o.metrics.IncRun("box", false)
		return nil, err
	}
	return o.segment(ctx, "box", a, pivot)
}

func (o *Orchestrator) segment(ctx context.Context, prompt string, a mask.Annotation, pivot int) (*Result, error) {
	res, err := o.runSegment(ctx, prompt, a, pivot)
	o.metrics.IncRun(prompt, err == nil)
	if err != nil {
		o.logger.Error("Segmentation failed: %s", err)
		return nil, err
	}
	o.logger.Info("Segmentation completed: %d frames", res.FrameCount)
	return res, nil
}

func (o *Orchestrator) runSegment(ctx context.Context, prompt string, a mask.Annotation, pivot int) (*Result, error) {
	if err := o.checkInput(pivot); err != nil {
		return nil, err
	}
	o.logger.Info("Segmenting %s with %s prompt at pivot %d", o.cfg.InputPath, prompt, pivot)

	res := &Result{Prompt: prompt, Pivot: pivot, Annotation: a}

	// 1. Extract original frames
	o.logger.Info("Extracting frames...")
	var frames []string
	if err := o.timed(res, "extract", func() error {
		var err error
		frames, err = o.originalFrames(ctx)
		return err
	}); err != nil {
		return nil, fmt.Errorf("extract stage: %w", err)
	}
	if err := split.ValidatePivot(len(frames), pivot); err != nil {
		return nil, err
	}
	res.FrameCount = len(frames)
	res.framePaths = frames
	res.generation = o.currentGeneration()
	o.metrics.SetVideoFrames(len(frames))
	o.logger.Info("Extracted %d frames", len(frames))

	if err := o.checkAnnotation(frames[pivot], a); err != nil {
		return nil, err
	}

	// 2. Split at the pivot
	o.logger.Info("Splitting at frame %d...", pivot)
	var splitResult pipeline.SplitResult
	if err := o.timed(res, "split", func() error {
		var err error
		splitResult, err = o.split.Execute(ctx, pipeline.SplitInput{FramePaths: frames, Pivot: pivot})
		return err
	}); err != nil {
		return nil, fmt.Errorf("split stage: %w", err)
	}
	res.Split = splitResult
	// Segments are consumed by reconciliation; only the store outlives them.
	defer func() {
		if err := splitResult.Release(); err != nil {
			o.logger.Warn("Failed to release segment files: %s", err)
		}
	}()
	o.logger.Info("Reverse segment: %d frames, forward segment: %d frames", splitResult.Reverse.Len(), splitResult.Forward.Len())

	// 3. Propagate in both directions
	o.logger.Info("Propagating masks...")
	var propResult pipeline.PropagateResult
	if err := o.timed(res, "propagate", func() error {
		var err error
		propResult, err = o.propagate.Execute(ctx, pipeline.PropagateInput{
			Segments:   splitResult.Segments(),
			ObjectID:   o.cfg.ObjectID,
			Annotation: a,
		})
		return err
	}); err != nil {
		return nil, fmt.Errorf("propagate stage: %w", err)
	}

	// 4. Reconcile into absolute order
	var recResult pipeline.ReconcileResult
	if err := o.timed(res, "reconcile", func() error {
		var err error
		recResult, err = o.reconcile.Execute(ctx, pipeline.ReconcileInput{
			Pivot:   pivot,
			Total:   len(frames),
			Outputs: propResult.Outputs,
		})
		return err
	}); err != nil {
		return nil, fmt.Errorf("reconcile stage: %w", err)
	}
	res.Store = recResult.Store

	return res, nil
}

func (o *Orchestrator) checkInput(pivot int) error {
	if o.cfg.InputPath == "" {
		return ErrInputNotFound
	}
	ok, err := o.fs.Exists(o.cfg.InputPath)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrInputNotFound, o.cfg.InputPath)
	}
	if pivot < 0 {
		return fmt.Errorf("%w: pivot %d", split.ErrPivotOutOfRange, pivot)
	}
	if o.prober == nil {
		return nil
	}
	info, err := o.prober.Probe(o.cfg.InputPath)
	if err != nil {
		o.logger.Debug("Probe failed, validating pivot after extraction: %s", err)
		return nil
	}
	if info.FrameCount > 0 {
		return split.ValidatePivot(info.FrameCount, pivot)
	}
	return nil
}

func (o *Orchestrator) checkAnnotation(pivotFrame string, a mask.Annotation) error {
	img, err := o.images.Load(pivotFrame)
	if err != nil {
		return fmt.Errorf("load pivot frame: %w", err)
	}
	b := img.Bounds()
	if err := a.CheckBounds(b.Dx(), b.Dy()); err != nil {
		return err
	}
	if o.sink.Enabled() && o.render != nil {
		if err := o.sink.SaveAnnotationPreview(o.render.DrawAnnotation(img, a)); err != nil {
			o.logger.Warn("Failed to save annotation preview: %s", err)
		}
	}
	return nil
}

func (o *Orchestrator) originalFrames(ctx context.Context) ([]string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.frames != nil {
		return o.frames, nil
	}
	dir, err := o.temps.TempDir("frames")
	if err != nil {
		return nil, err
	}
	frames, err := o.codec.Extract(ctx, o.cfg.InputPath, dir.Path(), o.cfg.Extract)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, split.ErrNoFrames
	}
	o.frames = frames
	return frames, nil
}

func (o *Orchestrator) currentGeneration() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generation
}

func (o *Orchestrator) timed(res *Result, stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	d := time.Since(start)
	if err == nil {
		res.Timings = append(res.Timings, StageTiming{Stage: stage, Duration: d})
		o.metrics.ObserveStage(stage, d)
	}
	return err
}

// RenderColored overlays the masks on the original frames and assembles the
// result into a video next to the input. The path of the new video is
// returned; an existing file is never overwritten.
func (o *Orchestrator) RenderColored(ctx context.Context, res *Result) (string, error) {
	return o.RenderVideo(ctx, res, pipeline.ModeColored)
}

// RenderVideo renders frames with mode and assembles them into
// <stem>_<suffix> in the output directory, where suffix is "segmented" for
// the colored overlay and the mode name otherwise.
func (o *Orchestrator) RenderVideo(ctx context.Context, res *Result, mode pipeline.RenderMode) (string, error) {
	rendered, err := o.renderFrames(ctx, res, mode)
	if err != nil {
		return "", err
	}

	suffix := mode.String()
	if mode == pipeline.ModeColored {
		suffix = "segmented"
	}
	opts := o.cfg.Assemble
	opts.StartNumber = 0
	opts.Pattern = o.cfg.Extract.Pattern

	o.logger.Info("Assembling video...")
	var out pipeline.AssembleResult
	if err := o.timed(res, "assemble_"+mode.String(), func() error {
		var err error
		out, err = o.assemble.Execute(ctx, pipeline.AssembleInput{
			FrameDir:   rendered.FrameDir,
			OutputPath: o.outputPath(suffix),
			Options:    opts,
		})
		return err
	}); err != nil {
		o.logger.Error("Failed to assemble video: %s", err)
		return "", fmt.Errorf("assemble stage: %w", err)
	}
	o.logger.Info("Output written to %s", out.OutputPath)
	return out.OutputPath, nil
}

// RenderSilhouette renders white-on-black mask frames and returns their
// directory. The directory is removed by Cleanup.
func (o *Orchestrator) RenderSilhouette(ctx context.Context, res *Result) (string, error) {
	rendered, err := o.renderFrames(ctx, res, pipeline.ModeSilhouette)
	if err != nil {
		return "", err
	}
	return rendered.FrameDir, nil
}

// RenderOriginalOnWhite renders the masked object over a white background
// and returns the frame directory. The directory is removed by Cleanup.
func (o *Orchestrator) RenderOriginalOnWhite(ctx context.Context, res *Result) (string, error) {
	rendered, err := o.renderFrames(ctx, res, pipeline.ModeOriginalOnWhite)
	if err != nil {
		return "", err
	}
	return rendered.FrameDir, nil
}

// RemoveObject erases the segmented object from the input video using the
// configured ObjectRemover and returns the path of the new video.
func (o *Orchestrator) RemoveObject(ctx context.Context, res *Result) (string, error) {
	if o.remover == nil {
		return "", ErrRemoverNotConfigured
	}
	maskDir, err := o.RenderSilhouette(ctx, res)
	if err != nil {
		return "", err
	}

	outputPath, err := assemble.UniqueOutputPath(o.fs, o.outputPath("removed"))
	if err != nil {
		return "", err
	}
	o.logger.Info("Removing object...")
	if err := o.timed(res, "remove", func() error {
		return o.remover.Remove(ctx, o.cfg.InputPath, maskDir, outputPath)
	}); err != nil {
		o.logger.Error("Object removal failed: %s", err)
		return "", fmt.Errorf("remove stage: %w", err)
	}
	o.logger.Info("Output written to %s", outputPath)
	return outputPath, nil
}

func (o *Orchestrator) renderFrames(ctx context.Context, res *Result, mode pipeline.RenderMode) (pipeline.RenderResult, error) {
	if res == nil || res.Store == nil || len(res.framePaths) == 0 {
		return pipeline.RenderResult{}, ErrNotSegmented
	}
	if res.generation != o.currentGeneration() {
		return pipeline.RenderResult{}, fmt.Errorf("%w: frames were removed by Cleanup", ErrNotSegmented)
	}
	dir, err := o.temps.TempDir(mode.String())
	if err != nil {
		return pipeline.RenderResult{}, err
	}

	o.logger.Info("Rendering %s frames...", mode.String())
	var rendered pipeline.RenderResult
	if err := o.timed(res, "render_"+mode.String(), func() error {
		var err error
		rendered, err = o.composite.Execute(ctx, pipeline.RenderInput{
			Mode:       mode,
			FramePaths: res.framePaths,
			Store:      res.Store,
			OutputDir:  dir.Path(),
			Pattern:    o.cfg.Extract.Pattern,
		})
		return err
	}); err != nil {
		o.logger.Error("Failed to render frames: %s", err)
		return pipeline.RenderResult{}, fmt.Errorf("composite stage: %w", err)
	}
	o.metrics.AddRendered(mode.String(), len(rendered.FramePaths))
	return rendered, nil
}

// outputPath returns <OutputDir>/<input stem>_<suffix><ext>.
func (o *Orchestrator) outputPath(suffix string) string {
	dir := o.cfg.OutputDir
	if dir == "" {
		dir = filepath.Dir(o.cfg.InputPath)
	}
	base := filepath.Base(o.cfg.InputPath)
	ext := filepath.Ext(base)
	if ext == "" {
		ext = ".mp4"
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+"_"+suffix+ext)
}

// Cleanup removes every temporary file and directory created by this
// orchestrator. Results obtained earlier can no longer be rendered. It is
// safe to call more than once.
func (o *Orchestrator) Cleanup() error {
	o.mu.Lock()
	o.frames = nil
	o.generation++
	o.mu.Unlock()
	if err := o.temps.Cleanup(); err != nil {
		o.logger.Warn("Cleanup incomplete: %s", err)
		return err
	}
	return nil
}
