// Package composite renders the unified mask store over the original frames.
package composite

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/user/pivotseg/pkg/mask"
	"github.com/user/pivotseg/pkg/pipeline"
	"github.com/user/pivotseg/pkg/ports"
)

// Stage renders every frame of a run in one compositor mode.
type Stage struct {
	images     ports.ImageIO
	sink       ports.DebugSink
	logger     ports.Logger
	palette    Palette
	numWorkers int
}

// NewStage creates a new composite stage.
func NewStage(images ports.ImageIO, sink ports.DebugSink, logger ports.Logger, palette Palette, numWorkers int) *Stage {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return &Stage{
		images:     images,
		sink:       sink,
		logger:     logger.WithComponent("composite"),
		palette:    palette,
		numWorkers: numWorkers,
	}
}

// Render applies mode to a single frame.
func (s *Stage) Render(mode pipeline.RenderMode, frame *image.RGBA, masks mask.ObjectMasks) (*image.RGBA, error) {
	switch mode {
	case pipeline.ModeColored:
		return Colored(frame, masks, s.palette)
	case pipeline.ModeSilhouette:
		return Silhouette(frame, masks)
	case pipeline.ModeOriginalOnWhite:
		return OriginalOnWhite(frame, masks)
	default:
		return nil, fmt.Errorf("unknown render mode %d", mode)
	}
}

// Execute renders all frames into input.OutputDir.
func (s *Stage) Execute(ctx context.Context, input pipeline.RenderInput) (pipeline.RenderResult, error) {
	result := pipeline.RenderResult{Mode: input.Mode, FrameDir: input.OutputDir}
	if input.Store == nil {
		return result, fmt.Errorf("no mask store")
	}
	if input.Store.Len() != len(input.FramePaths) {
		return result, fmt.Errorf("store has %d frames, video has %d", input.Store.Len(), len(input.FramePaths))
	}
	if len(input.FramePaths) == 0 {
		result.FramePaths = []string{}
		return result, nil
	}
	if input.Pattern == "" {
		input.Pattern = ports.DefaultFramePattern
	}

	s.logger.Debug("Rendering %d %s frames with %d workers", len(input.FramePaths), input.Mode, s.numWorkers)

	paths, err := s.executeParallel(ctx, input)
	if err != nil {
		return result, err
	}
	result.FramePaths = paths

	s.logger.Debug("Rendering completed")
	return result, nil
}

// indexedFrame holds a rendered frame with its absolute index for sorting.
type indexedFrame struct {
	index int
	path  string
	image image.Image
}

// executeParallel renders frames using a worker pool.
func (s *Stage) executeParallel(ctx context.Context, input pipeline.RenderInput) ([]string, error) {
	numFrames := len(input.FramePaths)
	jobs := make(chan int, numFrames)
	results := make(chan indexedFrame, numFrames)
	errChan := make(chan error, s.numWorkers)

	var wg sync.WaitGroup
	for w := 0; w < s.numWorkers; w++ {
		wg.Add(1)
		go s.worker(ctx, &wg, input, jobs, results, errChan)
	}

	for i := 0; i < numFrames; i++ {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
		close(errChan)
	}()

	frames := make([]indexedFrame, 0, numFrames)
	for result := range results {
		frames = append(frames, indexedFrame{index: result.index, path: result.path})
		if s.sink.Enabled() {
			s.sink.SaveRenderedFrame(input.Mode.String(), result.index, result.image)
		}
	}

	if err := <-errChan; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(frames, func(i, j int) bool {
		return frames[i].index < frames[j].index
	})
	paths := make([]string, len(frames))
	for i, f := range frames {
		paths[i] = f.path
	}
	return paths, nil
}

// worker renders frames from the jobs channel.
func (s *Stage) worker(
	ctx context.Context,
	wg *sync.WaitGroup,
	input pipeline.RenderInput,
	jobs <-chan int,
	results chan<- indexedFrame,
	errChan chan<- error,
) {
	defer wg.Done()

	for idx := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		frame, err := s.renderFrame(input, idx)
		if err != nil {
			select {
			case errChan <- fmt.Errorf("render frame %d: %w", idx, err):
			default:
			}
			return
		}

		results <- frame
	}
}

func (s *Stage) renderFrame(input pipeline.RenderInput, index int) (indexedFrame, error) {
	masks, ok := input.Store.Frame(index)
	if !ok {
		return indexedFrame{}, fmt.Errorf("no masks for frame")
	}
	src, err := s.images.Load(input.FramePaths[index])
	if err != nil {
		return indexedFrame{}, err
	}
	out, err := s.Render(input.Mode, src, masks)
	if err != nil {
		return indexedFrame{}, err
	}
	path := filepath.Join(input.OutputDir, fmt.Sprintf(input.Pattern, index))
	if err := s.images.Save(path, out); err != nil {
		return indexedFrame{}, err
	}
	return indexedFrame{index: index, path: path, image: out}, nil
}
