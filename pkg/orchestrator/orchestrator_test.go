package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/user/pivotseg/pkg/adapters/logger"
	"github.com/user/pivotseg/pkg/mask"
	"github.com/user/pivotseg/pkg/metrics"
	"github.com/user/pivotseg/pkg/mocks"
	"github.com/user/pivotseg/pkg/pipeline"
	"github.com/user/pivotseg/pkg/ports"
	"github.com/user/pivotseg/pkg/stages/reconcile"
	"github.com/user/pivotseg/pkg/stages/split"
)

const (
	inputPath  = "/videos/clip.mp4"
	frameWidth = 8
)

// testFrame returns a frame whose only red pixel sits at column k%8, so
// every absolute index produces a distinguishable mask.
func testFrame(k int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frameWidth, 2))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+3] = 0xff
	}
	img.SetRGBA(k%frameWidth, 0, color.RGBA{R: 255, A: 255})
	return img
}

type fixture struct {
	fs      *mocks.FileSystem
	images  *mocks.ImageIO
	codec   *mocks.FrameCodec
	seg     *mocks.Segmenter
	sink    *mocks.DebugSink
	remover *mocks.ObjectRemover
	render  *mocks.Renderer
	metrics *metrics.Metrics
	deps    Dependencies
	cfg     Config
}

func newFixture(n int) *fixture {
	f := &fixture{
		fs:      mocks.NewFileSystem(),
		images:  mocks.NewImageIO(),
		sink:    mocks.NewDebugSink(true),
		remover: &mocks.ObjectRemover{},
		render:  &mocks.Renderer{},
		metrics: metrics.New(),
	}
	f.codec = mocks.NewFrameCodec(f.images)
	f.seg = mocks.NewSegmenter(f.images)

	frames := make([]*image.RGBA, n)
	for k := range frames {
		frames[k] = testFrame(k)
	}
	f.codec.AddVideo(inputPath, frames)
	_ = f.fs.WriteFile(inputPath, []byte("video"))

	f.deps = Dependencies{
		FileSystem: f.fs,
		Codec:      f.codec,
		Segmenter:  f.seg,
		Remover:    f.remover,
		Images:     f.images,
		Renderer:   f.render,
		Sink:       f.sink,
		Logger:     logger.NewNoop(),
		Metrics:    f.metrics,
	}
	f.cfg = DefaultConfig()
	f.cfg.InputPath = inputPath
	f.cfg.WorkDir = "/tmp"
	f.cfg.Workers = 2
	return f
}

func (f *fixture) orchestrator() *Orchestrator {
	return New(f.deps, f.cfg)
}

func fgPoint() ([][2]float64, []int) {
	return [][2]float64{{1, 1}}, []int{1}
}

func checkStore(t *testing.T, res *Result, n int) {
	t.Helper()
	if res.Store.Len() != n {
		t.Fatalf("store has %d frames, want %d", res.Store.Len(), n)
	}
	for k := 0; k < n; k++ {
		masks, ok := res.Store.Frame(k)
		if !ok {
			t.Fatalf("frame %d missing", k)
		}
		m := masks[1]
		if m == nil {
			t.Fatalf("frame %d has no mask for object 1", k)
		}
		if m.Count() != 1 || !m.At(k%frameWidth, 0) {
			t.Errorf("frame %d: mask does not belong to this frame", k)
		}
	}
}

func TestSegmentWithPoints_Scenarios(t *testing.T) {
	tests := []struct {
		name         string
		n, pivot     int
		wantReverse  int
		wantForward  int
		wantSessions int
	}{
		{name: "middle pivot", n: 100, pivot: 50, wantReverse: 51, wantForward: 49, wantSessions: 2},
		{name: "first frame", n: 10, pivot: 0, wantReverse: 1, wantForward: 9, wantSessions: 2},
		{name: "last frame", n: 10, pivot: 9, wantReverse: 10, wantForward: 0, wantSessions: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.n)
			orch := f.orchestrator()
			defer orch.Cleanup()

			pts, labels := fgPoint()
			res, err := orch.SegmentWithPoints(context.Background(), pts, labels, tt.pivot)
			if err != nil {
				t.Fatalf("SegmentWithPoints: %v", err)
			}

			if res.FrameCount != tt.n || res.Pivot != tt.pivot {
				t.Errorf("result = %d frames at %d, want %d at %d", res.FrameCount, res.Pivot, tt.n, tt.pivot)
			}
			if res.Split.Reverse.Len() != tt.wantReverse || res.Split.Forward.Len() != tt.wantForward {
				t.Errorf("segments = %d/%d, want %d/%d",
					res.Split.Reverse.Len(), res.Split.Forward.Len(), tt.wantReverse, tt.wantForward)
			}
			if len(f.seg.InitCalls) != tt.wantSessions {
				t.Errorf("sessions opened = %d, want %d", len(f.seg.InitCalls), tt.wantSessions)
			}
			for _, c := range f.seg.AnnotationCalls {
				if c.LocalFrame != 0 {
					t.Errorf("annotation seeded on local frame %d, want 0", c.LocalFrame)
				}
			}
			if len(f.seg.ResetCalls) != tt.wantSessions {
				t.Errorf("sessions released = %d, want %d", len(f.seg.ResetCalls), tt.wantSessions)
			}
			checkStore(t, res, tt.n)
		})
	}
}

func TestSegmentWithBox_UsesPivotSplit(t *testing.T) {
	f := newFixture(6)
	orch := f.orchestrator()
	defer orch.Cleanup()

	res, err := orch.SegmentWithBox(context.Background(), mask.Box{X1: 0, Y1: 0, X2: 4, Y2: 2}, 3)
	if err != nil {
		t.Fatalf("SegmentWithBox: %v", err)
	}
	if len(f.seg.AnnotationCalls) != 2 {
		t.Fatalf("expected 2 seeded sessions, got %d", len(f.seg.AnnotationCalls))
	}
	for _, c := range f.seg.AnnotationCalls {
		if c.Annotation.Kind != mask.KindBox {
			t.Errorf("annotation kind = %v, want box", c.Annotation.Kind)
		}
	}
	if res.Prompt != "box" {
		t.Errorf("expected prompt box, got %s", res.Prompt)
	}
	checkStore(t, res, 6)
}

func TestSegment_InvalidPivotStartsNothing(t *testing.T) {
	t.Run("with prober", func(t *testing.T) {
		f := newFixture(10)
		f.deps.Prober = &mocks.VideoProber{Info: ports.VideoInfo{FrameCount: 10}}
		orch := f.orchestrator()
		defer orch.Cleanup()

		pts, labels := fgPoint()
		_, err := orch.SegmentWithPoints(context.Background(), pts, labels, 10)
		if !errors.Is(err, split.ErrPivotOutOfRange) {
			t.Fatalf("expected ErrPivotOutOfRange, got %v", err)
		}
		if len(f.codec.ExtractCalls) != 0 {
			t.Errorf("expected no extraction, got %d", len(f.codec.ExtractCalls))
		}
	})

	t.Run("without prober", func(t *testing.T) {
		f := newFixture(10)
		orch := f.orchestrator()
		defer orch.Cleanup()

		pts, labels := fgPoint()
		_, err := orch.SegmentWithPoints(context.Background(), pts, labels, 10)
		if !errors.Is(err, split.ErrPivotOutOfRange) {
			t.Fatalf("expected ErrPivotOutOfRange, got %v", err)
		}
		if len(f.codec.AssembleListCalls) != 0 || len(f.seg.InitCalls) != 0 {
			t.Error("expected no segment or session to be created")
		}
	})

	t.Run("negative", func(t *testing.T) {
		f := newFixture(10)
		orch := f.orchestrator()
		defer orch.Cleanup()

		pts, labels := fgPoint()
		_, err := orch.SegmentWithPoints(context.Background(), pts, labels, -1)
		if !errors.Is(err, split.ErrPivotOutOfRange) {
			t.Fatalf("expected ErrPivotOutOfRange, got %v", err)
		}
		if len(f.codec.ExtractCalls) != 0 {
			t.Error("expected no extraction")
		}
	})
}

func TestSegment_InputNotFound(t *testing.T) {
	f := newFixture(4)
	f.cfg.InputPath = "/videos/missing.mp4"
	orch := f.orchestrator()
	defer orch.Cleanup()

	pts, labels := fgPoint()
	_, err := orch.SegmentWithPoints(context.Background(), pts, labels, 0)
	if !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("expected ErrInputNotFound, got %v", err)
	}
	if len(f.codec.ExtractCalls) != 0 {
		t.Error("expected no extraction")
	}
}

func TestSegment_InvalidAnnotation(t *testing.T) {
	f := newFixture(4)
	orch := f.orchestrator()
	defer orch.Cleanup()

	_, err := orch.SegmentWithPoints(context.Background(), [][2]float64{{1, 1}}, []int{1, 0}, 0)
	if !errors.Is(err, mask.ErrInvalidAnnotation) {
		t.Fatalf("expected ErrInvalidAnnotation for mismatched labels, got %v", err)
	}

	_, err = orch.SegmentWithPoints(context.Background(), [][2]float64{{100, 1}}, []int{1}, 0)
	if !errors.Is(err, mask.ErrInvalidAnnotation) {
		t.Fatalf("expected ErrInvalidAnnotation for out-of-frame point, got %v", err)
	}
	if len(f.seg.InitCalls) != 0 {
		t.Error("expected no session for invalid annotation")
	}
}

func TestSegment_PropagationUnderrun(t *testing.T) {
	f := newFixture(10)
	f.seg.ShortBy = 1
	orch := f.orchestrator()
	defer orch.Cleanup()

	pts, labels := fgPoint()
	_, err := orch.SegmentWithPoints(context.Background(), pts, labels, 4)
	if !errors.Is(err, reconcile.ErrPropagationUnderrun) {
		t.Fatalf("expected ErrPropagationUnderrun, got %v", err)
	}
}

func TestSegment_SessionFailureReleasesSessions(t *testing.T) {
	f := newFixture(10)
	f.seg.FailAt = 2
	orch := f.orchestrator()
	defer orch.Cleanup()

	pts, labels := fgPoint()
	_, err := orch.SegmentWithPoints(context.Background(), pts, labels, 5)
	if err == nil {
		t.Fatal("expected propagation error")
	}
	if len(f.seg.ResetCalls) != len(f.seg.InitCalls) {
		t.Errorf("opened %d sessions but released %d", len(f.seg.InitCalls), len(f.seg.ResetCalls))
	}
}

func TestSegment_ReleasesSegmentFiles(t *testing.T) {
	f := newFixture(10)
	orch := f.orchestrator()
	defer orch.Cleanup()

	pts, labels := fgPoint()
	var dirs []string
	for run := 0; run < 2; run++ {
		res, err := orch.SegmentWithPoints(context.Background(), pts, labels, 4)
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		dirs = append(dirs, res.Split.Reverse.FrameDir, res.Split.Forward.FrameDir)
		checkStore(t, res, 10)
	}
	for _, dir := range dirs {
		if dir == "" {
			t.Fatal("expected segment frame dirs to be recorded")
		}
		if f.fs.HasDir(dir) {
			t.Errorf("segment dir %s outlived its run", dir)
		}
	}
	// the original frames are still needed for rendering
	if !f.fs.HasDir(orch.temps.Root()) {
		t.Error("expected run root to survive until Cleanup")
	}
}

func TestSegment_FailureReleasesSegmentFiles(t *testing.T) {
	f := newFixture(10)
	f.seg.ShortBy = 1
	orch := f.orchestrator()
	defer orch.Cleanup()

	pts, labels := fgPoint()
	if _, err := orch.SegmentWithPoints(context.Background(), pts, labels, 4); err == nil {
		t.Fatal("expected underrun")
	}
	if len(f.seg.InitCalls) != 2 {
		t.Fatalf("expected 2 sessions, got %v", f.seg.InitCalls)
	}
	for _, dir := range f.seg.InitCalls {
		if f.fs.HasDir(dir) {
			t.Errorf("segment dir %s left behind after failure", dir)
		}
	}
}

func TestSegment_DebugOutput(t *testing.T) {
	f := newFixture(5)
	orch := f.orchestrator()
	defer orch.Cleanup()

	pts, labels := fgPoint()
	if _, err := orch.SegmentWithPoints(context.Background(), pts, labels, 2); err != nil {
		t.Fatalf("SegmentWithPoints: %v", err)
	}
	if f.sink.AnnotationPreview == nil {
		t.Error("expected annotation preview")
	}
	if len(f.render.Drawn) != 1 {
		t.Errorf("expected 1 drawn annotation, got %d", len(f.render.Drawn))
	}
	if len(f.sink.StoreJSON) == 0 || len(f.sink.SplitJSON) == 0 {
		t.Error("expected store and split JSON")
	}
}

func TestSegment_Timings(t *testing.T) {
	f := newFixture(5)
	orch := f.orchestrator()
	defer orch.Cleanup()

	pts, labels := fgPoint()
	res, err := orch.SegmentWithPoints(context.Background(), pts, labels, 2)
	if err != nil {
		t.Fatalf("SegmentWithPoints: %v", err)
	}
	want := []string{"extract", "split", "propagate", "reconcile"}
	if len(res.Timings) != len(want) {
		t.Fatalf("expected %d timings, got %d", len(want), len(res.Timings))
	}
	for i, st := range res.Timings {
		if st.Stage != want[i] {
			t.Errorf("timing %d: stage = %s, want %s", i, st.Stage, want[i])
		}
	}

	families, err := f.metrics.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "pivotseg_runs_total" {
			found = true
		}
	}
	if !found {
		t.Error("expected pivotseg_runs_total to be recorded")
	}
}

func TestRenderColored(t *testing.T) {
	f := newFixture(6)
	orch := f.orchestrator()
	defer orch.Cleanup()

	pts, labels := fgPoint()
	res, err := orch.SegmentWithPoints(context.Background(), pts, labels, 3)
	if err != nil {
		t.Fatalf("SegmentWithPoints: %v", err)
	}

	out, err := orch.RenderColored(context.Background(), res)
	if err != nil {
		t.Fatalf("RenderColored: %v", err)
	}
	if out != "/videos/clip_segmented.mp4" {
		t.Errorf("output = %s", out)
	}
	frames, ok := f.codec.Video(out)
	if !ok || len(frames) != 6 {
		t.Fatalf("expected 6 assembled frames, got %d", len(frames))
	}
	for k, img := range frames {
		got := img.RGBAAt(k%frameWidth, 0)
		want := color.RGBA{R: 255, G: 51, B: 0, A: 255}
		if got != want {
			t.Errorf("frame %d: masked pixel = %v, want %v", k, got, want)
		}
	}
	if f.sink.RenderedCount("colored") != 6 {
		t.Errorf("expected 6 debug frames, got %d", f.sink.RenderedCount("colored"))
	}
}

func TestRenderColored_DoesNotOverwrite(t *testing.T) {
	f := newFixture(3)
	_ = f.fs.WriteFile("/videos/clip_segmented.mp4", []byte("old"))
	orch := f.orchestrator()
	defer orch.Cleanup()

	pts, labels := fgPoint()
	res, err := orch.SegmentWithPoints(context.Background(), pts, labels, 1)
	if err != nil {
		t.Fatalf("SegmentWithPoints: %v", err)
	}
	out, err := orch.RenderColored(context.Background(), res)
	if err != nil {
		t.Fatalf("RenderColored: %v", err)
	}
	if out != "/videos/clip_segmented_1.mp4" {
		t.Errorf("output = %s, want suffixed path", out)
	}
}

func TestRenderSilhouetteAndOriginalOnWhite(t *testing.T) {
	f := newFixture(5)
	orch := f.orchestrator()
	defer orch.Cleanup()

	pts, labels := fgPoint()
	res, err := orch.SegmentWithPoints(context.Background(), pts, labels, 2)
	if err != nil {
		t.Fatalf("SegmentWithPoints: %v", err)
	}

	silDir, err := orch.RenderSilhouette(context.Background(), res)
	if err != nil {
		t.Fatalf("RenderSilhouette: %v", err)
	}
	whiteDir, err := orch.RenderOriginalOnWhite(context.Background(), res)
	if err != nil {
		t.Fatalf("RenderOriginalOnWhite: %v", err)
	}
	if silDir == whiteDir {
		t.Fatal("expected separate frame directories")
	}

	for k := 0; k < 5; k++ {
		name := fmt.Sprintf(ports.DefaultFramePattern, k)
		sil, ok := f.images.Get(filepath.Join(silDir, name))
		if !ok {
			t.Fatalf("silhouette frame %d missing", k)
		}
		if sil.RGBAAt(k%frameWidth, 0) != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
			t.Errorf("silhouette frame %d: object pixel not white", k)
		}
		if sil.RGBAAt((k+1)%frameWidth, 1) != (color.RGBA{A: 255}) {
			t.Errorf("silhouette frame %d: background pixel not black", k)
		}

		white, ok := f.images.Get(filepath.Join(whiteDir, name))
		if !ok {
			t.Fatalf("original-on-white frame %d missing", k)
		}
		if white.RGBAAt(k%frameWidth, 0) != (color.RGBA{R: 255, A: 255}) {
			t.Errorf("original-on-white frame %d: object pixel changed", k)
		}
		if white.RGBAAt(k%frameWidth, 1) != (color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
			t.Errorf("original-on-white frame %d: background not white", k)
		}
	}
}

func TestRender_NotSegmented(t *testing.T) {
	f := newFixture(3)
	orch := f.orchestrator()
	defer orch.Cleanup()

	if _, err := orch.RenderColored(context.Background(), nil); !errors.Is(err, ErrNotSegmented) {
		t.Errorf("expected ErrNotSegmented, got %v", err)
	}
	if _, err := orch.RenderSilhouette(context.Background(), &Result{}); !errors.Is(err, ErrNotSegmented) {
		t.Errorf("expected ErrNotSegmented, got %v", err)
	}
}

func TestRemoveObject(t *testing.T) {
	f := newFixture(4)
	orch := f.orchestrator()
	defer orch.Cleanup()

	pts, labels := fgPoint()
	res, err := orch.SegmentWithPoints(context.Background(), pts, labels, 1)
	if err != nil {
		t.Fatalf("SegmentWithPoints: %v", err)
	}
	out, err := orch.RemoveObject(context.Background(), res)
	if err != nil {
		t.Fatalf("RemoveObject: %v", err)
	}
	if out != "/videos/clip_removed.mp4" {
		t.Errorf("output = %s", out)
	}
	if len(f.remover.Calls) != 1 {
		t.Fatalf("expected 1 remover call, got %d", len(f.remover.Calls))
	}
	call := f.remover.Calls[0]
	if call[0] != inputPath || call[2] != out {
		t.Errorf("unexpected remover call %v", call)
	}
	if len(f.images.PathsIn(call[1])) != 4 {
		t.Errorf("expected 4 silhouette frames in %s", call[1])
	}
}

func TestRemoveObject_NotConfigured(t *testing.T) {
	f := newFixture(4)
	f.deps.Remover = nil
	orch := f.orchestrator()
	defer orch.Cleanup()

	if _, err := orch.RemoveObject(context.Background(), &Result{}); !errors.Is(err, ErrRemoverNotConfigured) {
		t.Errorf("expected ErrRemoverNotConfigured, got %v", err)
	}
}

func TestCleanup(t *testing.T) {
	f := newFixture(5)
	orch := f.orchestrator()

	pts, labels := fgPoint()
	res, err := orch.SegmentWithPoints(context.Background(), pts, labels, 2)
	if err != nil {
		t.Fatalf("SegmentWithPoints: %v", err)
	}
	if _, err := orch.RenderSilhouette(context.Background(), res); err != nil {
		t.Fatalf("RenderSilhouette: %v", err)
	}

	root := filepath.Join("/tmp", "pivotseg-"+orch.RunID())
	if !f.fs.HasDir(root) {
		t.Fatalf("expected run root %s", root)
	}

	if err := orch.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if f.fs.HasDir(root) {
		t.Error("expected run root to be removed")
	}
	if err := orch.Cleanup(); err != nil {
		t.Errorf("second Cleanup: %v", err)
	}

	if _, err := orch.RenderColored(context.Background(), res); !errors.Is(err, ErrNotSegmented) {
		t.Errorf("expected ErrNotSegmented after Cleanup, got %v", err)
	}
}

func TestCleanup_WithoutRun(t *testing.T) {
	f := newFixture(1)
	orch := f.orchestrator()
	if err := orch.Cleanup(); err != nil {
		t.Errorf("Cleanup: %v", err)
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input, outputDir, suffix, want string
	}{
		{"/a/b/video.mp4", "", "segmented", "/a/b/video_segmented.mp4"},
		{"/a/b/video.mov", "/out", "removed", "/out/video_removed.mov"},
		{"/a/b/video", "", "segmented", "/a/b/video_segmented.mp4"},
	}
	for _, tt := range tests {
		o := &Orchestrator{cfg: Config{InputPath: tt.input, OutputDir: tt.outputDir}}
		if got := o.outputPath(tt.suffix); got != tt.want {
			t.Errorf("outputPath(%s) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestRenderVideo_Silhouette(t *testing.T) {
	f := newFixture(4)
	orch := f.orchestrator()
	defer orch.Cleanup()

	pts, labels := fgPoint()
	res, err := orch.SegmentWithPoints(context.Background(), pts, labels, 0)
	if err != nil {
		t.Fatalf("SegmentWithPoints: %v", err)
	}
	out, err := orch.RenderVideo(context.Background(), res, pipeline.ModeSilhouette)
	if err != nil {
		t.Fatalf("RenderVideo: %v", err)
	}
	if out != "/videos/clip_silhouette.mp4" {
		t.Errorf("output = %s", out)
	}
	frames, ok := f.codec.Video(out)
	if !ok || len(frames) != 4 {
		t.Fatalf("expected 4 assembled frames")
	}
	last := res.Timings[len(res.Timings)-1]
	if last.Stage != "assemble_silhouette" {
		t.Errorf("last timing = %s", last.Stage)
	}
}
