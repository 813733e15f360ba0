package split

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/user/pivotseg/pkg/adapters/logger"
	"github.com/user/pivotseg/pkg/lifecycle"
	"github.com/user/pivotseg/pkg/mocks"
	"github.com/user/pivotseg/pkg/pipeline"
	"github.com/user/pivotseg/pkg/ports"
)

func TestPlan_PartitionsFrames(t *testing.T) {
	for n := 1; n <= 12; n++ {
		for p := 0; p < n; p++ {
			reverse, forward, err := Plan(n, p)
			if err != nil {
				t.Fatalf("Plan(%d, %d): unexpected error: %v", n, p, err)
			}
			if len(reverse) != p+1 {
				t.Errorf("Plan(%d, %d): reverse has %d frames, want %d", n, p, len(reverse), p+1)
			}
			if len(forward) != n-p-1 {
				t.Errorf("Plan(%d, %d): forward has %d frames, want %d", n, p, len(forward), n-p-1)
			}

			seen := make(map[int]int)
			for j, abs := range reverse {
				if abs != p-j {
					t.Errorf("Plan(%d, %d): reverse[%d] = %d, want %d", n, p, j, abs, p-j)
				}
				seen[abs]++
			}
			for j, abs := range forward {
				if abs != p+j+1 {
					t.Errorf("Plan(%d, %d): forward[%d] = %d, want %d", n, p, j, abs, p+j+1)
				}
				seen[abs]++
			}
			for i := 0; i < n; i++ {
				if seen[i] != 1 {
					t.Errorf("Plan(%d, %d): frame %d covered %d times", n, p, i, seen[i])
				}
			}
		}
	}
}

func TestPlan_PivotZero(t *testing.T) {
	reverse, forward, err := Plan(10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reverse) != 1 || reverse[0] != 0 {
		t.Errorf("expected reverse [0], got %v", reverse)
	}
	if len(forward) != 9 || forward[0] != 1 || forward[8] != 9 {
		t.Errorf("expected forward 1..9, got %v", forward)
	}
}

func TestPlan_InvalidPivot(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		pivot int
		want  error
	}{
		{"negative", 10, -1, ErrPivotOutOfRange},
		{"equal to length", 10, 10, ErrPivotOutOfRange},
		{"beyond length", 10, 42, ErrPivotOutOfRange},
		{"no frames", 0, 0, ErrNoFrames},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Plan(tt.n, tt.pivot); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

type fixture struct {
	fs     *mocks.FileSystem
	images *mocks.ImageIO
	codec  *mocks.FrameCodec
	sink   *mocks.DebugSink
	temps  *lifecycle.Manager
	frames []string
}

// newFixture extracts an n-frame video whose frame i has red channel i.
func newFixture(t *testing.T, n int) *fixture {
	t.Helper()
	images := mocks.NewImageIO()
	codec := mocks.NewFrameCodec(images)
	src := make([]*image.RGBA, n)
	for i := range src {
		img := image.NewRGBA(image.Rect(0, 0, 2, 2))
		img.Set(0, 0, color.RGBA{R: uint8(i), A: 255})
		src[i] = img
	}
	codec.AddVideo("/in/video.mp4", src)
	frames, err := codec.Extract(context.Background(), "/in/video.mp4", "/work/original", ports.ExtractOptions{})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	fs := mocks.NewFileSystem()
	return &fixture{
		fs:     fs,
		images: images,
		codec:  codec,
		sink:   mocks.NewDebugSink(true),
		temps:  lifecycle.New(fs, "/work", logger.NewNoop()),
		frames: frames,
	}
}

func (f *fixture) stage() *Stage {
	return NewStage(f.codec, f.temps, f.sink, logger.NewNoop(), Options{})
}

// redSequence returns the red marker of each frame in dir, in local order.
func (f *fixture) redSequence(t *testing.T, dir string) []int {
	t.Helper()
	var out []int
	for i := 0; ; i++ {
		img, ok := f.images.Get(filepath.Join(dir, fmt.Sprintf(ports.DefaultFramePattern, i)))
		if !ok {
			return out
		}
		out = append(out, int(img.RGBAAt(0, 0).R))
	}
}

func TestStage_Execute_MaterializesBothSegments(t *testing.T) {
	f := newFixture(t, 100)

	result, err := f.stage().Execute(context.Background(), pipeline.SplitInput{FramePaths: f.frames, Pivot: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rev := f.redSequence(t, result.Reverse.FrameDir)
	if len(rev) != 51 {
		t.Fatalf("expected 51 reverse frames, got %d", len(rev))
	}
	for j, v := range rev {
		if v != 50-j {
			t.Errorf("reverse local %d holds frame %d, want %d", j, v, 50-j)
		}
	}

	fwd := f.redSequence(t, result.Forward.FrameDir)
	if len(fwd) != 49 {
		t.Fatalf("expected 49 forward frames, got %d", len(fwd))
	}
	for j, v := range fwd {
		if v != 51+j {
			t.Errorf("forward local %d holds frame %d, want %d", j, v, 51+j)
		}
	}

	if len(f.codec.AssembleCalls) != 1 || f.codec.AssembleCalls[0].Options.StartNumber != 51 {
		t.Errorf("expected forward assembly from start number 51, got %+v", f.codec.AssembleCalls)
	}
	if len(f.codec.AssembleListCalls) != 1 || len(f.codec.AssembleListCalls[0].FramePaths) != 51 {
		t.Errorf("expected one 51-frame concat assembly, got %+v", f.codec.AssembleListCalls)
	}

	var decoded pipeline.SplitResult
	if err := json.Unmarshal(f.sink.SplitJSON, &decoded); err != nil {
		t.Fatalf("split JSON: %v", err)
	}
	if decoded.Forward.Len() != 49 {
		t.Errorf("expected debug JSON to carry forward segment, got %+v", decoded.Forward)
	}
}

func TestStage_Execute_LastFramePivot(t *testing.T) {
	f := newFixture(t, 5)

	result, err := f.stage().Execute(context.Background(), pipeline.SplitInput{FramePaths: f.frames, Pivot: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Forward.Empty() || result.Forward.FrameDir != "" {
		t.Errorf("expected empty forward segment, got %+v", result.Forward)
	}
	if len(f.codec.AssembleCalls) != 0 {
		t.Errorf("expected no forward assembly, got %d", len(f.codec.AssembleCalls))
	}
	if got := f.redSequence(t, result.Reverse.FrameDir); len(got) != 5 || got[0] != 4 || got[4] != 0 {
		t.Errorf("unexpected reverse frames %v", got)
	}
}

func TestStage_Execute_InvalidPivotStartsNothing(t *testing.T) {
	f := newFixture(t, 5)
	extracts := len(f.codec.ExtractCalls)

	_, err := f.stage().Execute(context.Background(), pipeline.SplitInput{FramePaths: f.frames, Pivot: 5})
	if !errors.Is(err, ErrPivotOutOfRange) {
		t.Fatalf("expected ErrPivotOutOfRange, got %v", err)
	}
	if len(f.codec.AssembleListCalls) != 0 || len(f.codec.ExtractCalls) != extracts {
		t.Error("expected no codec calls for an invalid pivot")
	}
}

func TestStage_Execute_CodecFailure(t *testing.T) {
	f := newFixture(t, 5)
	boom := errors.New("exit status 1")
	f.codec.AssembleListFunc = func(ctx context.Context, paths []string, out string, opts ports.AssembleOptions) error {
		return boom
	}

	if _, err := f.stage().Execute(context.Background(), pipeline.SplitInput{FramePaths: f.frames, Pivot: 2}); !errors.Is(err, boom) {
		t.Errorf("expected codec error, got %v", err)
	}
}

func TestStage_Execute_FrameCountMismatch(t *testing.T) {
	f := newFixture(t, 5)
	f.codec.ExtractFunc = func(ctx context.Context, video, dir string, opts ports.ExtractOptions) ([]string, error) {
		return []string{dir + "/00000.jpg"}, nil
	}

	_, err := f.stage().Execute(context.Background(), pipeline.SplitInput{FramePaths: f.frames, Pivot: 3})
	if !errors.Is(err, ErrFrameCountMismatch) {
		t.Errorf("expected ErrFrameCountMismatch, got %v", err)
	}
}

func TestStage_Execute_ReturnsSegmentTemps(t *testing.T) {
	f := newFixture(t, 8)

	result, err := f.stage().Execute(context.Background(), pipeline.SplitInput{FramePaths: f.frames, Pivot: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// two videos and two frame directories
	if len(result.Temps) != 4 {
		t.Fatalf("expected 4 segment temps, got %d", len(result.Temps))
	}
	for _, dir := range []string{result.Reverse.FrameDir, result.Forward.FrameDir} {
		if !f.fs.HasDir(dir) {
			t.Errorf("expected %s to exist before release", dir)
		}
	}

	if err := result.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	for _, dir := range []string{result.Reverse.FrameDir, result.Forward.FrameDir} {
		if f.fs.HasDir(dir) {
			t.Errorf("expected %s to be removed", dir)
		}
	}
	if err := result.Release(); err != nil {
		t.Errorf("second release: %v", err)
	}
}

func TestStage_Execute_FailureReleasesTemps(t *testing.T) {
	f := newFixture(t, 6)
	var dirs []string
	f.codec.ExtractFunc = func(ctx context.Context, video, dir string, opts ports.ExtractOptions) ([]string, error) {
		dirs = append(dirs, dir)
		if len(dirs) == 2 {
			return nil, errors.New("exit status 1")
		}
		paths := make([]string, 3)
		for i := range paths {
			paths[i] = filepath.Join(dir, fmt.Sprintf(ports.DefaultFramePattern, i))
		}
		return paths, nil
	}

	result, err := f.stage().Execute(context.Background(), pipeline.SplitInput{FramePaths: f.frames, Pivot: 2})
	if err == nil {
		t.Fatal("expected forward extraction error")
	}
	if len(result.Temps) != 0 {
		t.Errorf("expected no temps on failure, got %d", len(result.Temps))
	}
	if len(dirs) != 2 {
		t.Fatalf("expected 2 extractions, got %d", len(dirs))
	}
	for _, dir := range dirs {
		if f.fs.HasDir(dir) {
			t.Errorf("expected %s to be released after failure", dir)
		}
	}
}
