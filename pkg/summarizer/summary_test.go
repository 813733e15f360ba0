package summarizer

import (
	"testing"
	"time"
)

func TestNewSummary(t *testing.T) {
	before := time.Now()
	summary := NewSummary()
	after := time.Now()

	if summary.GeneratedAt.Before(before) || summary.GeneratedAt.After(after) {
		t.Errorf("GeneratedAt should be between %v and %v, got %v",
			before, after, summary.GeneratedAt)
	}
}

func TestBuilder_WithVideoAndPrompt(t *testing.T) {
	summary := NewBuilder().
		WithVideo(VideoInfo{Path: "clip.mp4", FrameCount: 100, Width: 640, Height: 360}).
		WithPrompt(PromptInfo{Kind: "points", Pivot: 50, Points: 2, ObjectID: 1}).
		Build()

	if summary.Video.FrameCount != 100 || summary.Video.Path != "clip.mp4" {
		t.Errorf("unexpected video %+v", summary.Video)
	}
	if summary.Prompt.Pivot != 50 || summary.Prompt.Kind != "points" {
		t.Errorf("unexpected prompt %+v", summary.Prompt)
	}
}

func TestBuilder_AddSegment(t *testing.T) {
	summary := NewBuilder().
		AddSegment("reverse", []int{50, 49, 48}).
		AddSegment("forward", nil).
		AddSegment("forward", []int{51, 52}).
		Build()

	if len(summary.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(summary.Segments))
	}
	rev := summary.Segments[0]
	if rev.Frames != 3 || rev.First != 50 || rev.Last != 48 {
		t.Errorf("unexpected reverse segment %+v", rev)
	}
	fwd := summary.Segments[1]
	if fwd.Direction != "forward" || fwd.First != 51 || fwd.Last != 52 {
		t.Errorf("unexpected forward segment %+v", fwd)
	}
}

func TestBuilder_AddStageAndOutput(t *testing.T) {
	summary := NewBuilder().
		AddStage("split", 1500*time.Millisecond).
		AddStage("propagate", 2*time.Second).
		AddOutput("colored", "clip_segmented.mp4", 2048).
		Build()

	if len(summary.Stages) != 2 {
		t.Fatalf("expected 2 stages, got %d", len(summary.Stages))
	}
	if summary.Stages[0].DurationMs != 1500 {
		t.Errorf("expected 1500 ms, got %d", summary.Stages[0].DurationMs)
	}
	if len(summary.Outputs) != 1 || summary.Outputs[0].FileSize != 2048 {
		t.Errorf("unexpected outputs %+v", summary.Outputs)
	}
}

func TestBuilder_WithSettings(t *testing.T) {
	settings := Settings{ConcurrentSessions: true, Workers: 8, Device: "cuda"}
	summary := NewBuilder().WithSettings(settings).Build()

	if summary.Settings != settings {
		t.Errorf("expected %+v, got %+v", settings, summary.Settings)
	}
}
