package main

import (
	"testing"

	"github.com/user/pivotseg/pkg/mask"
	"github.com/user/pivotseg/pkg/pipeline"
)

func TestParsePrompt_Points(t *testing.T) {
	p, err := parsePrompt([]string{"120:80", "10.5:20"}, []int{1, 0}, "")
	if err != nil {
		t.Fatalf("parsePrompt: %v", err)
	}
	if p.box != nil {
		t.Fatal("expected point prompt")
	}
	if len(p.points) != 2 || p.points[1] != [2]float64{10.5, 20} {
		t.Errorf("unexpected points %v", p.points)
	}
	if p.labels[0] != 1 || p.labels[1] != 0 {
		t.Errorf("unexpected labels %v", p.labels)
	}
}

func TestParsePrompt_DefaultLabels(t *testing.T) {
	p, err := parsePrompt([]string{"1:2", "3:4"}, nil, "")
	if err != nil {
		t.Fatalf("parsePrompt: %v", err)
	}
	for i, l := range p.labels {
		if l != int(mask.LabelForeground) {
			t.Errorf("label %d = %d, want foreground", i, l)
		}
	}
}

func TestParsePrompt_Box(t *testing.T) {
	p, err := parsePrompt(nil, nil, "10, 20, 110, 220")
	if err != nil {
		t.Fatalf("parsePrompt: %v", err)
	}
	want := mask.Box{X1: 10, Y1: 20, X2: 110, Y2: 220}
	if p.box == nil || *p.box != want {
		t.Errorf("box = %v, want %v", p.box, want)
	}
}

func TestParsePrompt_Errors(t *testing.T) {
	tests := []struct {
		name   string
		points []string
		labels []int
		box    string
	}{
		{name: "none"},
		{name: "both", points: []string{"1:2"}, box: "0,0,1,1"},
		{name: "label count", points: []string{"1:2"}, labels: []int{1, 0}},
		{name: "bad point", points: []string{"1,2"}},
		{name: "bad coordinate", points: []string{"x:2"}},
		{name: "short box", box: "0,0,1"},
		{name: "bad box", box: "0,0,1,y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parsePrompt(tt.points, tt.labels, tt.box); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseModes(t *testing.T) {
	modes, err := parseModes([]string{"colored", "silhouette", "white", "colored"})
	if err != nil {
		t.Fatalf("parseModes: %v", err)
	}
	want := []pipeline.RenderMode{pipeline.ModeColored, pipeline.ModeSilhouette, pipeline.ModeOriginalOnWhite}
	if len(modes) != len(want) {
		t.Fatalf("got %v, want %v", modes, want)
	}
	for i := range want {
		if modes[i] != want[i] {
			t.Errorf("mode %d = %v, want %v", i, modes[i], want[i])
		}
	}

	if _, err := parseModes([]string{"sepia"}); err == nil {
		t.Error("expected error for unknown mode")
	}
}
