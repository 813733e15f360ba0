package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/user/pivotseg/pkg/mask"
	"github.com/user/pivotseg/pkg/pipeline"
)

// prompt is a parsed seed annotation. Exactly one of points or box is set.
type prompt struct {
	points [][2]float64
	labels []int
	box    *mask.Box
}

// parsePrompt builds a prompt from --point, --label and --box values.
// Points are "x:y"; labels default to foreground.
func parsePrompt(points []string, labels []int, box string) (prompt, error) {
	switch {
	case len(points) > 0 && box != "":
		return prompt{}, fmt.Errorf("use either --point or --box, not both")
	case box != "":
		b, err := parseBox(box)
		if err != nil {
			return prompt{}, err
		}
		return prompt{box: &b}, nil
	case len(points) > 0:
		coords := make([][2]float64, len(points))
		for i, p := range points {
			c, err := parsePoint(p)
			if err != nil {
				return prompt{}, err
			}
			coords[i] = c
		}
		if len(labels) == 0 {
			labels = make([]int, len(coords))
			for i := range labels {
				labels[i] = int(mask.LabelForeground)
			}
		}
		if len(labels) != len(coords) {
			return prompt{}, fmt.Errorf("%d points but %d labels", len(coords), len(labels))
		}
		return prompt{points: coords, labels: labels}, nil
	default:
		return prompt{}, fmt.Errorf("a --point or --box prompt is required")
	}
}

func parsePoint(s string) ([2]float64, error) {
	x, y, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return [2]float64{}, fmt.Errorf("invalid point %q, want x:y", s)
	}
	fx, err := strconv.ParseFloat(x, 64)
	if err != nil {
		return [2]float64{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	fy, err := strconv.ParseFloat(y, 64)
	if err != nil {
		return [2]float64{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	return [2]float64{fx, fy}, nil
}

func parseBox(s string) (mask.Box, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return mask.Box{}, fmt.Errorf("invalid box %q, want x1,y1,x2,y2", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return mask.Box{}, fmt.Errorf("invalid box %q: %w", s, err)
		}
		v[i] = f
	}
	return mask.Box{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, nil
}

// parseModes maps --render values to compositor modes, dropping duplicates.
func parseModes(values []string) ([]pipeline.RenderMode, error) {
	seen := make(map[pipeline.RenderMode]bool)
	var modes []pipeline.RenderMode
	for _, v := range values {
		var m pipeline.RenderMode
		switch strings.TrimSpace(v) {
		case "colored":
			m = pipeline.ModeColored
		case "silhouette":
			m = pipeline.ModeSilhouette
		case "original_on_white", "white":
			m = pipeline.ModeOriginalOnWhite
		default:
			return nil, fmt.Errorf("unknown render mode %q", v)
		}
		if !seen[m] {
			seen[m] = true
			modes = append(modes, m)
		}
	}
	return modes, nil
}
