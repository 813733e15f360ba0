package mask

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidAnnotation is returned for malformed seed annotations.
var ErrInvalidAnnotation = errors.New("mask: invalid annotation")

// AnnotationKind is the closed set of seed annotation shapes.
type AnnotationKind int

const (
	// KindPoints is a set of labeled click points.
	KindPoints AnnotationKind = iota + 1
	// KindBox is a single bounding box.
	KindBox
)

// String returns the string representation of the kind.
func (k AnnotationKind) String() string {
	switch k {
	case KindPoints:
		return "points"
	case KindBox:
		return "box"
	default:
		return "unknown"
	}
}

// Label marks a point as foreground or background.
type Label int

const (
	LabelBackground Label = 0
	LabelForeground Label = 1
)

// Point is a labeled click in frame pixel coordinates.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label Label   `json:"label"`
}

// Box is a bounding box with (X1, Y1) top-left and (X2, Y2) bottom-right.
type Box struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Annotation seeds one segment at its local frame 0. Exactly one of Points
// or Box is meaningful, selected by Kind.
type Annotation struct {
	Kind   AnnotationKind `json:"kind"`
	Points []Point        `json:"points,omitempty"`
	Box    Box            `json:"box"`
}

// NewPoints builds a point annotation from parallel coordinate and label
// slices.
func NewPoints(coords [][2]float64, labels []int) (Annotation, error) {
	if len(coords) != len(labels) {
		return Annotation{}, fmt.Errorf("%w: %d points but %d labels", ErrInvalidAnnotation, len(coords), len(labels))
	}
	pts := make([]Point, len(coords))
	for i, c := range coords {
		pts[i] = Point{X: c[0], Y: c[1], Label: Label(labels[i])}
	}
	a := Annotation{Kind: KindPoints, Points: pts}
	if err := a.Validate(); err != nil {
		return Annotation{}, err
	}
	return a, nil
}

// NewBox builds a box annotation.
func NewBox(b Box) (Annotation, error) {
	a := Annotation{Kind: KindBox, Box: b}
	if err := a.Validate(); err != nil {
		return Annotation{}, err
	}
	return a, nil
}

// Validate checks the annotation is well formed.
func (a Annotation) Validate() error {
	switch a.Kind {
	case KindPoints:
		if len(a.Points) == 0 {
			return fmt.Errorf("%w: no points", ErrInvalidAnnotation)
		}
		for i, p := range a.Points {
			if !finite(p.X) || !finite(p.Y) || p.X < 0 || p.Y < 0 {
				return fmt.Errorf("%w: point %d at (%v, %v)", ErrInvalidAnnotation, i, p.X, p.Y)
			}
			if p.Label != LabelBackground && p.Label != LabelForeground {
				return fmt.Errorf("%w: point %d has label %d", ErrInvalidAnnotation, i, p.Label)
			}
		}
		return nil
	case KindBox:
		b := a.Box
		if !finite(b.X1) || !finite(b.Y1) || !finite(b.X2) || !finite(b.Y2) {
			return fmt.Errorf("%w: box has non-finite coordinates", ErrInvalidAnnotation)
		}
		if b.X1 < 0 || b.Y1 < 0 || b.X2 <= b.X1 || b.Y2 <= b.Y1 {
			return fmt.Errorf("%w: box (%v, %v, %v, %v)", ErrInvalidAnnotation, b.X1, b.Y1, b.X2, b.Y2)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidAnnotation, a.Kind)
	}
}

// CheckBounds verifies every coordinate lies inside a width x height frame.
func (a Annotation) CheckBounds(width, height int) error {
	w, h := float64(width), float64(height)
	switch a.Kind {
	case KindPoints:
		for i, p := range a.Points {
			if p.X >= w || p.Y >= h {
				return fmt.Errorf("%w: point %d outside %dx%d frame", ErrInvalidAnnotation, i, width, height)
			}
		}
	case KindBox:
		if a.Box.X1 >= w || a.Box.Y1 >= h {
			return fmt.Errorf("%w: box outside %dx%d frame", ErrInvalidAnnotation, width, height)
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
