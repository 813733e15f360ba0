package mocks

import (
	"context"
	"errors"
	"fmt"
	"image"
	"iter"
	"sync"

	"github.com/user/pivotseg/pkg/mask"
	"github.com/user/pivotseg/pkg/ports"
)

// AnnotationCall records a call to Segmenter.AddAnnotation.
type AnnotationCall struct {
	Handle     ports.SessionHandle
	LocalFrame int
	Object     mask.ObjectID
	Annotation mask.Annotation
}

// Segmenter is a fake ports.Segmenter. It reads session frames from an
// ImageIO and derives masks with MaskFunc, which defaults to thresholding
// the red channel of each frame.
type Segmenter struct {
	mu     sync.Mutex
	images *ImageIO
	seq    int
	state  map[string]*segmenterState

	// MaskFunc computes the masks for one session frame.
	MaskFunc func(img *image.RGBA, obj mask.ObjectID, local int) mask.ObjectMasks
	// ShortBy makes Propagate stop this many frames early.
	ShortBy int
	// FailAt makes Propagate yield an error at this local index when >= 0.
	FailAt int

	InitStateFunc func(ctx context.Context, frameDir string) (ports.SessionHandle, error)

	InitCalls       []string
	AnnotationCalls []AnnotationCall
	PropagateCalls  []string
	ResetCalls      []string
}

type segmenterState struct {
	frames     []string
	obj        mask.ObjectID
	seeded     bool
	propagated bool
}

// NewSegmenter creates a fake segmenter backed by images.
func NewSegmenter(images *ImageIO) *Segmenter {
	return &Segmenter{
		images: images,
		state:  make(map[string]*segmenterState),
		FailAt: -1,
	}
}

func (m *Segmenter) InitState(ctx context.Context, frameDir string) (ports.SessionHandle, error) {
	m.mu.Lock()
	m.InitCalls = append(m.InitCalls, frameDir)
	m.mu.Unlock()

	if m.InitStateFunc != nil {
		return m.InitStateFunc(ctx, frameDir)
	}
	if err := ctx.Err(); err != nil {
		return ports.SessionHandle{}, err
	}

	frames := m.images.PathsIn(frameDir)
	if len(frames) == 0 {
		return ports.SessionHandle{}, fmt.Errorf("no frames in %s", frameDir)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	h := ports.SessionHandle{
		ID:         fmt.Sprintf("session-%d", m.seq),
		FrameDir:   frameDir,
		FrameCount: len(frames),
	}
	m.state[h.ID] = &segmenterState{frames: frames}
	return h, nil
}

func (m *Segmenter) AddAnnotation(ctx context.Context, h ports.SessionHandle, localFrame int, obj mask.ObjectID, a mask.Annotation) (mask.ObjectMasks, error) {
	m.mu.Lock()
	m.AnnotationCalls = append(m.AnnotationCalls, AnnotationCall{Handle: h, LocalFrame: localFrame, Object: obj, Annotation: a})
	st, ok := m.state[h.ID]
	m.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unknown session %s", h.ID)
	}
	if localFrame < 0 || localFrame >= len(st.frames) {
		return nil, fmt.Errorf("frame %d out of range", localFrame)
	}
	img, err := m.images.Load(st.frames[localFrame])
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	st.obj = obj
	st.seeded = true
	m.mu.Unlock()
	return m.masks(img, obj, localFrame), nil
}

func (m *Segmenter) Propagate(ctx context.Context, h ports.SessionHandle) iter.Seq2[ports.PropagatedFrame, error] {
	return func(yield func(ports.PropagatedFrame, error) bool) {
		m.mu.Lock()
		m.PropagateCalls = append(m.PropagateCalls, h.ID)
		st, ok := m.state[h.ID]
		var reused bool
		if ok {
			reused = st.propagated
			st.propagated = true
		}
		m.mu.Unlock()

		switch {
		case !ok:
			yield(ports.PropagatedFrame{}, fmt.Errorf("unknown session %s", h.ID))
			return
		case reused:
			yield(ports.PropagatedFrame{}, fmt.Errorf("session %s already propagated", h.ID))
			return
		case !st.seeded:
			yield(ports.PropagatedFrame{}, errors.New("no annotation added"))
			return
		}

		n := len(st.frames) - m.ShortBy
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				yield(ports.PropagatedFrame{}, err)
				return
			}
			if i == m.FailAt {
				yield(ports.PropagatedFrame{}, fmt.Errorf("propagation failed at frame %d", i))
				return
			}
			img, err := m.images.Load(st.frames[i])
			if err != nil {
				yield(ports.PropagatedFrame{}, err)
				return
			}
			if !yield(ports.PropagatedFrame{LocalIndex: i, Masks: m.masks(img, st.obj, i)}, nil) {
				return
			}
		}
	}
}

func (m *Segmenter) ResetState(h ports.SessionHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResetCalls = append(m.ResetCalls, h.ID)
	delete(m.state, h.ID)
	return nil
}

func (m *Segmenter) masks(img *image.RGBA, obj mask.ObjectID, local int) mask.ObjectMasks {
	if m.MaskFunc != nil {
		return m.MaskFunc(img, obj, local)
	}
	return mask.ObjectMasks{obj: RedMask(img)}
}

var _ ports.Segmenter = (*Segmenter)(nil)

// RedMask marks every pixel whose red channel is above 127.
func RedMask(img *image.RGBA) *mask.Mask {
	b := img.Bounds()
	m := mask.New(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if img.RGBAAt(b.Min.X+x, b.Min.Y+y).R > 127 {
				m.Set(x, y, true)
			}
		}
	}
	return m
}

// ObjectRemover is a mock implementation of ports.ObjectRemover.
type ObjectRemover struct {
	mu sync.Mutex

	RemoveFunc func(ctx context.Context, videoPath, maskDir, outputPath string) error

	Calls [][3]string
}

func (m *ObjectRemover) Remove(ctx context.Context, videoPath, maskDir, outputPath string) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, [3]string{videoPath, maskDir, outputPath})
	m.mu.Unlock()
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, videoPath, maskDir, outputPath)
	}
	return nil
}

var _ ports.ObjectRemover = (*ObjectRemover)(nil)

// VideoProber is a mock implementation of ports.VideoProber.
type VideoProber struct {
	Info      ports.VideoInfo
	Err       error
	ProbeFunc func(path string) (ports.VideoInfo, error)
}

func (m *VideoProber) Probe(path string) (ports.VideoInfo, error) {
	if m.ProbeFunc != nil {
		return m.ProbeFunc(path)
	}
	return m.Info, m.Err
}

var _ ports.VideoProber = (*VideoProber)(nil)
