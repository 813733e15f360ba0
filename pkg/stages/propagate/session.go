// Package propagate drives one segmentation session per segment.
package propagate

import (
	"context"
	"errors"
	"iter"
	"sync"

	"github.com/user/pivotseg/pkg/mask"
	"github.com/user/pivotseg/pkg/pipeline"
	"github.com/user/pivotseg/pkg/ports"
)

var (
	// ErrSessionConsumed is returned when Propagate is called a second time.
	ErrSessionConsumed = errors.New("session already propagated")
	// ErrSessionNotSeeded is returned when Propagate runs before Seed.
	ErrSessionNotSeeded = errors.New("session has no seed annotation")
)

// Session is the segmentation state for one segment's frame directory.
// The seed always goes on local frame 0 and propagation runs once.
type Session struct {
	segmenter ports.Segmenter
	handle    ports.SessionHandle

	mu       sync.Mutex
	seeded   bool
	consumed bool
	closed   bool
}

// Open initializes a session over frameDir.
func Open(ctx context.Context, segmenter ports.Segmenter, frameDir string) (*Session, error) {
	h, err := segmenter.InitState(ctx, frameDir)
	if err != nil {
		return nil, err
	}
	return &Session{segmenter: segmenter, handle: h}, nil
}

// Handle returns the underlying segmenter handle.
func (s *Session) Handle() ports.SessionHandle {
	return s.handle
}

// Seed registers the annotation for obj on local frame 0 and returns the
// mask the segmenter produced for that frame.
func (s *Session) Seed(ctx context.Context, obj mask.ObjectID, a mask.Annotation) (mask.ObjectMasks, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	masks, err := s.segmenter.AddAnnotation(ctx, s.handle, 0, obj, a)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.seeded = true
	s.mu.Unlock()
	return masks, nil
}

// Propagate returns the one-shot, local-order stream of masks.
func (s *Session) Propagate(ctx context.Context) iter.Seq2[ports.PropagatedFrame, error] {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !s.seeded:
		return failed(ErrSessionNotSeeded)
	case s.consumed:
		return failed(ErrSessionConsumed)
	}
	s.consumed = true
	return s.segmenter.Propagate(ctx, s.handle)
}

// Drain consumes the whole propagation stream.
func (s *Session) Drain(ctx context.Context) ([]pipeline.LocalFrame, error) {
	frames := make([]pipeline.LocalFrame, 0, s.handle.FrameCount)
	for f, err := range s.Propagate(ctx) {
		if err != nil {
			return nil, err
		}
		frames = append(frames, pipeline.LocalFrame{Index: f.LocalIndex, Masks: f.Masks})
	}
	return frames, nil
}

// Close releases the segmenter state. Calling it more than once is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.segmenter.ResetState(s.handle)
}

func failed(err error) iter.Seq2[ports.PropagatedFrame, error] {
	return func(yield func(ports.PropagatedFrame, error) bool) {
		yield(ports.PropagatedFrame{}, err)
	}
}
