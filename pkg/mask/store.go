package mask

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateFrame is returned when a frame index is inserted twice.
var ErrDuplicateFrame = errors.New("mask: duplicate frame index")

// Store is the unified mask store: absolute frame index -> object masks.
// It is filled once during reconciliation and read-only afterwards, so
// concurrent readers need no locking.
type Store struct {
	frames map[int]ObjectMasks
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{frames: make(map[int]ObjectMasks)}
}

// Put inserts the masks for an absolute frame index. A nil mapping is stored
// as empty (object lost in that frame). Inserting the same index twice
// returns ErrDuplicateFrame.
func (s *Store) Put(index int, masks ObjectMasks) error {
	if _, exists := s.frames[index]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateFrame, index)
	}
	if masks == nil {
		masks = ObjectMasks{}
	}
	s.frames[index] = masks
	return nil
}

// Frame returns the masks stored for index.
func (s *Store) Frame(index int) (ObjectMasks, bool) {
	m, ok := s.frames[index]
	return m, ok
}

// Len returns the number of frames in the store.
func (s *Store) Len() int {
	return len(s.frames)
}

// Indices returns the stored frame indices in ascending order.
func (s *Store) Indices() []int {
	idx := make([]int, 0, len(s.frames))
	for i := range s.frames {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// Missing returns the indices in [0, n) that have no entry.
func (s *Store) Missing(n int) []int {
	var missing []int
	for i := 0; i < n; i++ {
		if _, ok := s.frames[i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

// FrameSummary describes one stored frame for debug output.
type FrameSummary struct {
	Index   int         `json:"index"`
	Objects map[int]int `json:"objects"` // object id -> set pixel count
}

// Summarize returns a per-frame pixel-count summary in index order.
func (s *Store) Summarize() []FrameSummary {
	out := make([]FrameSummary, 0, len(s.frames))
	for _, i := range s.Indices() {
		fs := FrameSummary{Index: i, Objects: make(map[int]int)}
		for id, m := range s.frames[i] {
			fs.Objects[int(id)] = m.Count()
		}
		out = append(out, fs)
	}
	return out
}
