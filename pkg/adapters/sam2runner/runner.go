// Package sam2runner drives a SAM 2 video predictor through a Python
// helper module.
//
// The helper is invoked as
//
//	python -m <module> annotate  --frames DIR --prompt PROMPT.json --out OUT ...
//	python -m <module> propagate --frames DIR --prompt PROMPT.json --out OUT ...
//
// and writes OUT/manifest.json listing one PNG mask per frame and object.
// The predictor state lives only for the duration of each call, so the
// session state kept here is the frame directory and the seed prompt.
package sam2runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/user/pivotseg/pkg/mask"
	"github.com/user/pivotseg/pkg/ports"
)

// ErrUnknownSession is returned for handles this runner did not create
// or has already reset.
var ErrUnknownSession = errors.New("sam2runner: unknown session")

// Executor runs the Python interpreter with arguments.
type Executor interface {
	Run(ctx context.Context, timeout time.Duration, args ...string) error
}

// Config holds the predictor settings passed to the helper.
type Config struct {
	Module           string        // Python module, e.g. pivotseg_sam2
	Checkpoint       string        // Model weights
	ModelConfig      string        // Model config name
	Device           string        // cuda, mps or cpu
	AnnotateTimeout  time.Duration // Zero means no limit
	PropagateTimeout time.Duration
}

// Runner implements ports.Segmenter.
type Runner struct {
	exec   Executor
	cfg    Config
	logger ports.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	frameDir   string
	workDir    string
	frameCount int
	prompt     string
	propagated bool
}

// New creates a Runner.
func New(exec Executor, cfg Config, logger ports.Logger) *Runner {
	if cfg.Module == "" {
		cfg.Module = "pivotseg_sam2"
	}
	if cfg.Device == "" {
		cfg.Device = "cpu"
	}
	return &Runner{
		exec:     exec,
		cfg:      cfg,
		logger:   logger.WithComponent("sam2"),
		sessions: make(map[string]*session),
	}
}

// InitState registers frameDir and creates a sibling work directory.
func (r *Runner) InitState(ctx context.Context, frameDir string) (ports.SessionHandle, error) {
	if err := ctx.Err(); err != nil {
		return ports.SessionHandle{}, err
	}
	n, err := countFrames(frameDir)
	if err != nil {
		return ports.SessionHandle{}, err
	}
	if n == 0 {
		return ports.SessionHandle{}, fmt.Errorf("no frames in %s", frameDir)
	}

	id := uuid.NewString()
	work := filepath.Join(filepath.Dir(frameDir), "sam2-"+id)
	if err := os.MkdirAll(work, 0755); err != nil {
		return ports.SessionHandle{}, fmt.Errorf("create session dir: %w", err)
	}

	r.mu.Lock()
	r.sessions[id] = &session{frameDir: frameDir, workDir: work, frameCount: n}
	r.mu.Unlock()

	r.logger.Debug("Initialized session %s over %d frames", id, n)
	return ports.SessionHandle{ID: id, FrameDir: frameDir, FrameCount: n}, nil
}

// AddAnnotation writes the prompt and runs the helper on a single frame.
func (r *Runner) AddAnnotation(ctx context.Context, h ports.SessionHandle, localFrame int, obj mask.ObjectID, a mask.Annotation) (mask.ObjectMasks, error) {
	s, err := r.session(h)
	if err != nil {
		return nil, err
	}
	if localFrame < 0 || localFrame >= s.frameCount {
		return nil, fmt.Errorf("frame %d outside session of %d frames", localFrame, s.frameCount)
	}

	data, err := json.Marshal(newPrompt(localFrame, obj, a))
	if err != nil {
		return nil, err
	}
	promptPath := filepath.Join(s.workDir, "prompt.json")
	if err := os.WriteFile(promptPath, data, 0644); err != nil {
		return nil, fmt.Errorf("write prompt: %w", err)
	}

	out := filepath.Join(s.workDir, "seed")
	if err := r.run(ctx, "annotate", s.frameDir, promptPath, out, r.cfg.AnnotateTimeout); err != nil {
		return nil, err
	}
	m, err := readManifest(out)
	if err != nil {
		return nil, err
	}
	if len(m.Frames) != 1 || m.Frames[0].Frame != localFrame {
		return nil, fmt.Errorf("annotate returned %d frames, want frame %d", len(m.Frames), localFrame)
	}
	masks, err := m.Frames[0].load(out)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	s.prompt = promptPath
	r.mu.Unlock()
	return masks, nil
}

// Propagate runs the helper over the whole session and streams the masks
// back in local frame order. The sequence can be consumed once.
func (r *Runner) Propagate(ctx context.Context, h ports.SessionHandle) iter.Seq2[ports.PropagatedFrame, error] {
	return func(yield func(ports.PropagatedFrame, error) bool) {
		s, err := r.session(h)
		if err != nil {
			yield(ports.PropagatedFrame{}, err)
			return
		}

		r.mu.Lock()
		prompt, reused := s.prompt, s.propagated
		s.propagated = true
		r.mu.Unlock()
		if reused {
			yield(ports.PropagatedFrame{}, fmt.Errorf("session %s already propagated", h.ID))
			return
		}
		if prompt == "" {
			yield(ports.PropagatedFrame{}, fmt.Errorf("session %s has no annotation", h.ID))
			return
		}

		out := filepath.Join(s.workDir, "propagate")
		if err := r.run(ctx, "propagate", s.frameDir, prompt, out, r.cfg.PropagateTimeout); err != nil {
			yield(ports.PropagatedFrame{}, err)
			return
		}
		m, err := readManifest(out)
		if err != nil {
			yield(ports.PropagatedFrame{}, err)
			return
		}

		for i, f := range m.Frames {
			if f.Frame != i {
				yield(ports.PropagatedFrame{}, fmt.Errorf("manifest entry %d is frame %d", i, f.Frame))
				return
			}
			masks, err := f.load(out)
			if err != nil {
				yield(ports.PropagatedFrame{}, err)
				return
			}
			if !yield(ports.PropagatedFrame{LocalIndex: f.Frame, Masks: masks}, nil) {
				return
			}
		}
	}
}

// ResetState forgets the session and removes its work directory.
func (r *Runner) ResetState(h ports.SessionHandle) error {
	r.mu.Lock()
	s, ok := r.sessions[h.ID]
	delete(r.sessions, h.ID)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	if err := os.RemoveAll(s.workDir); err != nil {
		return fmt.Errorf("remove session dir: %w", err)
	}
	return nil
}

func (r *Runner) session(h ports.SessionHandle) (*session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[h.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, h.ID)
	}
	return s, nil
}

func (r *Runner) run(ctx context.Context, command, frameDir, prompt, out string, timeout time.Duration) error {
	if err := os.MkdirAll(out, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	args := []string{
		"-m", r.cfg.Module, command,
		"--frames", frameDir,
		"--prompt", prompt,
		"--out", out,
		"--device", r.cfg.Device,
	}
	if r.cfg.Checkpoint != "" {
		args = append(args, "--checkpoint", r.cfg.Checkpoint)
	}
	if r.cfg.ModelConfig != "" {
		args = append(args, "--config", r.cfg.ModelConfig)
	}
	if err := r.exec.Run(ctx, timeout, args...); err != nil {
		return fmt.Errorf("sam2 %s: %w", command, err)
	}
	return nil
}

// prompt is the JSON document handed to the helper.
type prompt struct {
	Frame  int          `json:"frame"`
	Object int          `json:"object"`
	Kind   string       `json:"kind"`
	Points [][2]float64 `json:"points,omitempty"`
	Labels []int        `json:"labels,omitempty"`
	Box    *[4]float64  `json:"box,omitempty"`
}

func newPrompt(frame int, obj mask.ObjectID, a mask.Annotation) prompt {
	p := prompt{Frame: frame, Object: int(obj), Kind: a.Kind.String()}
	switch a.Kind {
	case mask.KindPoints:
		for _, pt := range a.Points {
			p.Points = append(p.Points, [2]float64{pt.X, pt.Y})
			p.Labels = append(p.Labels, int(pt.Label))
		}
	case mask.KindBox:
		p.Box = &[4]float64{a.Box.X1, a.Box.Y1, a.Box.X2, a.Box.Y2}
	}
	return p
}

type manifest struct {
	Frames []manifestFrame `json:"frames"`
}

type manifestFrame struct {
	Frame   int               `json:"frame"`
	Objects map[string]string `json:"objects"` // object id -> mask PNG relative to the manifest
}

func readManifest(dir string) (*manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, "manifest.json"))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

func (f manifestFrame) load(dir string) (mask.ObjectMasks, error) {
	masks := make(mask.ObjectMasks, len(f.Objects))
	for key, rel := range f.Objects {
		id, err := strconv.Atoi(key)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("frame %d: invalid object id %q", f.Frame, key)
		}
		img, err := imaging.Open(filepath.Join(dir, rel))
		if err != nil {
			return nil, fmt.Errorf("frame %d object %d: %w", f.Frame, id, err)
		}
		masks[mask.ObjectID(id)] = mask.FromImage(img)
	}
	return masks, nil
}

func countFrames(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read frame dir: %w", err)
	}
	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".jpg", ".jpeg", ".JPG", ".JPEG":
			n++
		}
	}
	return n, nil
}

// Ensure Runner implements ports.Segmenter
var _ ports.Segmenter = (*Runner)(nil)
