// Package lifecycle owns the temporary directories and files created during
// a segmentation run and guarantees their removal.
package lifecycle

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/user/pivotseg/pkg/ports"
)

// Handle is an owned temporary artifact. Release removes it; releasing an
// already released or never-created artifact is a no-op.
type Handle struct {
	path string

	mu       sync.Mutex
	released bool
	fs       ports.FileSystem
}

// Path returns the location of the artifact.
func (h *Handle) Path() string {
	return h.path
}

// Released reports whether Release has completed.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Release removes the artifact.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.released {
		return nil
	}
	if err := h.fs.RemoveAll(h.path); err != nil {
		return fmt.Errorf("release %s: %w", h.path, err)
	}
	h.released = true
	return nil
}

// Manager tracks every temporary artifact of one run under a private root
// directory.
type Manager struct {
	fs      ports.FileSystem
	logger  ports.Logger
	baseDir string
	runID   string

	mu      sync.Mutex
	root    string
	handles []*Handle
}

// New creates a Manager whose root lives under baseDir. The root itself is
// created on first use.
func New(fs ports.FileSystem, baseDir string, logger ports.Logger) *Manager {
	return &Manager{
		fs:      fs,
		logger:  logger.WithComponent("lifecycle"),
		baseDir: baseDir,
		runID:   uuid.NewString(),
	}
}

// RunID returns the identifier used to name the root directory.
func (m *Manager) RunID() string {
	return m.runID
}

// Root returns the root directory path, whether or not it exists yet.
func (m *Manager) Root() string {
	return filepath.Join(m.baseDir, "pivotseg-"+m.runID)
}

func (m *Manager) ensureRoot() (string, error) {
	if m.root != "" {
		return m.root, nil
	}
	root := m.Root()
	if err := m.fs.MkdirAll(root); err != nil {
		return "", fmt.Errorf("create run root: %w", err)
	}
	m.root = root
	m.logger.Debug("Created run directory %s", root)
	return root, nil
}

// TempDir creates a new uniquely named directory for name.
func (m *Manager) TempDir(name string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	root, err := m.ensureRoot()
	if err != nil {
		return nil, err
	}
	path, err := m.fs.MkdirTemp(root, name+"-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir %s: %w", name, err)
	}
	h := &Handle{path: path, fs: m.fs}
	m.handles = append(m.handles, h)
	return h, nil
}

// TempFile reserves a file path for name inside the run root. The file is
// not created; the caller (usually an external process) writes it.
func (m *Manager) TempFile(name string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	root, err := m.ensureRoot()
	if err != nil {
		return nil, err
	}
	h := &Handle{
		path: filepath.Join(root, fmt.Sprintf("%02d-%s", len(m.handles), name)),
		fs:   m.fs,
	}
	m.handles = append(m.handles, h)
	return h, nil
}

// Cleanup releases every tracked artifact, newest first, then removes the
// run root. It can be called any number of times.
func (m *Manager) Cleanup() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for i := len(m.handles) - 1; i >= 0; i-- {
		if err := m.handles[i].Release(); err != nil {
			errs = append(errs, err)
		}
	}
	m.handles = nil

	if err := m.fs.RemoveAll(m.Root()); err != nil {
		errs = append(errs, fmt.Errorf("remove run root: %w", err))
	}
	if m.root != "" {
		m.logger.Debug("Removed run directory %s", m.root)
	}
	m.root = ""

	return errors.Join(errs...)
}
