// Package inpaintrunner removes a masked object from a video by running an
// E2FGVI-style inpainting script.
package inpaintrunner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/user/pivotseg/pkg/ports"
)

// ErrScriptNotConfigured is returned when no inpainting script is set.
var ErrScriptNotConfigured = errors.New("inpaintrunner: script not configured")

// Executor runs the Python interpreter with arguments.
type Executor interface {
	Run(ctx context.Context, timeout time.Duration, args ...string) error
}

// Config describes the inpainting script invocation.
type Config struct {
	Script     string // Path to the inference script
	Model      string // Model name, default e2fgvi
	Checkpoint string
	Timeout    time.Duration
}

// Runner implements ports.ObjectRemover.
type Runner struct {
	exec   Executor
	cfg    Config
	logger ports.Logger
}

// New creates a Runner.
func New(exec Executor, cfg Config, logger ports.Logger) *Runner {
	if cfg.Model == "" {
		cfg.Model = "e2fgvi"
	}
	return &Runner{
		exec:   exec,
		cfg:    cfg,
		logger: logger.WithComponent("inpaint"),
	}
}

// Remove inpaints the regions marked white in maskDir and writes the
// result to outputPath.
func (r *Runner) Remove(ctx context.Context, videoPath, maskDir, outputPath string) error {
	if r.cfg.Script == "" {
		return ErrScriptNotConfigured
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	args := []string{
		r.cfg.Script,
		"--model", r.cfg.Model,
		"--video", videoPath,
		"--mask", maskDir,
	}
	if r.cfg.Checkpoint != "" {
		args = append(args, "--ckpt", r.cfg.Checkpoint)
	}
	args = append(args, "--save_path", outputPath)

	r.logger.Debug("Inpainting %s with %s", videoPath, r.cfg.Model)
	if err := r.exec.Run(ctx, r.cfg.Timeout, args...); err != nil {
		return fmt.Errorf("inpaint: %w", err)
	}
	return nil
}

// Ensure Runner implements ports.ObjectRemover
var _ ports.ObjectRemover = (*Runner)(nil)
