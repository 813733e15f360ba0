// Package pyrunner executes Python model scripts as subprocesses and keeps
// a bounded tail of their stderr for diagnostics.
package pyrunner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/user/pivotseg/pkg/ports"
)

// maxStderrBytes is the tail of stderr kept for diagnostics.
const maxStderrBytes = 8 * 1024

// ErrPythonNotFound is returned when no python binary can be resolved.
var ErrPythonNotFound = errors.New("pyrunner: python not found")

// ProcessError reports a failed Python invocation.
type ProcessError struct {
	Args       []string
	ExitCode   int
	StderrTail string
	Err        error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("python exited with code %d: %v\nargs: %s\nstderr: %s",
		e.ExitCode, e.Err, strings.Join(e.Args, " "), e.StderrTail)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// Runner runs commands with one resolved interpreter.
type Runner struct {
	python string
	logger ports.Logger
}

// New resolves preferred (or python3/python on PATH) and returns a Runner.
func New(preferred string, logger ports.Logger) (*Runner, error) {
	python, err := ResolvePython(preferred)
	if err != nil {
		return nil, err
	}
	return &Runner{python: python, logger: logger}, nil
}

// Python returns the resolved interpreter path.
func (r *Runner) Python() string {
	return r.python
}

// Run executes python with args. ctx is checked before the process starts;
// once running, the process is only stopped by a positive timeout.
func (r *Runner) Run(ctx context.Context, timeout time.Duration, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cmd := exec.Command(r.python, args...)
	if timeout > 0 {
		tctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		cmd = exec.CommandContext(tctx, r.python, args...)
	}

	start := time.Now()
	var stderr bytes.Buffer
	cmd.Stderr = &limitedWriter{w: &stderr, limit: maxStderrBytes}
	cmd.Stdout = io.Discard

	r.logger.Debug("Running %s %s", r.python, strings.Join(args, " "))
	err := cmd.Run()
	elapsed := time.Since(start)
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		r.logger.Warn("Python command failed with code %d after %d ms", exitCode, elapsed.Milliseconds())
		return &ProcessError{Args: args, ExitCode: exitCode, StderrTail: stderr.String(), Err: err}
	}
	r.logger.Debug("Python command finished in %d ms", elapsed.Milliseconds())
	return nil
}

// ResolvePython finds a usable python binary.
func ResolvePython(preferred string) (string, error) {
	if preferred != "" {
		if p, err := exec.LookPath(preferred); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("%w: configured python %q", ErrPythonNotFound, preferred)
	}
	for _, name := range []string{"python3", "python"} {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried python3, python", ErrPythonNotFound)
}

// limitedWriter keeps only the last limit bytes written to it.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		b := lw.w.Bytes()
		tail := append([]byte(nil), b[len(b)-lw.limit:]...)
		lw.w.Reset()
		lw.w.Write(tail)
	}
	return n, nil
}
