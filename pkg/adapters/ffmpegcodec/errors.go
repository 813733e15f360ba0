package ffmpegcodec

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFFmpegNotFound is returned when no ffmpeg executable can be located.
	ErrFFmpegNotFound = errors.New("ffmpegcodec: ffmpeg not found")

	// ErrNoFrames is returned when extraction produced no frame files.
	ErrNoFrames = errors.New("ffmpegcodec: no frames extracted")
)

// maxStderrBytes bounds the diagnostic tail kept from a failed invocation.
const maxStderrBytes = 8 * 1024

// ProcessError reports a non-zero ffmpeg exit together with its captured
// stderr.
type ProcessError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("ffmpeg exited with code %d: %v\nargs: %s\nstderr: %s",
		e.ExitCode, e.Err, strings.Join(e.Args, " "), e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
