// Package logger provides the console and no-op loggers.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"

	"github.com/user/pivotseg/pkg/ports"
)

const (
	ansiReset  = "\033[0m"
	ansiGray   = "\033[90m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
	ansiPurple = "\033[35m"
	ansiCyan   = "\033[36m"
)

// stageColors gives each pipeline step its own prefix color so the
// interleaved output of concurrent sessions stays readable.
var stageColors = map[string]string{
	"split":     ansiBlue,
	"propagate": ansiPurple,
	"sam2":      ansiPurple,
	"reconcile": ansiGreen,
	"composite": ansiCyan,
	"assemble":  ansiCyan,
	"ffmpeg":    ansiGray,
	"python":    ansiGray,
	"lifecycle": ansiGray,
}

// output is shared by a logger and every component logger derived from it.
type output struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	color  bool
	start  time.Time
	now    func() time.Time
}

// ConsoleLogger writes translated log lines to stdout, with warnings and
// errors going to stderr. At debug level every line carries the time
// elapsed since the logger was created.
type ConsoleLogger struct {
	level     ports.LogLevel
	component string
	out       *output
}

// NewConsole creates a console logger on stdout/stderr. Color is enabled
// when stdout is a terminal.
func NewConsole(level ports.LogLevel) *ConsoleLogger {
	fd := os.Stdout.Fd()
	return newConsole(level, os.Stdout, os.Stderr, isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// NewConsoleWriter creates an uncolored console logger on the given writers.
func NewConsoleWriter(level ports.LogLevel, out, errOut io.Writer) *ConsoleLogger {
	return newConsole(level, out, errOut, false)
}

func newConsole(level ports.LogLevel, out, errOut io.Writer, color bool) *ConsoleLogger {
	return &ConsoleLogger{
		level: level,
		out: &output{
			out:    out,
			errOut: errOut,
			color:  color,
			start:  time.Now(),
			now:    time.Now,
		},
	}
}

func (l *ConsoleLogger) Debug(msg string, args ...interface{}) { l.log(ports.LevelDebug, msg, args) }
func (l *ConsoleLogger) Info(msg string, args ...interface{})  { l.log(ports.LevelInfo, msg, args) }
func (l *ConsoleLogger) Warn(msg string, args ...interface{})  { l.log(ports.LevelWarn, msg, args) }
func (l *ConsoleLogger) Error(msg string, args ...interface{}) { l.log(ports.LevelError, msg, args) }

// WithComponent returns a logger whose lines are prefixed with component.
// Components nest: a "sam2" logger derived from "propagate" prints
// [propagate/sam2].
func (l *ConsoleLogger) WithComponent(component string) ports.Logger {
	if l.component != "" {
		component = l.component + "/" + component
	}
	return &ConsoleLogger{level: l.level, component: component, out: l.out}
}

func (l *ConsoleLogger) log(level ports.LogLevel, msg string, args []interface{}) {
	if level < l.level {
		return
	}
	o := l.out
	var b strings.Builder

	if l.level == ports.LevelDebug {
		elapsed := o.now().Sub(o.start).Seconds()
		b.WriteString(o.paint(ansiGray, fmt.Sprintf("%7.2fs ", elapsed)))
	}
	if !o.color {
		switch level {
		case ports.LevelWarn:
			b.WriteString("WARN ")
		case ports.LevelError:
			b.WriteString("ERROR ")
		}
	}
	if l.component != "" {
		b.WriteString(o.paint(componentColor(l.component), "["+l.component+"]"))
		b.WriteByte(' ')
	}

	text := l10n.F(msg, args...)
	switch level {
	case ports.LevelDebug:
		text = o.paint(ansiGray, text)
	case ports.LevelWarn:
		text = o.paint(ansiYellow, text)
	case ports.LevelError:
		text = o.paint(ansiRed, text)
	}
	b.WriteString(text)
	b.WriteByte('\n')

	w := o.out
	if level >= ports.LevelWarn {
		w = o.errOut
	}
	o.mu.Lock()
	io.WriteString(w, b.String())
	o.mu.Unlock()
}

func (o *output) paint(code, s string) string {
	if !o.color {
		return s
	}
	return code + s + ansiReset
}

// componentColor picks the color of the innermost known component.
func componentColor(component string) string {
	parts := strings.Split(component, "/")
	for i := len(parts) - 1; i >= 0; i-- {
		if c, ok := stageColors[parts[i]]; ok {
			return c
		}
	}
	return ansiCyan
}

var _ ports.Logger = (*ConsoleLogger)(nil)
