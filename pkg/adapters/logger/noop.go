package logger

import "github.com/user/pivotseg/pkg/ports"

// NoopLogger discards everything. It backs --quiet and most tests.
type NoopLogger struct{}

// NewNoop returns a NoopLogger.
func NewNoop() *NoopLogger { return &NoopLogger{} }

func (*NoopLogger) Debug(string, ...interface{})        {}
func (*NoopLogger) Info(string, ...interface{})         {}
func (*NoopLogger) Warn(string, ...interface{})         {}
func (*NoopLogger) Error(string, ...interface{})        {}
func (l *NoopLogger) WithComponent(string) ports.Logger { return l }

var _ ports.Logger = (*NoopLogger)(nil)
