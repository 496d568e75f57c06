// SPDX-License-Identifier: Apache-2.0

package runner

import "github.com/pterm/pterm"

// Logger is responsible for logging a migration run's progress. The
// runner never fails because of a logging call.
type Logger interface {
	Info(msg string, args ...any)
}

type ptermLogger struct {
	logger pterm.Logger
}

// NewLogger returns a Logger backed by pterm's structured logger.
func NewLogger() Logger {
	return &ptermLogger{logger: pterm.DefaultLogger}
}

func (l *ptermLogger) Info(msg string, args ...any) {
	l.logger.Info(msg, l.logger.Args(args...))
}

type noopLogger struct{}

// NewNoopLogger returns a Logger that discards everything, the Runner's
// default.
func NewNoopLogger() Logger {
	return &noopLogger{}
}

func (*noopLogger) Info(string, ...any) {}
