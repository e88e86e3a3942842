// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hybrid

import (
	"fmt"
	"io"
)

// LogLevel controls the verbosity of Logger output.
type LogLevel int

const (
	// LogNoop disables all output.
	LogNoop LogLevel = -1
	// LogSummary prints one line when the optimizer terminates.
	LogSummary LogLevel = 0
	// LogTrace also prints one line per completed step (method, Q, trial Q,
	// μ and δ); a step that returns early (an invalid proposal or a failure
	// bit) prints nothing.
	LogTrace LogLevel = 1
)

// Logger reports iteration progress. The zero value is silent.
// Writers must be thread-safe if shared across optimizers.
type Logger struct {
	Level LogLevel
	Trace io.Writer // per-step diagnostics
	Sum   io.Writer // termination summary
}

func (l *Logger) enable(level LogLevel) bool {
	return l != nil && l.Level >= level
}

func (l *Logger) trace(format string, a ...any) {
	if l.enable(LogTrace) && l.Trace != nil {
		_, _ = fmt.Fprintf(l.Trace, format, a...)
	}
}

func (l *Logger) summary(format string, a ...any) {
	if l.enable(LogSummary) && l.Sum != nil {
		_, _ = fmt.Fprintf(l.Sum, format, a...)
	}
}
