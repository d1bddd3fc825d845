// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ui is a minimal leveled logger threaded explicitly through call
// sites rather than kept as package-level global state.
package ui

import (
	"fmt"
	"io"
)

// Logger wraps a single writer, used for both normal and verbose output, and
// a verbosity flag. The zero Logger discards everything.
type Logger struct {
	Out     io.Writer
	Verbose bool
}

// New returns a Logger writing to w.
func New(w io.Writer, verbose bool) *Logger {
	return &Logger{Out: w, Verbose: verbose}
}

// Logf writes a formatted line unconditionally.
func (l *Logger) Logf(format string, args ...interface{}) {
	if l == nil || l.Out == nil {
		return
	}
	fmt.Fprintf(l.Out, "sysand: "+format+"\n", args...)
}

// Vlogf writes a formatted line only when verbose logging is enabled.
func (l *Logger) Vlogf(format string, args ...interface{}) {
	if l == nil || !l.Verbose {
		return
	}
	l.Logf(format, args...)
}
