// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogfAlwaysWrites(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Logf("hello %s", "world")
	assert.Equal(t, "sysand: hello world\n", buf.String())
}

func TestVlogfRespectsVerbose(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, false)
	l.Vlogf("quiet")
	assert.Empty(t, buf.String())

	l.Verbose = true
	l.Vlogf("loud")
	assert.Equal(t, "sysand: loud\n", buf.String())
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() {
		l.Logf("x")
		l.Vlogf("y")
	})
}

func TestZeroLoggerDiscards(t *testing.T) {
	var l Logger
	assert.NotPanics(t, func() {
		l.Logf("x")
	})
}
