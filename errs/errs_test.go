// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	cases := []struct {
		k    Kind
		want string
	}{
		{InvalidProject, "InvalidProject"},
		{ChecksumMismatch, "ChecksumMismatch"},
		{Cancelled, "Cancelled"},
		{Kind(255), "Unknown"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.k.String())
	}
}

func TestNewWrapsCauseAndQuotesInput(t *testing.T) {
	cause := errors.New("disk full")
	err := New(Io, "/tmp/project", cause, "cannot write %s", "project.kpar")

	assert.Equal(t, Io, err.Kind)
	assert.Contains(t, err.Error(), `"/tmp/project"`)
	assert.Contains(t, err.Error(), "Io")
	assert.ErrorIs(t, err, cause)
}

func TestNewWithoutInputOmitsQuotes(t *testing.T) {
	err := New(Network, "", nil, "connection refused")
	assert.NotContains(t, err.Error(), `""`)
}

func TestIs(t *testing.T) {
	err := New(VersionConflict, "1.0.0", nil, "conflicting versions")
	assert.True(t, Is(err, VersionConflict))
	assert.False(t, Is(err, Unsatisfiable))
	assert.False(t, Is(errors.New("plain"), VersionConflict))
}

func TestCauseAndUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(Io, "x", cause, "wrapping")
	assert.NotNil(t, err.Cause())
	assert.True(t, errors.Is(err.Cause(), cause))
}
