// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lockfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffDetectsAddedRemovedModified(t *testing.T) {
	old := Lockfile{Project: []Project{
		{Identifiers: []string{"urn:kpar:a"}, Version: "1.0.0"},
		{Identifiers: []string{"urn:kpar:b"}, Version: "1.0.0"},
	}}
	new := Lockfile{Project: []Project{
		{Identifiers: []string{"urn:kpar:a"}, Version: "1.1.0"},
		{Identifiers: []string{"urn:kpar:c"}, Version: "1.0.0"},
	}}

	changes := Diff(old, new)
	require := assert.New(t)
	require.Len(changes, 3)

	byID := map[string]Change{}
	for _, c := range changes {
		byID[c.Identifier] = c
	}

	require.Equal(Modified, byID["urn:kpar:a"].Kind)
	require.Equal("1.0.0", byID["urn:kpar:a"].PreviousVersion)
	require.Equal("1.1.0", byID["urn:kpar:a"].CurrentVersion)

	require.Equal(Removed, byID["urn:kpar:b"].Kind)
	require.Equal(Added, byID["urn:kpar:c"].Kind)
}

func TestDiffNoChanges(t *testing.T) {
	lf := Lockfile{Project: []Project{{Identifiers: []string{"urn:kpar:a"}, Version: "1.0.0"}}}
	assert.Empty(t, Diff(lf, lf))
}

func TestDiffIsSortedByIdentifier(t *testing.T) {
	old := Lockfile{}
	new := Lockfile{Project: []Project{
		{Identifiers: []string{"urn:kpar:z"}, Version: "1.0.0"},
		{Identifiers: []string{"urn:kpar:a"}, Version: "1.0.0"},
	}}
	changes := Diff(old, new)
	require := assert.New(t)
	require.Len(changes, 2)
	require.Equal("urn:kpar:a", changes[0].Identifier)
	require.Equal("urn:kpar:z", changes[1].Identifier)
}

func TestChangeKindString(t *testing.T) {
	assert.Equal(t, "added", Added.String())
	assert.Equal(t, "removed", Removed.String())
	assert.Equal(t, "modified", Modified.String())
	assert.Equal(t, "unknown", ChangeKind(99).String())
}
