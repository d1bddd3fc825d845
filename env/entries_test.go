// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package env

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensmetry/sysand/fetch"
)

func TestAppendEntryIsIdempotent(t *testing.T) {
	e := newTestEnv(t, nil)
	require.NoError(t, e.appendEntry("urn:kpar:a", "1.0.0", "digest1"))
	require.NoError(t, e.appendEntry("urn:kpar:a", "1.0.0", "digest1"))

	entries, err := e.readEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteEntriesSortsByIRIThenVersion(t *testing.T) {
	e := newTestEnv(t, nil)
	require.NoError(t, e.writeEntries([]Entry{
		{IRI: "urn:kpar:b", Version: "1.0.0", Digest: "d2"},
		{IRI: "urn:kpar:a", Version: "2.0.0", Digest: "d1"},
		{IRI: "urn:kpar:a", Version: "1.0.0", Digest: "d1"},
	}))

	entries, err := e.readEntries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "1.0.0", entries[0].Version)
	assert.Equal(t, "2.0.0", entries[1].Version)
	assert.Equal(t, "urn:kpar:b", entries[2].IRI)
}

func TestReadEntriesMissingFileIsNotError(t *testing.T) {
	e := newTestEnv(t, nil)
	entries, err := e.readEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadEntriesRejectsMalformedLine(t *testing.T) {
	e := newTestEnv(t, nil)
	require.NoError(t, os.WriteFile(e.entriesPath(), []byte("urn:kpar:a only-one-more-field\n"), 0o644))

	_, err := e.readEntries()
	assert.Error(t, err)
}

func TestRewriteEntriesDropsUninstalledTargets(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	writeProjectDir(t, src, "a", "1.0.0", "")

	e := newTestEnv(t, nil)
	require.NoError(t, e.Install(ctx, "urn:kpar:a", "1.0.0", fetch.LocalDir{Path: src}, InstallOptions{}))

	before, err := e.readEntries()
	require.NoError(t, err)
	require.Len(t, before, 1)
	require.NoError(t, os.RemoveAll(e.entryPath(before[0].Digest, before[0].Version)))

	require.NoError(t, e.rewriteEntries())

	entries, err := e.readEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
