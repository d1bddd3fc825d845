// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensmetry/sysand/internal/fsutil"
	"github.com/sensmetry/sysand/kpar"
	"github.com/sensmetry/sysand/store"
)

func writeProjectDir(t *testing.T, root string) {
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".project.json"), []byte(`{"name":"example","version":"1.0.0","usage":[]}`), 0o644))
}

func buildKparBytes(t *testing.T) []byte {
	ctx := context.Background()
	src := store.NewMemory()
	require.NoError(t, src.Write(ctx, ".project.json", []byte(`{"name":"example","version":"1.0.0","usage":[]}`)))
	b, err := kpar.PackToBytes(ctx, src, kpar.Stored)
	require.NoError(t, err)
	return b
}

func TestFetchLocalDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeProjectDir(t, dir)

	f := New(nil, t.TempDir())
	res, err := f.Fetch(ctx, LocalDir{Path: dir}, Options{})
	require.NoError(t, err)
	assert.False(t, res.Editable)
	assert.Equal(t, dir, res.LocalPath)
}

func TestFetchLocalDirVerifiesChecksum(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeProjectDir(t, dir)

	sum, err := fsutil.HashTree(dir)
	require.NoError(t, err)

	f := New(nil, t.TempDir())
	_, err = f.Fetch(ctx, LocalDir{Path: dir}, Options{ExpectedChecksum: sum})
	assert.NoError(t, err)

	_, err = f.Fetch(ctx, LocalDir{Path: dir}, Options{ExpectedChecksum: "wrong"})
	assert.Error(t, err)
}

func TestFetchEditableMarksResult(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeProjectDir(t, dir)

	f := New(nil, t.TempDir())
	res, err := f.Fetch(ctx, Editable{Path: dir}, Options{})
	require.NoError(t, err)
	assert.True(t, res.Editable)
}

func TestFetchLocalKpar(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	kparPath := filepath.Join(dir, "project.kpar")
	require.NoError(t, os.WriteFile(kparPath, buildKparBytes(t), 0o644))

	f := New(nil, t.TempDir())
	res, err := f.Fetch(ctx, LocalKpar{Path: kparPath}, Options{})
	require.NoError(t, err)
	got, err := res.Store.Read(ctx, ".project.json")
	require.NoError(t, err)
	assert.Contains(t, string(got), "example")
}

func TestFetchLocalKparChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	kparPath := filepath.Join(dir, "project.kpar")
	require.NoError(t, os.WriteFile(kparPath, buildKparBytes(t), 0o644))

	f := New(nil, t.TempDir())
	_, err := f.Fetch(ctx, LocalKpar{Path: kparPath}, Options{ExpectedChecksum: "deadbeef"})
	assert.Error(t, err)
}

func TestFetchRemoteDir(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/.project.json" {
			w.Write([]byte(`{"name":"example","version":"1.0.0","usage":[]}`))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	f := New(srv.Client(), t.TempDir())
	res, err := f.Fetch(ctx, RemoteDir{URL: srv.URL}, Options{})
	require.NoError(t, err)
	got, err := res.Store.Read(ctx, ".project.json")
	require.NoError(t, err)
	assert.Contains(t, string(got), "example")
}

func TestFetchRemoteKpar(t *testing.T) {
	ctx := context.Background()
	payload := buildKparBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	t.Cleanup(srv.Close)

	f := New(srv.Client(), t.TempDir())
	res, err := f.Fetch(ctx, RemoteKpar{URL: srv.URL + "/project.kpar"}, Options{})
	require.NoError(t, err)
	got, err := res.Store.Read(ctx, ".project.json")
	require.NoError(t, err)
	assert.Contains(t, string(got), "example")
}

type fakeVCS struct {
	cloned []string
}

func (f *fakeVCS) Clone(remote, localPath, rev string) error {
	f.cloned = append(f.cloned, remote)
	if err := os.MkdirAll(localPath, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(localPath, ".project.json"), []byte(`{"name":"example","version":"1.0.0","usage":[]}`), 0o644)
}

func TestFetchGitRef(t *testing.T) {
	ctx := context.Background()
	fv := &fakeVCS{}
	f := New(nil, t.TempDir())
	f.VCS = fv

	res, err := f.Fetch(ctx, GitRef{URL: "https://example.com/repo.git", Rev: "v1.0.0"}, Options{})
	require.NoError(t, err)
	got, err := res.Store.Read(ctx, ".project.json")
	require.NoError(t, err)
	assert.Contains(t, string(got), "example")
	assert.Equal(t, []string{"https://example.com/repo.git"}, fv.cloned)

	// A second fetch of the same ref must hit the cache, not clone again.
	_, err = f.Fetch(ctx, GitRef{URL: "https://example.com/repo.git", Rev: "v1.0.0"}, Options{})
	require.NoError(t, err)
	assert.Len(t, fv.cloned, 1)
}

func TestFetchGitRefRequiresByteCache(t *testing.T) {
	ctx := context.Background()
	f := New(nil, "")
	f.VCS = &fakeVCS{}
	_, err := f.Fetch(ctx, GitRef{URL: "https://example.com/repo.git"}, Options{})
	assert.Error(t, err)
}

func TestVerifyChecksum(t *testing.T) {
	data := []byte("hello")
	assert.NoError(t, verifyChecksum(data, ""))
	assert.Error(t, verifyChecksum(data, "wrong"))
}

func TestReadWholeFileAndBytesReaderAt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o644))

	b, err := readWholeFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(b))

	r := bytesReaderAt(b)
	buf := make([]byte, 4)
	n, err := r.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.True(t, bytes.Equal(buf, []byte("cont")))
}
