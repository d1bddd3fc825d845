// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/sensmetry/sysand/errs"
	"github.com/sensmetry/sysand/internal/fsutil"
)

// Archive is a Store backed by an in-memory zip index, per §4.1(b). Reads
// and writes operate against the index; Flush re-serialises it to Path.
// The deterministic, compression-selecting serialisation used for
// distributable .kpar files lives in package kpar, which builds archives
// by packing a Store (often a Memory or LocalDir) rather than by flushing
// one of these directly — Archive itself makes no ordering or compression
// guarantees beyond "the last Flush wins".
type Archive struct {
	mu   sync.RWMutex
	Path string
	data map[string][]byte
}

// OpenArchive reads the zip file at path into memory. The file need not
// exist yet (useful when creating a new project); Exists then reports
// false until the first Flush.
func OpenArchive(path string) (*Archive, error) {
	a := &Archive{Path: path, data: make(map[string][]byte)}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return a, nil
	}
	if err != nil {
		return nil, errs.New(errs.Io, path, err, "cannot open archive")
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, errs.New(errs.Io, path, err, "cannot stat archive")
	}

	zr, err := zip.NewReader(f, fi.Size())
	if err != nil {
		return nil, errs.New(errs.Serialisation, path, err, "cannot read archive as zip")
	}

	for _, zf := range zr.File {
		if err := guardEntryPath(zf.Name); err != nil {
			return nil, err
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, errs.New(errs.Serialisation, path, err, "cannot open archive entry %q", zf.Name)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errs.New(errs.Serialisation, path, err, "cannot read archive entry %q", zf.Name)
		}
		a.data[zf.Name] = b
	}
	return a, nil
}

func guardEntryPath(name string) error {
	if _, err := fsutil.SafeJoin("/", name); err != nil {
		return errs.New(errs.InvalidValue, name, err, "archive entry escapes root")
	}
	return nil
}

func (a *Archive) Exists(context.Context) (bool, error) {
	_, err := os.Stat(a.Path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errs.New(errs.Io, a.Path, err, "cannot stat archive")
	}
	return true, nil
}

func (a *Archive) Read(_ context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	b, ok := a.data[key]
	if !ok {
		return nil, errs.New(errs.Io, key, nil, "key not found in archive")
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (a *Archive) Write(_ context.Context, key string, data []byte) error {
	if err := guardEntryPath(key); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	a.data[key] = cp
	return nil
}

func (a *Archive) Remove(_ context.Context, key string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.data, key)
	return nil
}

func (a *Archive) List(context.Context) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	keys := make([]string, 0, len(a.data))
	for k := range a.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (a *Archive) ReadOnly() bool { return false }

// Flush re-serialises the in-memory index to Path via temp-then-rename.
func (a *Archive) Flush(context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	keys := make([]string, 0, len(a.data))
	for k := range a.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		w, err := zw.Create(k)
		if err != nil {
			return errs.New(errs.Serialisation, k, err, "cannot add archive entry")
		}
		if _, err := w.Write(a.data[k]); err != nil {
			return errs.New(errs.Serialisation, k, err, "cannot write archive entry")
		}
	}
	if err := zw.Close(); err != nil {
		return errs.New(errs.Serialisation, a.Path, err, "cannot finalise archive")
	}

	if err := fsutil.AtomicWriteFile(a.Path, buf.Bytes(), 0o644); err != nil {
		return errs.New(errs.Io, a.Path, err, "cannot write archive")
	}
	return nil
}

func (a *Archive) Close() error { return nil }

var (
	_ Store   = (*Archive)(nil)
	_ Flusher = (*Archive)(nil)
)
