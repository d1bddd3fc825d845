// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/karrick/godirwalk"

	"github.com/sensmetry/sysand/errs"
	"github.com/sensmetry/sysand/internal/fsutil"
)

// LocalDir is a Store backed by a directory on the local filesystem. Writes
// go to a temp file and atomic-rename, per §4.1(a).
type LocalDir struct {
	Root string
}

// NewLocalDir opens root as a local-directory store. The directory need not
// yet exist; Exists reports false until something is written, or the caller
// can create it up front.
func NewLocalDir(root string) *LocalDir {
	return &LocalDir{Root: root}
}

func (s *LocalDir) Exists(context.Context) (bool, error) {
	return fsutil.IsDir(s.Root)
}

func (s *LocalDir) Read(_ context.Context, key string) ([]byte, error) {
	p, err := fsutil.SafeJoin(s.Root, key)
	if err != nil {
		return nil, errs.New(errs.InvalidValue, key, err, "invalid store key")
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, errs.New(errs.Io, key, err, "cannot read project file")
	}
	return data, nil
}

func (s *LocalDir) Write(_ context.Context, key string, data []byte) error {
	p, err := fsutil.SafeJoin(s.Root, key)
	if err != nil {
		return errs.New(errs.InvalidValue, key, err, "invalid store key")
	}
	if err := fsutil.AtomicWriteFile(p, data, 0o644); err != nil {
		return errs.New(errs.Io, key, err, "cannot write project file")
	}
	return nil
}

func (s *LocalDir) Remove(_ context.Context, key string) error {
	p, err := fsutil.SafeJoin(s.Root, key)
	if err != nil {
		return errs.New(errs.InvalidValue, key, err, "invalid store key")
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errs.New(errs.Io, key, err, "cannot remove project file")
	}
	return nil
}

func (s *LocalDir) List(context.Context) ([]string, error) {
	exists, err := fsutil.IsDir(s.Root)
	if err != nil {
		return nil, errs.New(errs.Io, s.Root, err, "cannot stat project directory")
	}
	if !exists {
		return nil, nil
	}

	var keys []string
	err = godirwalk.Walk(s.Root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			rel, rerr := filepath.Rel(s.Root, path)
			if rerr != nil {
				return rerr
			}
			keys = append(keys, filepath.ToSlash(rel))
			return nil
		},
		Unsorted: true,
	})
	if err != nil {
		return nil, errs.New(errs.Io, s.Root, err, "cannot walk project directory")
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *LocalDir) ReadOnly() bool { return false }

func (s *LocalDir) Close() error { return nil }

var _ Store = (*LocalDir)(nil)
