// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fetch

import (
	"context"

	"github.com/sensmetry/sysand/errs"
	"github.com/sensmetry/sysand/internal/fsutil"
	"github.com/sensmetry/sysand/kpar"
	"github.com/sensmetry/sysand/store"
)

// fetchLocalDir opens path as a local-directory store. Unlike archive
// sources, a directory has no single blob to hash; if the caller supplied
// an expected digest, fsutil.HashTree verifies the tree's deterministic
// content hash before the store is returned.
func (f *Fetcher) fetchLocalDir(ctx context.Context, path, expectedChecksum string) (Result, error) {
	s := store.NewLocalDir(path)
	ok, err := s.Exists(ctx)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, errs.New(errs.Io, path, nil, "local directory source does not exist")
	}
	if expectedChecksum != "" {
		got, err := fsutil.HashTree(path)
		if err != nil {
			return Result{}, errs.New(errs.Io, path, err, "cannot hash local directory source")
		}
		if got != expectedChecksum {
			return Result{}, errs.New(errs.ChecksumMismatch, path, nil, "expected %s, got %s", expectedChecksum, got)
		}
	}
	return Result{Store: s, Editable: false, LocalPath: path}, nil
}

// fetchEditable is identical to fetchLocalDir except that the result is
// marked Editable. Env.Install does not consult that mark: it copies an
// editable source into the environment like any other local directory.
func (f *Fetcher) fetchEditable(ctx context.Context, path, expectedChecksum string) (Result, error) {
	res, err := f.fetchLocalDir(ctx, path, expectedChecksum)
	if err != nil {
		return Result{}, err
	}
	res.Editable = true
	return res, nil
}

// fetchLocalKpar extracts a local .kpar file into an in-memory store,
// verifying the archive's recorded per-file checksums (via kpar.Unpack) and,
// if the caller supplied one, the whole-archive digest.
func (f *Fetcher) fetchLocalKpar(ctx context.Context, path, expectedChecksum string) (Result, error) {
	raw, err := readWholeFile(path)
	if err != nil {
		return Result{}, errs.New(errs.Io, path, err, "cannot read kpar archive")
	}
	if err := verifyChecksum(raw, expectedChecksum); err != nil {
		return Result{}, err
	}

	dst := store.NewMemory()
	if err := kpar.Unpack(ctx, bytesReaderAt(raw), int64(len(raw)), dst); err != nil {
		return Result{}, err
	}
	return Result{Store: dst}, nil
}
