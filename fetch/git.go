// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/sensmetry/sysand/errs"
	"github.com/sensmetry/sysand/internal/fsutil"
	"github.com/sensmetry/sysand/store"
)

// fetchGitRef clones s.URL into a content-addressed directory under the
// byte cache, checks out s.Rev if given, and opens s.Subpath (or the clone
// root) as a local directory store. The clone itself is cancellation-safe:
// it lands in a scratch directory first and is only renamed into its final
// cache slot once Clone succeeds, so a cancelled fetch leaves nothing
// visible under the cache's stable names.
func (f *Fetcher) fetchGitRef(ctx context.Context, s GitRef, expectedChecksum string, policy RetryPolicy) (Result, error) {
	if f.ByteCache == "" {
		return Result{}, errs.New(errs.InvalidWorkspace, s.URL, nil, "git sources require a byte cache directory")
	}

	sum := sha256.Sum256([]byte(s.String()))
	final := filepath.Join(f.ByteCache, "git-"+hex.EncodeToString(sum[:])[:16])

	if ok, _ := fsutil.IsDir(final); !ok {
		scratch := final + ".tmp"
		if err := os.RemoveAll(scratch); err != nil {
			return Result{}, wrapIo(scratch, err, "cannot clear scratch clone directory")
		}

		err := withRetry(ctx, policy, func(ctx context.Context) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if err := os.RemoveAll(scratch); err != nil {
				return err
			}
			return f.VCS.Clone(s.URL, scratch, s.Rev)
		})
		if err != nil {
			os.RemoveAll(scratch)
			if ctx.Err() != nil {
				return Result{}, errs.New(errs.Cancelled, s.URL, ctx.Err(), "git fetch cancelled")
			}
			return Result{}, errs.New(errs.Network, s.URL, err, "cannot clone git source")
		}

		if err := fsutil.RenameWithFallback(scratch, final); err != nil {
			os.RemoveAll(scratch)
			return Result{}, wrapIo(final, err, "cannot place cloned repository into cache")
		}
	}

	root := final
	if s.Subpath != "" {
		root = filepath.Join(final, filepath.FromSlash(s.Subpath))
	}

	dir := store.NewLocalDir(root)
	ok, err := dir.Exists(ctx)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, errs.New(errs.InvalidValue, s.Subpath, nil, "subpath not found in cloned repository")
	}

	if expectedChecksum != "" {
		got, err := fsutil.HashTree(root)
		if err != nil {
			return Result{}, errs.New(errs.Io, root, err, "cannot hash cloned repository")
		}
		if got != expectedChecksum {
			return Result{}, errs.New(errs.ChecksumMismatch, root, nil, "expected %s, got %s", expectedChecksum, got)
		}
	}

	return Result{Store: dir, LocalPath: root}, nil
}
