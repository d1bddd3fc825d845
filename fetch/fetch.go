// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/sensmetry/sysand/errs"
	"github.com/sensmetry/sysand/index"
	"github.com/sensmetry/sysand/store"
)

// Result is what a successful Fetch returns: a materialised Store, and
// whether the environment should install it by reference (Editable)
// rather than by copy.
type Result struct {
	Store    store.Store
	Editable bool
	// LocalPath is set for filesystem-backed results (LocalDir, GitRef
	// once cloned, Editable; archive sources are extracted into memory
	// and leave it empty) so callers that need
	// to copy/rename the materialised tree can do so without re-deriving
	// it from the Store.
	LocalPath string
}

// Options controls one Fetch call.
type Options struct {
	// ExpectedChecksum, if non-empty, is the SHA-256 hex digest the
	// fetched bytes must match (for archive-shaped sources); a mismatch
	// is fatal before the store is returned, per §4.4.
	ExpectedChecksum string
	Retry            RetryPolicy
}

// Fetcher materialises Project Stores from source descriptors. One
// Fetcher may be used concurrently: concurrent fetches of different
// descriptors do not interfere, and concurrent fetches of the same
// descriptor are safe to run (they may duplicate work, never corrupt
// results), per §5.
type Fetcher struct {
	HTTP        store.RoundTripper
	ByteCache   string // directory for downloaded/cloned artifacts
	RetryPolicy RetryPolicy
	VCS         VCSClient
}

// New returns a Fetcher using the byte cache directory cacheDir for
// downloads and git clones.
func New(httpClient store.RoundTripper, cacheDir string) *Fetcher {
	return &Fetcher{
		HTTP:        httpClient,
		ByteCache:   cacheDir,
		RetryPolicy: DefaultRetryPolicy,
		VCS:         defaultVCSClient{},
	}
}

// Fetch dispatches src to its concrete implementation. ctx cancellation is
// honoured by every network/clone path; on cancellation no partial
// artifact is left visible on disk, per §4.4/§5.
func (f *Fetcher) Fetch(ctx context.Context, src Source, opts Options) (Result, error) {
	policy := opts.Retry
	if policy.Attempts == 0 {
		policy = f.RetryPolicy
	}

	var res Result
	var err error
	switch s := src.(type) {
	case LocalDir:
		res, err = f.fetchLocalDir(ctx, s.Path, opts.ExpectedChecksum)
	case Editable:
		res, err = f.fetchEditable(ctx, s.Path, opts.ExpectedChecksum)
	case LocalKpar:
		res, err = f.fetchLocalKpar(ctx, s.Path, opts.ExpectedChecksum)
	case RemoteDir:
		res, err = f.fetchRemoteDir(ctx, s.URL)
	case RemoteKpar:
		res, err = f.fetchRemoteKpar(ctx, s.URL, opts.ExpectedChecksum, policy)
	case GitRef:
		res, err = f.fetchGitRef(ctx, s, opts.ExpectedChecksum, policy)
	case IndexLookup:
		res, err = f.fetchIndexLookup(ctx, s, opts.ExpectedChecksum, policy)
	default:
		return Result{}, errs.New(errs.InvalidValue, "", nil, "unknown source descriptor")
	}
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func verifyChecksum(data []byte, expected string) error {
	if expected == "" {
		return nil
	}
	sum := sha256.Sum256(data)
	got := hex.EncodeToString(sum[:])
	if got != expected {
		return errs.New(errs.ChecksumMismatch, "", nil, "expected %s, got %s", expected, got)
	}
	return nil
}

func (f *Fetcher) fetchIndexLookup(ctx context.Context, s IndexLookup, expectedChecksum string, policy RetryPolicy) (Result, error) {
	idx := index.New(s.IndexURL, f.HTTP)
	entries, err := idx.VersionsFor(ctx, s.IRI)
	if err != nil {
		return Result{}, errs.New(errs.Network, s.IndexURL, err, "cannot list index entries")
	}
	for _, e := range entries {
		if e.Version == s.Version {
			return f.fetchRemoteKpar(ctx, idx.KparURL(e.Digest, e.Version), expectedChecksum, policy)
		}
	}
	return Result{}, errs.New(errs.InvalidValue, s.IRI, nil, "version %s not found in index %s", s.Version, s.IndexURL)
}
