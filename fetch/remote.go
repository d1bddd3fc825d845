// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"path/filepath"

	"github.com/sensmetry/sysand/errs"
	"github.com/sensmetry/sysand/internal/fsutil"
	"github.com/sensmetry/sysand/kpar"
	"github.com/sensmetry/sysand/store"
)

// fetchRemoteDir opens an HTTP-served directory read-only. Nothing is
// downloaded up front; bytes are pulled lazily as the caller reads keys.
func (f *Fetcher) fetchRemoteDir(ctx context.Context, url string) (Result, error) {
	s := store.NewHTTP(url, f.HTTP)
	ok, err := s.Exists(ctx)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, errs.New(errs.Network, url, nil, "remote directory source does not answer")
	}
	return Result{Store: s}, nil
}

// fetchRemoteKpar downloads url into the byte cache under a content-addressed
// name, verifies expectedChecksum if given, then extracts it exactly like a
// local .kpar.
func (f *Fetcher) fetchRemoteKpar(ctx context.Context, url, expectedChecksum string, policy RetryPolicy) (Result, error) {
	var body []byte
	err := withRetry(ctx, policy, func(ctx context.Context) error {
		b, ferr := download(ctx, f.HTTP, url)
		if ferr != nil {
			return ferr
		}
		body = b
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if err := verifyChecksum(body, expectedChecksum); err != nil {
		return Result{}, err
	}

	if f.ByteCache != "" {
		sum := sha256.Sum256(body)
		name := filepath.Join(f.ByteCache, hex.EncodeToString(sum[:])+".kpar")
		if err := fsutil.AtomicWriteFile(name, body, 0o644); err != nil {
			return Result{}, wrapIo(name, err, "cannot cache downloaded archive")
		}
	}

	dst := store.NewMemory()
	if err := kpar.Unpack(ctx, bytesReaderAt(body), int64(len(body)), dst); err != nil {
		return Result{}, err
	}
	return Result{Store: dst}, nil
}

func download(ctx context.Context, rt store.RoundTripper, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.New(errs.Network, url, err, "cannot build request")
	}
	resp, err := rt.Do(req)
	if err != nil {
		return nil, errs.New(errs.Network, url, err, "request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		e := errs.New(errs.Network, url, nil, "unexpected status %d", resp.StatusCode)
		e.Status = resp.StatusCode
		return nil, e
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.New(errs.Network, url, err, "cannot read response body")
	}
	return b, nil
}
