// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package index implements the index client: an index is just an
// HTTP-exposed environment directory (§4.6/§4.7). The client enumerates
// entries via entries.txt and builds the URL for a specific version.
package index

import (
	"context"
	"strings"

	"github.com/sensmetry/sysand/errs"
	"github.com/sensmetry/sysand/store"
	"github.com/sensmetry/sysand/version"
)

// Entry is one line of an index's entries.txt: "iri<SP>version<SP>digest".
type Entry struct {
	IRI     string
	Version string
	Digest  string
}

// Client lists and resolves entries against one index URL.
type Client struct {
	BaseURL string
	store   *store.HTTP

	// Cache, if set, is consulted before re-fetching entries.txt and
	// populated after a successful fetch. Resolution re-lists the same
	// index once per usage of every IRI it carries (§4.8 step 4), so a
	// resolver working through a large usage graph would otherwise
	// refetch an unchanged entries.txt many times over.
	Cache *BoltCache
}

// New opens an index client against baseURL.
func New(baseURL string, rt store.RoundTripper) *Client {
	return &Client{BaseURL: strings.TrimSuffix(baseURL, "/"), store: store.NewHTTP(baseURL, rt)}
}

// List fetches and parses entries.txt, per §4.6.
func (c *Client) List(ctx context.Context) ([]Entry, error) {
	if c.Cache != nil {
		if entries, ok := c.Cache.Get(c.BaseURL); ok {
			return entries, nil
		}
	}

	raw, err := c.store.Read(ctx, "entries.txt")
	if err != nil {
		return nil, errs.New(errs.Network, c.BaseURL, err, "cannot fetch index entries")
	}
	var entries []Entry
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, errs.New(errs.Serialisation, line, nil, "malformed entries.txt line")
		}
		entries = append(entries, Entry{IRI: fields[0], Version: fields[1], Digest: fields[2]})
	}

	if c.Cache != nil {
		_ = c.Cache.Put(c.BaseURL, entries)
	}
	return entries, nil
}

// VersionsFor returns every version listed for iri, in the order entries.txt
// lists them (unsorted), along with the entry carrying each version's digest.
func (c *Client) VersionsFor(ctx context.Context, iri string) ([]Entry, error) {
	all, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range all {
		if e.IRI == iri {
			out = append(out, e)
		}
	}
	return out, nil
}

// KparURL builds the URL of a specific (digest, version)'s archive, per
// the §4.7 layout the index reuses.
func (c *Client) KparURL(digest, ver string) string {
	return c.BaseURL + "/" + digest + "/" + ver + ".kpar"
}

// ParseVersions parses raw version strings, skipping (but not failing on)
// entries whose version does not parse, since a misbehaving index entry
// for one IRI should not prevent resolving any other.
func ParseVersions(entries []Entry) map[string]version.Version {
	out := make(map[string]version.Version, len(entries))
	for _, e := range entries {
		if v, err := version.Parse(e.Version); err == nil {
			out[e.Version] = v
		}
	}
	return out
}
