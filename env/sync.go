// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package env

import (
	"context"

	"github.com/sensmetry/sysand/errs"
	"github.com/sensmetry/sysand/fetch"
	"github.com/sensmetry/sysand/lockfile"
)

// Sync installs every pinned entry in lf not already present at the right
// digest+version, trying each entry's source list in order until one
// succeeds, per §4.7. It never removes entries already installed beyond
// what lf pins.
func (e *Env) Sync(ctx context.Context, lf lockfile.Lockfile) ([]lockfile.Change, error) {
	before, err := e.lockSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	for _, p := range lf.Project {
		if len(p.Identifiers) == 0 {
			continue
		}
		primary := p.Identifiers[0]
		if e.alreadyAt(primary, p.Version) {
			continue
		}

		var lastErr error
		installed := false
		for _, s := range p.Sources {
			src := toFetchSource(s)
			if src == nil {
				continue
			}
			err := e.Install(ctx, primary, p.Version, src, InstallOptions{ExpectChecksum: p.Checksum.Value})
			if err == nil {
				installed = true
				break
			}
			lastErr = err
		}
		if !installed {
			if lastErr == nil {
				lastErr = errs.New(errs.InvalidValue, primary, nil, "no usable source in lockfile entry")
			}
			return nil, lastErr
		}
	}

	after, err := e.lockSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return lockfile.Diff(before, after), nil
}

func (e *Env) alreadyAt(iriStr, v string) bool {
	entries, err := e.readEntries()
	if err != nil {
		return false
	}
	for _, en := range entries {
		if en.IRI == iriStr && en.Version == v {
			return true
		}
	}
	return false
}

// lockSnapshot renders the environment's current entries.txt as a
// Lockfile (without checksums/sources, which entries.txt does not carry)
// so Sync can compute a before/after Diff.
func (e *Env) lockSnapshot(ctx context.Context) (lockfile.Lockfile, error) {
	entries, err := e.readEntries()
	if err != nil {
		return lockfile.Lockfile{}, err
	}
	lf := lockfile.Lockfile{}
	for _, en := range entries {
		lf.Project = append(lf.Project, lockfile.Project{
			Identifiers: []string{en.IRI},
			Version:     en.Version,
		})
	}
	return lf, nil
}

func toFetchSource(s lockfile.Source) fetch.Source {
	switch {
	case s.SrcPath != "":
		return fetch.LocalDir{Path: s.SrcPath}
	case s.KparPath != "":
		return fetch.LocalKpar{Path: s.KparPath}
	case s.Editable != "":
		return fetch.Editable{Path: s.Editable}
	case s.RemoteSrc != "":
		return fetch.RemoteDir{URL: s.RemoteSrc}
	case s.RemoteKpar != "":
		return fetch.RemoteKpar{URL: s.RemoteKpar}
	case s.RemoteGit != "":
		return fetch.GitRef{URL: s.RemoteGit}
	default:
		return nil
	}
}
