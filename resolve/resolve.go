// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resolve implements the resolver: turning a root project's usage
// list into a fully pinned dependency graph, per spec §4.8. The algorithm is
// a worklist-driven backtracking search over descending-SemVer candidate
// lists, structured the way the teacher's solver.go separates the abstract
// search (selectRoot/findValidVersion/backtrack) from the concrete source of
// candidates (a SourceManager/bridge) — here, the Provider interface.
package resolve

import (
	"context"
	"sort"
	"strings"

	"github.com/sensmetry/sysand/errs"
	"github.com/sensmetry/sysand/fetch"
	"github.com/sensmetry/sysand/project"
	"github.com/sensmetry/sysand/version"
)

// Candidate is one fetchable (version, checksum, source) triple for an IRI,
// per §4.8 step 4: explicit source overrides carry their own declared
// version, index entries their listed version. Neither carries a checksum
// commitment: the digest column of an index's entries.txt is the IRI's
// digest (the directory name in the layout), not a hash of the archive.
type Candidate struct {
	Version  version.Version
	Checksum project.Checksum
	Source   fetch.Source
}

// Provider supplies candidate versions and a project's own usage list to
// the resolver. It is the seam a test substitutes an in-memory fixture for,
// the way the teacher's solver depends on the SourceManager interface
// rather than concrete VCS/network code.
type Provider interface {
	// Candidates returns iri's known candidates sorted in descending
	// version order; among equal versions, source overrides come before
	// index listings.
	Candidates(ctx context.Context, iri string) ([]Candidate, error)
	// Usages returns the usage list declared by iri's descriptor at v.
	Usages(ctx context.Context, iri string, v version.Version) ([]project.Usage, error)
}

// Options controls resolver behaviour, per §4.8.
type Options struct {
	IncludeStd bool
	NoIndex    bool
	// IsStdlib classifies an IRI as part of the configured standard
	// library set; nil means nothing is ever filtered.
	IsStdlib func(iri string) bool
	// Warn receives human-readable warnings, e.g. "dropped standard-library
	// usage urn:kpar:stdlib/collections (include_std=false)".
	Warn func(msg string)
}

// PinnedEntry is one resolved (IRI, version) pair in the output graph.
type PinnedEntry struct {
	IRI        string
	Version    version.Version
	Checksum   project.Checksum
	Source     fetch.Source
	Constraint string // the merged constraint text this version satisfied
}

// Graph is a fully pinned dependency graph, sorted by IRI then version, per
// §4.8 step 7 and §5's lockfile ordering guarantee. IRIs are kept exactly as
// written in the usage lists; the resolver does not normalise them.
type Graph struct {
	Entries []PinnedEntry
}

func (g *Graph) sort() {
	sort.Slice(g.Entries, func(i, j int) bool {
		if g.Entries[i].IRI != g.Entries[j].IRI {
			return g.Entries[i].IRI < g.Entries[j].IRI
		}
		return g.Entries[i].Version.Less(g.Entries[j].Version)
	})
}

// Resolver runs the §4.8 algorithm against a Provider.
type Resolver struct {
	Provider Provider
	Options  Options
}

func New(p Provider, opts Options) *Resolver {
	return &Resolver{Provider: p, Options: opts}
}

type pendingUsage struct {
	iri        string
	constraint version.Constraint
	text       string
}

type iriState struct {
	constraints []version.Constraint
	texts       []string
}

func (s *iriState) matches(v version.Version) bool {
	for _, c := range s.constraints {
		if !c.Matches(v) {
			return false
		}
	}
	return true
}

func (s *iriState) joinedText() string {
	return strings.Join(s.texts, ", ")
}

// resolveState carries the in-progress search; it is mutated and rolled
// back in place as resolveQueue backtracks, rather than copied, mirroring
// the teacher's single mutable solver struct.
type resolveState struct {
	constraints map[string]*iriState
	selected    map[string]PinnedEntry
}

// Resolve runs the algorithm against root's usage list and returns the
// pinned graph, or an *errs.Error of kind Unsatisfiable naming the
// conflicting constraints.
func (r *Resolver) Resolve(ctx context.Context, root project.Info) (*Graph, error) {
	state := &resolveState{
		constraints: make(map[string]*iriState),
		selected:    make(map[string]PinnedEntry),
	}

	queue, err := r.seed(root.Usage)
	if err != nil {
		return nil, err
	}

	if err := r.resolveQueue(ctx, queue, state); err != nil {
		return nil, err
	}

	g := &Graph{}
	for _, e := range state.selected {
		g.Entries = append(g.Entries, e)
	}
	g.sort()
	return g, nil
}

func (r *Resolver) seed(usages []project.Usage) ([]pendingUsage, error) {
	var queue []pendingUsage
	for _, u := range usages {
		c, err := version.ParseConstraint(u.VersionConstraint)
		if err != nil {
			return nil, errs.New(errs.InvalidValue, u.VersionConstraint, err, "invalid version constraint for %s", u.Resource)
		}
		queue = append(queue, pendingUsage{iri: u.Resource, constraint: c, text: u.VersionConstraint})
	}
	return queue, nil
}

// resolveQueue processes the worklist recursively: it is the recursive
// analogue of the teacher's iterative solve() loop plus backtrack(), with
// Go's call stack standing in for the solver's explicit selection stack.
func (r *Resolver) resolveQueue(ctx context.Context, queue []pendingUsage, state *resolveState) error {
	if len(queue) == 0 {
		return nil
	}
	u, rest := queue[0], queue[1:]

	if ctx.Err() != nil {
		return errs.New(errs.Cancelled, u.iri, ctx.Err(), "resolution cancelled")
	}

	if r.Options.IsStdlib != nil && !r.Options.IncludeStd && r.Options.IsStdlib(u.iri) {
		if r.Options.Warn != nil {
			r.Options.Warn("dropped standard-library usage " + u.iri + " (include_std=false)")
		}
		return r.resolveQueue(ctx, rest, state)
	}

	st, existed := state.constraints[u.iri]
	if !existed {
		st = &iriState{}
		state.constraints[u.iri] = st
	}
	prevConstraints, prevTexts := st.constraints, st.texts
	st.constraints = append(append([]version.Constraint{}, prevConstraints...), u.constraint)
	st.texts = append(append([]string{}, prevTexts...), u.text)

	rollback := func() {
		if existed {
			st.constraints, st.texts = prevConstraints, prevTexts
		} else {
			delete(state.constraints, u.iri)
		}
	}

	if prev, ok := state.selected[u.iri]; ok {
		if !st.matches(prev.Version) {
			msg := st.joinedText()
			rollback()
			return errs.New(errs.Unsatisfiable, u.iri, nil, "version %s already selected for %s conflicts with %s", prev.Version, u.iri, msg)
		}
		if err := r.resolveQueue(ctx, rest, state); err != nil {
			rollback()
			return err
		}
		return nil
	}

	candidates, err := r.Provider.Candidates(ctx, u.iri)
	if err != nil {
		rollback()
		return errs.New(errs.Network, u.iri, err, "cannot enumerate candidates")
	}

	// lastConflict remembers the most specific failure seen while trying
	// candidates. A deeper recursive call that hits the already-selected
	// branch above names every conflicting constraint; that is strictly
	// more useful to the caller than the generic "no candidate satisfies"
	// fallback below, so it takes priority when no candidate pans out.
	var lastConflict error

	for _, cand := range candidates {
		if !st.matches(cand.Version) {
			continue
		}

		usages, uerr := r.Provider.Usages(ctx, u.iri, cand.Version)
		if uerr != nil {
			// a candidate that cannot be fetched is treated as if it did
			// not exist, per §4.8's failure semantics; try the next one.
			continue
		}

		entry := PinnedEntry{
			IRI:        u.iri,
			Version:    cand.Version,
			Checksum:   cand.Checksum,
			Source:     cand.Source,
			Constraint: st.joinedText(),
		}
		state.selected[u.iri] = entry

		expanded := append(append([]pendingUsage{}, rest...), toPending(usages)...)
		if err := r.resolveQueue(ctx, expanded, state); err != nil {
			lastConflict = err
		} else {
			return nil
		}
		delete(state.selected, u.iri)
	}

	msg := st.joinedText()
	rollback()
	if lastConflict != nil {
		return lastConflict
	}
	return errs.New(errs.Unsatisfiable, u.iri, nil, "no candidate version of %s satisfies %s", u.iri, msg)
}

func toPending(usages []project.Usage) []pendingUsage {
	out := make([]pendingUsage, 0, len(usages))
	for _, u := range usages {
		c, err := version.ParseConstraint(u.VersionConstraint)
		if err != nil {
			continue
		}
		out = append(out, pendingUsage{iri: u.Resource, constraint: c, text: u.VersionConstraint})
	}
	return out
}
