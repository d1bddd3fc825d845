// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolve

import (
	"context"

	"github.com/sensmetry/sysand/project"
	"github.com/sensmetry/sysand/version"
)

// EntryStatus reports one pinned entry's standing against the root's usage
// list and against upstream, modeled on the teacher's status.go
// BasicStatus/MissingStatus reporting (§12 supplement). It resolves and
// installs nothing; it is purely a read.
type EntryStatus struct {
	IRI              string
	Version          version.Version
	DirectlyUsed     bool // named directly in the root's usage list
	NewerAvailable   bool
	LatestUpstream   version.Version
}

// Status reports, for every entry in graph, whether it's directly named by
// root's usage list and whether a newer version satisfying the same
// constraint the graph pinned it under is available from provider.
func Status(ctx context.Context, root project.Info, graph *Graph, provider Provider) ([]EntryStatus, error) {
	direct := make(map[string]bool, len(root.Usage))
	for _, u := range root.Usage {
		direct[u.Resource] = true
	}

	out := make([]EntryStatus, 0, len(graph.Entries))
	for _, e := range graph.Entries {
		st := EntryStatus{IRI: e.IRI, Version: e.Version, DirectlyUsed: direct[e.IRI]}

		cands, err := provider.Candidates(ctx, e.IRI)
		if err == nil {
			constraint, cerr := version.ParseConstraint(e.Constraint)
			if cerr == nil {
				for _, c := range cands {
					if !constraint.Matches(c.Version) {
						continue
					}
					if st.LatestUpstream.String() == "" || st.LatestUpstream.Less(c.Version) {
						st.LatestUpstream = c.Version
					}
				}
			}
		}
		if st.LatestUpstream.String() != "" && e.Version.Less(st.LatestUpstream) {
			st.NewerAvailable = true
		}

		out = append(out, st)
	}
	return out, nil
}
