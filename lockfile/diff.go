// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lockfile

import "sort"

// ChangeKind classifies one Change, mirroring the teacher's LockDiff's
// separate Add/Remove/Modify slices collapsed into a single tagged list.
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
	Modified
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	default:
		return "unknown"
	}
}

// Change is one pinned entry's difference between two lockfile snapshots.
type Change struct {
	Kind            ChangeKind
	Identifier      string
	PreviousVersion string // empty for Added
	CurrentVersion  string // empty for Removed
}

// Diff enumerates added/removed/changed pinned entries between old and new,
// keyed by each project's primary identifier, per §12's feedback summary —
// modeled on the teacher's internal/feedback LockDiff, adapted from Go
// import-path deduction to sysand's (IRI, version) pinning.
func Diff(old, new Lockfile) []Change {
	oldByID := indexByPrimaryID(old)
	newByID := indexByPrimaryID(new)

	var changes []Change
	for id, np := range newByID {
		op, existed := oldByID[id]
		switch {
		case !existed:
			changes = append(changes, Change{Kind: Added, Identifier: id, CurrentVersion: np.Version})
		case op.Version != np.Version:
			changes = append(changes, Change{Kind: Modified, Identifier: id, PreviousVersion: op.Version, CurrentVersion: np.Version})
		}
	}
	for id, op := range oldByID {
		if _, stillPresent := newByID[id]; !stillPresent {
			changes = append(changes, Change{Kind: Removed, Identifier: id, PreviousVersion: op.Version})
		}
	}
	sortChanges(changes)
	return changes
}

func indexByPrimaryID(lf Lockfile) map[string]Project {
	out := make(map[string]Project, len(lf.Project))
	for _, p := range lf.Project {
		id := primaryID(p)
		if id == "" {
			continue
		}
		out[id] = p
	}
	return out
}

func sortChanges(changes []Change) {
	sort.Slice(changes, func(i, j int) bool { return changes[i].Identifier < changes[j].Identifier })
}
