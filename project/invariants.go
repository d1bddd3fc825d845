// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package project

import (
	"context"
	"regexp"

	"github.com/sensmetry/sysand/errs"
	"github.com/sensmetry/sysand/version"
)

// checkInvariants re-validates the project's self-consistency rules from
// §3: name is non-empty, version is SemVer, license (if present) is a
// plausible SPDX expression, and every checksum/index entry names a file
// present in the source set.
func (p *Project) checkInvariants(ctx context.Context) error {
	if p.info.Name == "" {
		return errs.New(errs.InvalidProject, "", nil, "project name must be non-empty")
	}

	if _, err := version.Parse(p.info.Version); err != nil {
		return errs.New(errs.InvalidSemanticVersion, p.info.Version, err, "project version must be SemVer")
	}

	if p.info.License != "" && !looksLikeSPDX(p.info.License) {
		return errs.New(errs.InvalidValue, p.info.License, nil, "license is not a valid SPDX expression")
	}

	sources, err := p.Sources(ctx)
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(sources))
	for _, s := range sources {
		present[s] = true
	}

	for key := range p.meta.Checksum {
		if !present[key] {
			return errs.New(errs.InvalidProject, key, nil, "checksummed file is not in the source set")
		}
	}
	for name, file := range p.meta.Index {
		if !present[file] {
			return errs.New(errs.InvalidProject, file, nil, "index entry %q names a file not in the source set", name)
		}
	}
	return nil
}

// spdxToken matches a single SPDX license-or-exception identifier: letters,
// digits, dots, hyphens, and a trailing "+".
var spdxToken = regexp.MustCompile(`^[A-Za-z0-9.\-]+\+?$`)

// looksLikeSPDX is a pragmatic SPDX-expression check: it accepts
// "LicenseRef-" custom ids and well-formed token sequences joined by
// "AND"/"OR"/"WITH" and parenthesisation, without validating identifiers
// against the full SPDX license list (which would require bundling that
// list as data sysand has no other reason to ship).
func looksLikeSPDX(expr string) bool {
	if expr == "" {
		return false
	}
	depth := 0
	for _, tok := range tokenizeSPDX(expr) {
		switch tok {
		case "(":
			depth++
		case ")":
			depth--
			if depth < 0 {
				return false
			}
		case "AND", "OR", "WITH":
			// operators; validity of operand placement is not enforced
		default:
			if !spdxToken.MatchString(tok) {
				return false
			}
		}
	}
	return depth == 0
}

func tokenizeSPDX(expr string) []string {
	var toks []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			toks = append(toks, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range expr {
		switch {
		case r == '(' || r == ')':
			flush()
			toks = append(toks, string(r))
		case r == ' ' || r == '\t':
			flush()
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return toks
}
