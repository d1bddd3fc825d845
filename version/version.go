// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package version implements SemVer 2.0.0 parsing and ordering (via
// Masterminds/semver/v3's Version type) together with sysand's own version
// constraint grammar (caret, tilde, wildcard, equals, comparison operators,
// AND-joined) and its pre-release matching rule, per spec §3.
package version

import (
	"strings"

	mmsemver "github.com/Masterminds/semver/v3"

	"github.com/sensmetry/sysand/errs"
)

// Version is a parsed SemVer 2.0.0 version. Build metadata is retained for
// String() but ignored by Compare/Equal, and a total order is defined with
// pre-releases sorting below their corresponding release, exactly as
// Masterminds/semver/v3 implements it.
type Version struct {
	v *mmsemver.Version
}

// Parse parses s as a SemVer 2.0.0 version.
func Parse(s string) (Version, error) {
	v, err := mmsemver.StrictNewVersion(s)
	if err != nil {
		return Version{}, errs.New(errs.InvalidSemanticVersion, s, err, "invalid semantic version")
	}
	return Version{v: v}, nil
}

func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.String()
}

// Major, Minor, Patch, Prerelease, Metadata expose the SemVer components.
func (v Version) Major() uint64       { return v.v.Major() }
func (v Version) Minor() uint64       { return v.v.Minor() }
func (v Version) Patch() uint64       { return v.v.Patch() }
func (v Version) Prerelease() string  { return v.v.Prerelease() }
func (v Version) Metadata() string    { return v.v.Metadata() }
func (v Version) IsPrerelease() bool  { return v.v.Prerelease() != "" }

// Compare returns -1, 0, or 1 as v is less than, equal to, or greater than
// other. Build metadata is ignored, per SemVer item 10.
func (v Version) Compare(other Version) int { return v.v.Compare(other.v) }

// Equal reports SemVer equality (build metadata ignored).
func (v Version) Equal(other Version) bool { return v.Compare(other) == 0 }

// Less reports whether v sorts before other.
func (v Version) Less(other Version) bool { return v.Compare(other) < 0 }

// SameTriple reports whether v and other share (major, minor, patch),
// irrespective of pre-release/build metadata.
func (v Version) SameTriple(other Version) bool {
	return v.Major() == other.Major() && v.Minor() == other.Minor() && v.Patch() == other.Patch()
}

// ByVersion sorts a slice of Version ascending; use sort.Sort(sort.Reverse(...))
// for the resolver's descending candidate order.
type ByVersion []Version

func (b ByVersion) Len() int           { return len(b) }
func (b ByVersion) Less(i, j int) bool { return b[i].Less(b[j]) }
func (b ByVersion) Swap(i, j int)      { b[i], b[j] = b[j], b[i] }

// partial is a possibly-incomplete version used inside a comparator, e.g.
// "1.2" in the constraint "~1.2".
type partial struct {
	major, minor, patch int64
	hasMinor, hasPatch  bool
	prerelease          string
	hasPrerelease       bool
}

func parsePartial(s string) (partial, error) {
	s = strings.TrimSpace(s)
	var pre string
	hasPre := false
	if idx := strings.IndexAny(s, "-+"); idx >= 0 && s[idx] == '-' {
		pre = s[idx+1:]
		if b := strings.IndexByte(pre, '+'); b >= 0 {
			pre = pre[:b]
		}
		hasPre = true
		s = s[:idx]
	} else if idx := strings.IndexByte(s, '+'); idx >= 0 {
		s = s[:idx]
	}

	parts := strings.Split(s, ".")
	if len(parts) == 0 || len(parts) > 3 {
		return partial{}, errs.New(errs.InvalidValue, s, nil, "malformed version component")
	}

	p := partial{prerelease: pre, hasPrerelease: hasPre}
	var err error
	if p.major, err = parseComponent(parts[0]); err != nil {
		return partial{}, err
	}
	if len(parts) > 1 {
		if p.minor, err = parseComponent(parts[1]); err != nil {
			return partial{}, err
		}
		p.hasMinor = true
	}
	if len(parts) > 2 {
		if p.patch, err = parseComponent(parts[2]); err != nil {
			return partial{}, err
		}
		p.hasPatch = true
	}
	return p, nil
}

func parseComponent(s string) (int64, error) {
	if s == "x" || s == "X" || s == "*" {
		return -1, nil
	}
	var n int64
	if s == "" {
		return 0, errs.New(errs.InvalidValue, s, nil, "empty version component")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errs.New(errs.InvalidValue, s, nil, "non-numeric version component")
		}
	}
	for _, r := range s {
		n = n*10 + int64(r-'0')
	}
	return n, nil
}

func (p partial) isWildcardAt(level int) bool {
	switch level {
	case 0:
		return p.major == -1
	case 1:
		return p.hasMinor && p.minor == -1
	case 2:
		return p.hasPatch && p.patch == -1
	}
	return false
}

// floor fills in missing/wildcard components with 0 to get the partial's
// lower bound as a concrete triple.
func (p partial) floor() (major, minor, patch uint64) {
	m := p.major
	if m < 0 {
		m = 0
	}
	mi := int64(0)
	if p.hasMinor && p.minor >= 0 {
		mi = p.minor
	}
	pa := int64(0)
	if p.hasPatch && p.patch >= 0 {
		pa = p.patch
	}
	return uint64(m), uint64(mi), uint64(pa)
}
