// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package version

import (
	"fmt"
	"strings"

	mmsemver "github.com/Masterminds/semver/v3"

	"github.com/sensmetry/sysand/errs"
)

// Operator is a single comparator's operator.
type Operator int

const (
	OpCaret Operator = iota
	OpTilde
	OpWildcard
	OpEquals
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
)

// Comparator is one element of a Constraint: an operator plus the
// (possibly partial) version it compares against.
type Comparator struct {
	Op  Operator
	raw string
	p   partial
}

// Constraint is a non-empty, AND-joined list of comparators, per spec §3.
// Comparators may be separated by commas or whitespace.
type Constraint struct {
	text        string
	comparators []Comparator
}

// String returns the original constraint text.
func (c Constraint) String() string { return c.text }

// ParseConstraint parses a constraint string into its AND-joined comparators.
func ParseConstraint(s string) (Constraint, error) {
	fields := splitComparators(s)
	if len(fields) == 0 {
		return Constraint{}, errs.New(errs.InvalidValue, s, nil, "empty version constraint")
	}

	cs := make([]Comparator, 0, len(fields))
	for _, f := range fields {
		c, err := parseComparator(f)
		if err != nil {
			return Constraint{}, errs.New(errs.InvalidValue, s, err, "invalid version constraint")
		}
		cs = append(cs, c)
	}
	return Constraint{text: s, comparators: cs}, nil
}

func splitComparators(s string) []string {
	replacer := strings.NewReplacer(",", " ")
	fields := strings.Fields(replacer.Replace(s))
	return fields
}

func parseComparator(f string) (Comparator, error) {
	switch {
	case strings.HasPrefix(f, "^"):
		p, err := parsePartial(f[1:])
		return Comparator{Op: OpCaret, raw: f, p: p}, err
	case strings.HasPrefix(f, "~"):
		p, err := parsePartial(f[1:])
		return Comparator{Op: OpTilde, raw: f, p: p}, err
	case strings.HasPrefix(f, ">="):
		p, err := parsePartial(f[2:])
		return Comparator{Op: OpGreaterEq, raw: f, p: p}, err
	case strings.HasPrefix(f, "<="):
		p, err := parsePartial(f[2:])
		return Comparator{Op: OpLessEq, raw: f, p: p}, err
	case strings.HasPrefix(f, ">"):
		p, err := parsePartial(f[1:])
		return Comparator{Op: OpGreater, raw: f, p: p}, err
	case strings.HasPrefix(f, "<"):
		p, err := parsePartial(f[1:])
		return Comparator{Op: OpLess, raw: f, p: p}, err
	case strings.HasPrefix(f, "="):
		p, err := parsePartial(f[1:])
		return Comparator{Op: OpEquals, raw: f, p: p}, err
	default:
		p, err := parsePartial(f)
		if err != nil {
			return Comparator{}, err
		}
		if p.isWildcardAt(0) || p.isWildcardAt(1) || p.isWildcardAt(2) {
			return Comparator{Op: OpWildcard, raw: f, p: p}, nil
		}
		return Comparator{Op: OpEquals, raw: f, p: p}, nil
	}
}

// Matches reports whether v satisfies every comparator in c (AND semantics),
// applying the pre-release opt-in rule: a pre-release version is rejected
// unless some comparator in c carries an explicit pre-release tag on the
// same (major, minor, patch) triple.
func (c Constraint) Matches(v Version) bool {
	if v.IsPrerelease() && !c.allowsPrerelease(v) {
		return false
	}
	for _, cmp := range c.comparators {
		if !cmp.matches(v) {
			return false
		}
	}
	return true
}

func (c Constraint) allowsPrerelease(v Version) bool {
	for _, cmp := range c.comparators {
		if !cmp.p.hasPrerelease {
			continue
		}
		major, minor, patch := cmp.p.floor()
		if major == v.Major() && minor == v.Minor() && patch == v.Patch() {
			return true
		}
	}
	return false
}

func (cmp Comparator) matches(v Version) bool {
	switch cmp.Op {
	case OpEquals:
		return equalsMatch(cmp.p, v)
	case OpWildcard:
		return wildcardMatch(cmp.p, v)
	case OpCaret:
		lo, hi := caretRange(cmp.p)
		return withinHalfOpen(v, lo, hi)
	case OpTilde:
		lo, hi := tildeRange(cmp.p)
		return withinHalfOpen(v, lo, hi)
	case OpLess:
		return v.Compare(boundaryVersion(cmp.p)) < 0
	case OpLessEq:
		return v.Compare(boundaryVersion(cmp.p)) <= 0
	case OpGreater:
		return v.Compare(boundaryVersion(cmp.p)) > 0
	case OpGreaterEq:
		return v.Compare(boundaryVersion(cmp.p)) >= 0
	}
	return false
}

func equalsMatch(p partial, v Version) bool {
	major, minor, patch := p.floor()
	if major != v.Major() {
		return false
	}
	if p.hasMinor && minor != v.Minor() {
		return false
	}
	if p.hasPatch && patch != v.Patch() {
		return false
	}
	if p.hasPrerelease && p.prerelease != v.Prerelease() {
		return false
	}
	return true
}

func wildcardMatch(p partial, v Version) bool {
	if p.major == -1 {
		return true
	}
	if uint64(p.major) != v.Major() {
		return false
	}
	if !p.hasMinor || p.minor == -1 {
		return true
	}
	if uint64(p.minor) != v.Minor() {
		return false
	}
	if !p.hasPatch || p.patch == -1 {
		return true
	}
	return uint64(p.patch) == v.Patch()
}

// boundaryVersion turns a partial into a concrete Version for ordering
// comparisons, filling missing components with 0 and keeping any explicit
// pre-release tag.
func boundaryVersion(p partial) Version {
	major, minor, patch := p.floor()
	s := fmt.Sprintf("%d.%d.%d", major, minor, patch)
	if p.hasPrerelease {
		s += "-" + p.prerelease
	}
	mv, err := mmsemver.NewVersion(s)
	if err != nil {
		// floor() always yields a well-formed triple; this cannot fail.
		panic(err)
	}
	return Version{v: mv}
}

// caretRange returns [lo, hi) per Cargo-style caret semantics: the range
// keeps the left-most non-zero component fixed.
func caretRange(p partial) (lo, hi Version) {
	major, minor, patch := p.floor()
	lo = boundaryVersion(p)
	switch {
	case major > 0:
		hi = mustVersion(major+1, 0, 0)
	case p.hasMinor && minor > 0:
		hi = mustVersion(0, minor+1, 0)
	case p.hasPatch:
		hi = mustVersion(0, minor, patch+1)
	case p.hasMinor:
		hi = mustVersion(0, minor+1, 0)
	default:
		hi = mustVersion(1, 0, 0)
	}
	return lo, hi
}

// tildeRange returns [lo, hi): patch-level changes are allowed if a minor
// was specified (with or without a patch), minor-level changes if only the
// major was.
func tildeRange(p partial) (lo, hi Version) {
	major, minor, _ := p.floor()
	lo = boundaryVersion(p)
	switch {
	case p.hasPatch:
		hi = mustVersion(major, minor+1, 0)
	case p.hasMinor:
		hi = mustVersion(major, minor+1, 0)
	default:
		hi = mustVersion(major+1, 0, 0)
	}
	return lo, hi
}

func withinHalfOpen(v, lo, hi Version) bool {
	return v.Compare(lo) >= 0 && v.Compare(hi) < 0
}

func mustVersion(major, minor, patch uint64) Version {
	mv, err := mmsemver.NewVersion(fmt.Sprintf("%d.%d.%d", major, minor, patch))
	if err != nil {
		panic(err)
	}
	return Version{v: mv}
}
