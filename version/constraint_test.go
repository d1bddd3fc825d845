// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstraintMatches(t *testing.T) {
	cases := []struct {
		name       string
		constraint string
		version    string
		want       bool
	}{
		{"exact match", "1.2.3", "1.2.3", true},
		{"exact mismatch", "1.2.3", "1.2.4", false},
		{"caret allows minor/patch bump", "^1.2.3", "1.9.9", true},
		{"caret rejects major bump", "^1.2.3", "2.0.0", false},
		{"caret below floor", "^1.2.3", "1.2.2", false},
		{"caret zero major pins minor", "^0.2.3", "0.2.9", true},
		{"caret zero major rejects minor bump", "^0.2.3", "0.3.0", false},
		{"tilde allows patch bump", "~1.2.3", "1.2.9", true},
		{"tilde rejects minor bump", "~1.2.3", "1.3.0", false},
		{"wildcard major only", "1.*", "1.9.9", true},
		{"wildcard excludes other major", "1.*", "2.0.0", false},
		{"wildcard minor", "1.2.*", "1.2.7", true},
		{"wildcard minor excludes other minor", "1.2.*", "1.3.0", false},
		{"greater-equal", ">=1.2.3", "1.2.3", true},
		{"greater strict excludes equal", ">1.2.3", "1.2.3", false},
		{"less-equal", "<=1.2.3", "1.2.3", true},
		{"less strict excludes equal", "<1.2.3", "1.2.3", false},
		{"AND join both satisfied", ">=1.0.0 <2.0.0", "1.5.0", true},
		{"AND join one violated", ">=1.0.0 <2.0.0", "2.5.0", false},
		{"comma separated AND join", ">=1.0.0, <2.0.0", "1.5.0", true},
		{"prerelease rejected without opt-in", ">=1.0.0", "1.5.0-beta", false},
		{"prerelease allowed with matching opt-in triple", "1.5.0-beta", "1.5.0-beta", true},
		{"prerelease opt-in does not leak to other triple", "1.5.0-beta", "1.6.0-beta", false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cons, err := ParseConstraint(c.constraint)
			require.NoError(t, err)
			v, err := Parse(c.version)
			require.NoError(t, err)
			assert.Equal(t, c.want, cons.Matches(v))
		})
	}
}

func TestParseConstraintRejectsEmpty(t *testing.T) {
	_, err := ParseConstraint("")
	assert.Error(t, err)
}

func TestConstraintStringRoundTrips(t *testing.T) {
	cons, err := ParseConstraint(">=1.0.0 <2.0.0")
	require.NoError(t, err)
	assert.Equal(t, ">=1.0.0 <2.0.0", cons.String())
}
