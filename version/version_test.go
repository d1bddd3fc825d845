// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package version

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"plain", "1.2.3", false},
		{"with prerelease", "1.2.3-beta.1", false},
		{"with metadata", "1.2.3+build.5", false},
		{"leading v rejected by strict parse", "v1.2.3", true},
		{"missing patch", "1.2", true},
		{"empty", "", true},
		{"garbage", "not-a-version", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse(c.in)
			if c.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVersionComponents(t *testing.T) {
	v, err := Parse("1.2.3-beta.1+build.9")
	require.NoError(t, err)

	assert.Equal(t, uint64(1), v.Major())
	assert.Equal(t, uint64(2), v.Minor())
	assert.Equal(t, uint64(3), v.Patch())
	assert.Equal(t, "beta.1", v.Prerelease())
	assert.Equal(t, "build.9", v.Metadata())
	assert.True(t, v.IsPrerelease())
}

func TestCompareIgnoresMetadata(t *testing.T) {
	a, err := Parse("1.2.3+build.1")
	require.NoError(t, err)
	b, err := Parse("1.2.3+build.2")
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.Equal(t, 0, a.Compare(b))
}

func TestSameTriple(t *testing.T) {
	a, err := Parse("1.2.3-alpha")
	require.NoError(t, err)
	b, err := Parse("1.2.3")
	require.NoError(t, err)
	c, err := Parse("1.2.4")
	require.NoError(t, err)

	assert.True(t, a.SameTriple(b))
	assert.False(t, a.SameTriple(c))
}

func TestByVersionSort(t *testing.T) {
	mk := func(s string) Version {
		v, err := Parse(s)
		require.NoError(t, err)
		return v
	}

	vs := []Version{mk("2.0.0"), mk("1.0.0"), mk("1.5.0-alpha"), mk("1.5.0")}
	sort.Sort(ByVersion(vs))

	var got []string
	for _, v := range vs {
		got = append(got, v.String())
	}
	assert.Equal(t, []string{"1.0.0", "1.5.0-alpha", "1.5.0", "2.0.0"}, got)
}
