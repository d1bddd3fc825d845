// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package index

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListParsesEntries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("urn:kpar:a 1.0.0 digest-a\nurn:kpar:a 2.0.0 digest-a2\nurn:kpar:b 1.0.0 digest-b\n"))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, nil)
	entries, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.Equal(t, Entry{IRI: "urn:kpar:a", Version: "1.0.0", Digest: "digest-a"}, entries[0])
}

func TestListRejectsMalformedLine(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("urn:kpar:a 1.0.0\n"))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, nil)
	_, err := c.List(context.Background())
	assert.Error(t, err)
}

func TestVersionsForFiltersByIRI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("urn:kpar:a 1.0.0 digest-a\nurn:kpar:b 1.0.0 digest-b\n"))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, nil)
	entries, err := c.VersionsFor(context.Background(), "urn:kpar:a")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "digest-a", entries[0].Digest)
}

func TestKparURL(t *testing.T) {
	c := New("https://index.example.com/", nil)
	assert.Equal(t, "https://index.example.com/abc123/1.0.0.kpar", c.KparURL("abc123", "1.0.0"))
}

func TestParseVersionsSkipsUnparseable(t *testing.T) {
	entries := []Entry{
		{IRI: "urn:kpar:a", Version: "1.0.0"},
		{IRI: "urn:kpar:a", Version: "not-a-version"},
	}
	parsed := ParseVersions(entries)
	assert.Len(t, parsed, 1)
	assert.Contains(t, parsed, "1.0.0")
}
