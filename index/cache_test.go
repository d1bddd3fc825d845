// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package index

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) *BoltCache {
	c, err := OpenBoltCache(filepath.Join(t.TempDir(), "index.db"), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestBoltCacheMissThenHit(t *testing.T) {
	c := newTestCache(t, time.Hour)

	_, ok := c.Get("https://index.example.com")
	assert.False(t, ok)

	entries := []Entry{{IRI: "urn:kpar:a", Version: "1.0.0", Digest: "digest-a"}}
	require.NoError(t, c.Put("https://index.example.com", entries))

	got, ok := c.Get("https://index.example.com")
	require.True(t, ok)
	assert.Equal(t, entries, got)
}

func TestBoltCacheExpiresAfterTTL(t *testing.T) {
	c := newTestCache(t, -time.Second) // already expired for anything stored "now"
	require.NoError(t, c.Put("https://index.example.com", []Entry{{IRI: "urn:kpar:a", Version: "1.0.0"}}))

	_, ok := c.Get("https://index.example.com")
	assert.False(t, ok)
}

func TestClientUsesCacheOnSecondList(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("urn:kpar:a 1.0.0 digest-a\n"))
	}))
	t.Cleanup(srv.Close)

	c := New(srv.URL, nil)
	c.Cache = newTestCache(t, time.Hour)

	_, err := c.List(context.Background())
	require.NoError(t, err)
	_, err = c.List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, hits, "second List should be served from the bolt cache without hitting the index")
}
