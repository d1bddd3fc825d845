// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/.project.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"example"}`))
	})
	mux.HandleFunc("/entries.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("urn:kpar:a 1.0.0 abc\nurn:kpar:b 2.0.0 def\n"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPExistsAndRead(t *testing.T) {
	ctx := context.Background()
	srv := testServer(t)
	s := NewHTTP(srv.URL, nil)

	ok, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Read(ctx, ".project.json")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"example"}`, string(got))
}

func TestHTTPExistsFalseOn404(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	s := NewHTTP(srv.URL, nil)

	ok, err := s.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHTTPListParsesEntries(t *testing.T) {
	ctx := context.Background()
	srv := testServer(t)
	s := NewHTTP(srv.URL, nil)

	keys, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"urn:kpar:a 1.0.0 abc", "urn:kpar:b 2.0.0 def"}, keys)
}

func TestHTTPWriteAndRemoveAreReadOnly(t *testing.T) {
	ctx := context.Background()
	srv := testServer(t)
	s := NewHTTP(srv.URL, nil)

	assert.Error(t, s.Write(ctx, "x", []byte("y")))
	assert.Error(t, s.Remove(ctx, "x"))
	assert.True(t, s.ReadOnly())
}

func TestHTTPTrimsTrailingSlash(t *testing.T) {
	s := NewHTTP("http://example.com/", nil)
	assert.Equal(t, "http://example.com", s.BaseURL)
}
