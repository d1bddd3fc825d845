// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cred

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvironListParsesBasicAndBearer(t *testing.T) {
	b, err := FromEnvironList([]string{
		"SYSAND_CRED_A=https://example.com/**",
		"SYSAND_CRED_A_BASIC_USER=alice",
		"SYSAND_CRED_A_BASIC_PASS=secret",
		"SYSAND_CRED_B=https://other.com/**",
		"SYSAND_CRED_B_BEARER_TOKEN=tok123",
		"UNRELATED=ignored",
	})
	require.NoError(t, err)

	matching := b.Matching("https://example.com/project")
	require.Len(t, matching, 1)
	assert.Equal(t, "alice", matching[0].BasicUser)

	matching = b.Matching("https://other.com/project")
	require.Len(t, matching, 1)
	assert.Equal(t, "tok123", matching[0].BearerToken)

	assert.Empty(t, b.Matching("https://unmatched.com/project"))
}

func TestFromEnvironListIgnoresCredentialWithNoPattern(t *testing.T) {
	b, err := FromEnvironList([]string{
		"SYSAND_CRED_A_BASIC_USER=alice",
	})
	require.NoError(t, err)
	assert.Empty(t, b.creds)
}

func TestCredentialApplyHeaders(t *testing.T) {
	basic := Credential{BasicUser: "alice", BasicPass: "secret"}
	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	basic.apply(req)
	user, pass, ok := req.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "alice", user)
	assert.Equal(t, "secret", pass)

	bearer := Credential{BearerToken: "tok"}
	req2, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	bearer.apply(req2)
	assert.Equal(t, "Bearer tok", req2.Header.Get("Authorization"))
}

func TestBrokerDoRetriesWithMatchingCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if ok && user == "alice" && pass == "secret" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	b, err := FromEnvironList([]string{
		"SYSAND_CRED_A=" + srv.URL + "/**",
		"SYSAND_CRED_A_BASIC_USER=alice",
		"SYSAND_CRED_A_BASIC_PASS=secret",
	})
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/project", nil)
	resp, err := b.Do(srv.Client(), req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBrokerDoNeverSendsCredentialsPreemptively(t *testing.T) {
	var sawAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			sawAuth = true
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	b, err := FromEnvironList([]string{
		"SYSAND_CRED_A=" + srv.URL + "/**",
		"SYSAND_CRED_A_BEARER_TOKEN=tok",
	})
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/project", nil)
	resp, err := b.Do(srv.Client(), req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.False(t, sawAuth)
}

func TestClientWithNilBrokerIsUnauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(nil)
	c.HTTP = srv.Client()
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
