// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cred implements the credential broker: it reads SYSAND_CRED_*
// environment variables, matches request URLs against wildcard patterns,
// and retries unauthenticated 4xx responses with matching credentials, per
// spec §4.5.
package cred

import (
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Credential is one SYSAND_CRED_<X> entry: a URL wildcard pattern plus
// either basic or bearer auth material.
type Credential struct {
	Name        string
	Pattern     string
	compiled    glob.Glob
	BasicUser   string
	BasicPass   string
	BearerToken string
}

func (c Credential) hasBasic() bool  { return c.BasicUser != "" || c.BasicPass != "" }
func (c Credential) hasBearer() bool { return c.BearerToken != "" }

func (c Credential) matches(url string) bool {
	return c.compiled.Match(url)
}

func (c Credential) apply(req *http.Request) {
	switch {
	case c.hasBearer():
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.hasBasic():
		req.SetBasicAuth(c.BasicUser, c.BasicPass)
	}
}

// Broker matches URLs against the credential set and drives the
// first-unauthenticated-then-retry-with-credential policy.
type Broker struct {
	creds []Credential
}

// FromEnviron builds a Broker from os.Environ(), per the
// SYSAND_CRED_<X>[_BASIC_USER|_BASIC_PASS|_BEARER_TOKEN] family.
func FromEnviron() (*Broker, error) {
	return FromEnvironList(os.Environ())
}

// FromEnvironList builds a Broker from an explicit "KEY=VALUE" list, for
// testability.
func FromEnvironList(environ []string) (*Broker, error) {
	byName := map[string]*Credential{}

	for _, kv := range environ {
		eq := strings.IndexByte(kv, '=')
		if eq < 0 {
			continue
		}
		key, val := kv[:eq], kv[eq+1:]
		if !strings.HasPrefix(key, "SYSAND_CRED_") {
			continue
		}
		rest := strings.TrimPrefix(key, "SYSAND_CRED_")

		switch {
		case strings.HasSuffix(rest, "_BASIC_USER"):
			name := strings.TrimSuffix(rest, "_BASIC_USER")
			ensure(byName, name).BasicUser = val
		case strings.HasSuffix(rest, "_BASIC_PASS"):
			name := strings.TrimSuffix(rest, "_BASIC_PASS")
			ensure(byName, name).BasicPass = val
		case strings.HasSuffix(rest, "_BEARER_TOKEN"):
			name := strings.TrimSuffix(rest, "_BEARER_TOKEN")
			ensure(byName, name).BearerToken = val
		default:
			name := rest
			ensure(byName, name).Pattern = val
		}
	}

	b := &Broker{}
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)

	for _, n := range names {
		c := byName[n]
		c.Name = n
		if c.Pattern == "" {
			continue // no URL pattern was ever set for this name; ignore
		}
		g, err := glob.Compile(c.Pattern, '/')
		if err != nil {
			return nil, err
		}
		c.compiled = g
		b.creds = append(b.creds, *c)
	}
	return b, nil
}

func ensure(m map[string]*Credential, name string) *Credential {
	if c, ok := m[name]; ok {
		return c
	}
	c := &Credential{}
	m[name] = c
	return c
}

// Matching returns every credential whose pattern matches url, in the
// broker's (arbitrary but stable) order.
func (b *Broker) Matching(url string) []Credential {
	var out []Credential
	for _, c := range b.creds {
		if c.matches(url) {
			out = append(out, c)
		}
	}
	return out
}

// Do performs req unauthenticated first; if the response is in the 4xx
// range, it retries once per matching credential (in Matching's order)
// until a non-4xx response or the credentials are exhausted, per §4.5.
// Credentials are never sent pre-emptively or to non-matching hosts.
func (b *Broker) Do(client *http.Client, req *http.Request) (*http.Response, error) {
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(cloneRequest(req))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 400 || resp.StatusCode >= 500 {
		return resp, nil
	}
	resp.Body.Close()

	for _, c := range b.Matching(req.URL.String()) {
		authed := cloneRequest(req)
		c.apply(authed)
		resp, err = client.Do(authed)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 400 || resp.StatusCode >= 500 {
			return resp, nil
		}
		resp.Body.Close()
	}
	return resp, nil
}

func cloneRequest(req *http.Request) *http.Request {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			clone.Body = body
		}
	}
	return clone
}
