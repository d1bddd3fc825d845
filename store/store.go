// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store defines the Project Store contract — a polymorphic
// key→bytes view of a project, backed by a local directory, an archive, an
// HTTP location, or an in-memory image — and its concrete variants.
package store

import "context"

// Store is the capability every project backend implements identically.
// Keys are project-relative, forward-slash paths (".project.json",
// "sources/Foo.sysml"). LocalDir and Archive reject path traversal ("..");
// Memory and HTTP use keys as given without checking them.
type Store interface {
	// Exists reports whether the backing resource is present at all (e.g.
	// the directory exists, the archive file opens, the HTTP root answers).
	Exists(ctx context.Context) (bool, error)

	// Read returns the bytes stored at key.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write stores data at key. Returns an error for read-only backends.
	Write(ctx context.Context, key string, data []byte) error

	// Remove deletes key. Returns an error for read-only backends. Removing
	// a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// List returns the set of keys currently present.
	List(ctx context.Context) ([]string, error)

	// ReadOnly reports whether Write/Remove will always fail.
	ReadOnly() bool

	// Close releases any resource the store exclusively owns (an open
	// archive file handle, a temp directory). Stores that own nothing
	// implement this as a no-op.
	Close() error
}

// Flusher is implemented by stores that buffer writes in memory and need an
// explicit flush to persist them (the archive variant).
type Flusher interface {
	Flush(ctx context.Context) error
}
