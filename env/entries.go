// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package env

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sensmetry/sysand/errs"
	"github.com/sensmetry/sysand/internal/fsutil"
)

// Entry is one line of entries.txt: "iri<SP>version<SP>digest". This is the
// same three-field format index.Entry parses, since an environment
// directory doubles as a valid HTTP index layout per §4.7.
type Entry struct {
	IRI     string
	Version string
	Digest  string
}

func (e *Env) entriesPath() string { return filepath.Join(e.Root, "entries.txt") }

func (e *Env) readEntries() ([]Entry, error) {
	raw, err := os.ReadFile(e.entriesPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.New(errs.Io, e.entriesPath(), err, "cannot read entries.txt")
	}
	var out []Entry
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, errs.New(errs.Serialisation, line, nil, "malformed entries.txt line")
		}
		out = append(out, Entry{IRI: fields[0], Version: fields[1], Digest: fields[2]})
	}
	return out, nil
}

func (e *Env) writeEntries(entries []Entry) error {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IRI != entries[j].IRI {
			return entries[i].IRI < entries[j].IRI
		}
		return entries[i].Version < entries[j].Version
	})
	var b strings.Builder
	for _, en := range entries {
		b.WriteString(en.IRI)
		b.WriteByte(' ')
		b.WriteString(en.Version)
		b.WriteByte(' ')
		b.WriteString(en.Digest)
		b.WriteByte('\n')
	}
	if err := fsutil.AtomicWriteFile(e.entriesPath(), []byte(b.String()), 0o644); err != nil {
		return errs.New(errs.Io, e.entriesPath(), err, "cannot write entries.txt")
	}
	return nil
}

// appendEntry adds (iri, v, digest) to entries.txt, deduplicated, per §4.7
// step 5.
func (e *Env) appendEntry(iriStr, v, digest string) error {
	entries, err := e.readEntries()
	if err != nil {
		return err
	}
	for _, en := range entries {
		if en.IRI == iriStr && en.Version == v {
			return nil
		}
	}
	entries = append(entries, Entry{IRI: iriStr, Version: v, Digest: digest})
	return e.writeEntries(entries)
}

// rewriteEntries drops entries whose target directory no longer exists,
// used after Uninstall.
func (e *Env) rewriteEntries() error {
	entries, err := e.readEntries()
	if err != nil {
		return err
	}
	var kept []Entry
	for _, en := range entries {
		if ok, _ := fsutil.IsDir(e.entryPath(en.Digest, en.Version)); ok {
			kept = append(kept, en)
		}
	}
	return e.writeEntries(kept)
}
