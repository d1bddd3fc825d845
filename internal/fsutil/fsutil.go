// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fsutil collects the small filesystem primitives sysand's stores
// and environment need: atomic rename-into-place, path-traversal guards for
// archive/store keys, and recursive tree copy.
package fsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/termie/go-shutil"
)

// SafeJoin joins a project-relative, forward-slash key onto root, rejecting
// any key that would escape root via "..", an absolute path, or a leading
// slash. Keys are always forward-slash per the Project Store contract.
func SafeJoin(root, key string) (string, error) {
	if key == "" {
		return "", errors.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") {
		return "", errors.Errorf("absolute key %q", key)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", errors.Errorf("path traversal in key %q", key)
		}
	}
	clean := path.Clean(key)
	if clean == "" || clean == "." {
		return "", errors.Errorf("invalid key %q", key)
	}
	return filepath.Join(root, filepath.FromSlash(clean)), nil
}

// AtomicWriteFile writes data to a temp file alongside dst and renames it
// into place, so readers never observe a partial write.
func AtomicWriteFile(dst string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "cannot create directory %s", dir)
	}
	tmp, err := os.CreateTemp(dir, ".sysand-tmp-*")
	if err != nil {
		return errors.Wrapf(err, "cannot create temp file in %s", dir)
	}
	tmpName := tmp.Name()
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil {
		os.Remove(tmpName)
		return errors.Wrapf(werr, "cannot write %s", dst)
	}
	if cerr != nil {
		os.Remove(tmpName)
		return errors.Wrapf(cerr, "cannot close temp file for %s", dst)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "cannot chmod %s", dst)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return errors.Wrapf(err, "cannot rename %s into place at %s", tmpName, dst)
	}
	return nil
}

// RenameWithFallback renames src to dst, falling back to copy+remove when
// src and dst live on different devices (EXDEV).
func RenameWithFallback(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	} else if !isCrossDevice(err) {
		return errors.Wrapf(err, "cannot rename %s to %s", src, dst)
	}
	if err := shutil.CopyTree(src, dst, nil); err != nil {
		return errors.Wrapf(err, "cannot copy %s to %s", src, dst)
	}
	return os.RemoveAll(src)
}

func isCrossDevice(err error) bool {
	linkErr, ok := err.(*os.LinkError)
	return ok && strings.Contains(linkErr.Err.Error(), "cross-device")
}

// CopyTree recursively copies src onto dst using go-shutil; the environment's
// install staging step uses it for local-directory stores.
func CopyTree(src, dst string) error {
	return shutil.CopyTree(src, dst, nil)
}

// CopyFile copies a single file's bytes and mode from src to dst.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "cannot open %s", src)
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return errors.Wrapf(err, "cannot stat %s", src)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrapf(err, "cannot create directory for %s", dst)
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode())
	if err != nil {
		return errors.Wrapf(err, "cannot create %s", dst)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.Wrapf(err, "cannot copy %s to %s", src, dst)
	}
	return nil
}

// HashTree returns hex(SHA-256) of a deterministic breadth-first traversal
// of root: every entry's relative pathname and, for files, size and
// contents feed the hash, so the result is stable across re-copies and
// independent of traversal order returned by the OS. VCS directories
// (.git, .hg, .svn, .bzr) are skipped. Used to verify a directory-shaped
// fetch source (GitRef, LocalDir) against an expected digest, since such
// sources have no single archive blob to hash.
func HashTree(root string) (string, error) {
	h := sha256.New()
	queue := []string{filepath.Clean(root)}
	prefixLen := len(queue[0]) + len(string(filepath.Separator))

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		fi, err := os.Lstat(p)
		if err != nil {
			return "", errors.Wrapf(err, "cannot stat %s", p)
		}
		mode := fi.Mode()
		if mode&(os.ModeDevice|os.ModeNamedPipe|os.ModeSocket|os.ModeCharDevice) != 0 {
			continue
		}

		rel := p
		if len(p) > prefixLen {
			rel = p[prefixLen:]
		} else {
			rel = ""
		}
		h.Write([]byte(rel))

		if mode&os.ModeSymlink != 0 {
			referent, err := os.Readlink(p)
			if err != nil {
				return "", errors.Wrapf(err, "cannot read link %s", p)
			}
			h.Write([]byte(referent))
			continue
		}

		if fi.IsDir() {
			entries, err := os.ReadDir(p)
			if err != nil {
				return "", errors.Wrapf(err, "cannot read directory %s", p)
			}
			names := make([]string, len(entries))
			for i, de := range entries {
				names[i] = de.Name()
			}
			sort.Strings(names)
			for _, name := range names {
				switch name {
				case ".bzr", ".git", ".hg", ".svn":
				default:
					queue = append(queue, filepath.Join(p, name))
				}
			}
			continue
		}

		f, err := os.Open(p)
		if err != nil {
			return "", errors.Wrapf(err, "cannot open %s", p)
		}
		h.Write([]byte(strconv.FormatInt(fi.Size(), 10)))
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", errors.Wrapf(err, "cannot read %s", p)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) (bool, error) {
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fi.IsDir(), nil
}
