// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fetch

import (
	"bytes"
	"os"

	"github.com/sensmetry/sysand/errs"
)

func readWholeFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// bytesReaderAt adapts an in-memory byte slice to io.ReaderAt, as
// archive/zip.NewReader (used by kpar.Unpack and store.OpenArchive) wants
// random access rather than a stream.
func bytesReaderAt(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

func wrapIo(path string, err error, msg string) error {
	if err == nil {
		return nil
	}
	return errs.New(errs.Io, path, err, msg)
}
