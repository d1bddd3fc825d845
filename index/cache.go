// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package index

import (
	"encoding/json"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

var entriesBucket = []byte("entries")

// BoltCache persists an index's entries.txt listing on disk so that
// repeated resolutions against the same index do not re-fetch and
// re-parse it every time, mirroring the teacher's boltCache-backed
// source cache (internal/gps/source_cache_bolt.go) but keyed on index
// base URL rather than revision, since an index's entries.txt has no
// analogue of a VCS revision to key on.
type BoltCache struct {
	db  *bolt.DB
	ttl time.Duration
}

type cachedListing struct {
	Entries []Entry
	Stored  time.Time
}

// OpenBoltCache opens (creating if absent) a bolt-backed cache file at
// path. Listings older than ttl are treated as a miss.
func OpenBoltCache(path string, ttl time.Duration) (*BoltCache, error) {
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open index cache %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(entriesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &BoltCache{db: db, ttl: ttl}, nil
}

func (c *BoltCache) Close() error {
	return c.db.Close()
}

// Get returns the cached listing for baseURL, if any and not expired.
func (c *BoltCache) Get(baseURL string) ([]Entry, bool) {
	var listing cachedListing
	found := false
	_ = c.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(entriesBucket).Get([]byte(baseURL))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &listing); err != nil {
			return nil
		}
		found = true
		return nil
	})
	if !found || time.Since(listing.Stored) > c.ttl {
		return nil, false
	}
	return listing.Entries, true
}

// Put stores a freshly fetched listing for baseURL.
func (c *BoltCache) Put(baseURL string, entries []Entry) error {
	raw, err := json.Marshal(cachedListing{Entries: entries, Stored: time.Now()})
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(entriesBucket).Put([]byte(baseURL), raw)
	})
}
