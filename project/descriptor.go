// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package project is the high-level façade over a Project Store: typed
// accessors for project info, metadata, and the source-file set, with
// invariant-checked mutators, per spec §3/§4.2.
package project

import "time"

// Usage is one declared dependency: a target IRI and an optional version
// constraint string (parsed lazily by callers that need to evaluate it).
type Usage struct {
	Resource         string `json:"resource"`
	VersionConstraint string `json:"versionConstraint,omitempty"`
}

// Info is the ".project.json" descriptor.
type Info struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Version     string   `json:"version"`
	License     string   `json:"license,omitempty"`
	Maintainer  []string `json:"maintainer,omitempty"`
	Website     string   `json:"website,omitempty"`
	Topic       []string `json:"topic,omitempty"`
	Usage       []Usage  `json:"usage"`
}

// Checksum is one entry of the metadata's per-file checksum map.
type Checksum struct {
	Value     string `json:"value"`
	Algorithm string `json:"algorithm"`
}

// Metadata is the ".meta.json" descriptor.
type Metadata struct {
	Index           map[string]string   `json:"index"`
	Created         time.Time           `json:"created"`
	Metamodel       string               `json:"metamodel,omitempty"`
	IncludesDerived *bool                `json:"includesDerived,omitempty"`
	IncludesImplied *bool                `json:"includesImplied,omitempty"`
	Checksum        map[string]Checksum  `json:"checksum,omitempty"`
}
