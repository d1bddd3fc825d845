// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config assembles sysand's one immutable Config at the entry
// point, in precedence order: built-in defaults, sysand.toml, environment
// variables, then call-site overrides — replacing any notion of mutable
// global configuration (see DESIGN.md's redesign-flag decision).
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/sensmetry/sysand/errs"
)

// IndexConfig is one `[[index]]` table.
type IndexConfig struct {
	URL     string `toml:"url"`
	Default bool   `toml:"default"`
}

// ProjectOverride is one `[[project]]` table: an identifier set with its
// ordered source list, per §6.
type ProjectOverride struct {
	Identifiers []string        `toml:"identifiers"`
	Sources     []OverrideSource `toml:"sources"`
}

// OverrideSource mirrors lockfile.Source's shape (duplicated rather than
// imported, since config must not depend on lockfile's TOML document type
// for what is a structurally distinct table).
type OverrideSource struct {
	SrcPath    string `toml:"src_path,omitempty"`
	KparPath   string `toml:"kpar_path,omitempty"`
	Editable   string `toml:"editable,omitempty"`
	RemoteSrc  string `toml:"remote_src,omitempty"`
	RemoteKpar string `toml:"remote_kpar,omitempty"`
	RemoteGit  string `toml:"remote_git,omitempty"`
}

// fileConfig is sysand.toml's shape.
type fileConfig struct {
	Index   []IndexConfig     `toml:"index"`
	Project []ProjectOverride `toml:"project"`
}

// Config is the fully assembled, immutable configuration.
type Config struct {
	Indexes       []IndexConfig
	DefaultIndex  string
	NoIndex       bool
	Overrides     []ProjectOverride
}

// Overrides controls call-site overrides applied after every other layer.
type Overrides struct {
	NoIndex *bool
}

// Load assembles a Config starting at workDir, per §10.3: defaults,
// sysand.toml (via SYSAND_CONFIG_FILE or discovered upward from workDir
// unless SYSAND_NO_CONFIG is "true"), SYSAND_INDEX/SYSAND_DEFAULT_INDEX,
// then overrides.
func Load(workDir string, environ []string, overrides Overrides) (Config, error) {
	env := parseEnviron(environ)
	cfg := Config{}

	if env["SYSAND_NO_CONFIG"] != "true" {
		path := env["SYSAND_CONFIG_FILE"]
		if path == "" {
			found, err := discover(workDir)
			if err != nil {
				return Config{}, err
			}
			path = found
		}
		if path != "" {
			fc, err := loadFile(path)
			if err != nil {
				return Config{}, err
			}
			cfg.Indexes = fc.Index
			cfg.Overrides = fc.Project
		}
	}

	if raw := env["SYSAND_INDEX"]; raw != "" {
		for _, u := range strings.Split(raw, ",") {
			u = strings.TrimSpace(u)
			if u != "" {
				cfg.Indexes = append(cfg.Indexes, IndexConfig{URL: u})
			}
		}
	}
	if d := env["SYSAND_DEFAULT_INDEX"]; d != "" {
		cfg.DefaultIndex = strings.TrimSpace(strings.Split(d, ",")[0])
	} else {
		for _, idx := range cfg.Indexes {
			if idx.Default {
				cfg.DefaultIndex = idx.URL
				break
			}
		}
	}

	if overrides.NoIndex != nil {
		cfg.NoIndex = *overrides.NoIndex
	}

	return cfg, nil
}

func loadFile(path string) (fileConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, errs.New(errs.Io, path, err, "cannot read config file")
	}
	var fc fileConfig
	if err := toml.Unmarshal(raw, &fc); err != nil {
		return fileConfig{}, errs.New(errs.Serialisation, path, err, "cannot parse config file")
	}
	return fc, nil
}

// discover walks upward from dir looking for sysand.toml, stopping at the
// filesystem root. Returns "" (no error) if none is found.
func discover(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", errs.New(errs.Io, dir, err, "cannot resolve working directory")
	}
	for {
		candidate := filepath.Join(dir, "sysand.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func parseEnviron(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			out[kv[:i]] = kv[i+1:]
		}
	}
	return out
}
