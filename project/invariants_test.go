// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package project

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensmetry/sysand/store"
)

func TestLicenseValidation(t *testing.T) {
	cases := []struct {
		name    string
		license string
		wantErr bool
	}{
		{"empty is allowed", "", false},
		{"simple token", "MIT", false},
		{"AND expression", "MIT AND Apache-2.0", false},
		{"OR expression", "MIT OR Apache-2.0", false},
		{"WITH exception", "Apache-2.0 WITH LLVM-exception", false},
		{"parenthesised", "(MIT OR Apache-2.0) AND BSD-3-Clause", false},
		{"unbalanced parens", "(MIT OR Apache-2.0", true},
		{"stray closing paren", "MIT)", true},
		{"invalid token characters", "MIT!!", true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ctx := context.Background()
			s := store.NewMemory()
			p, err := Init(ctx, s, "example", "1.0.0", time.Now().UTC())
			require.NoError(t, err)

			err = p.mutate(ctx, func() error {
				p.info.License = c.license
				return nil
			})
			if c.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
