// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fetch

import "github.com/Masterminds/vcs"

// VCSClient is the seam over github.com/Masterminds/vcs that lets tests
// substitute a fake repository instead of shelling out to a real git binary.
type VCSClient interface {
	// Clone fetches remote into localPath (creating it), then checks out
	// rev if non-empty.
	Clone(remote, localPath, rev string) error
}

type defaultVCSClient struct{}

func (defaultVCSClient) Clone(remote, localPath, rev string) error {
	repo, err := vcs.NewGitRepo(remote, localPath)
	if err != nil {
		return err
	}
	if err := repo.Get(); err != nil {
		return err
	}
	if rev != "" {
		if err := repo.UpdateVersion(rev); err != nil {
			return err
		}
	}
	return nil
}
