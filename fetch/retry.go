// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fetch

import (
	"context"
	"time"

	"github.com/sensmetry/sysand/errs"
)

// RetryPolicy configures the exponential backoff retry loop network
// operations use, per §4.4: 3 attempts by default, initial 250ms, factor 2.
type RetryPolicy struct {
	Attempts int
	Initial  time.Duration
	Factor   float64
}

// DefaultRetryPolicy is the spec's default.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Initial: 250 * time.Millisecond, Factor: 2}

// withRetry runs fn up to policy.Attempts times, waiting an exponentially
// increasing delay between attempts. It aborts early and without delay on
// context cancellation.
func withRetry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	if policy.Attempts <= 0 {
		policy = DefaultRetryPolicy
	}

	delay := policy.Initial
	var lastErr error
	for attempt := 0; attempt < policy.Attempts; attempt++ {
		if ctx.Err() != nil {
			return errs.New(errs.Cancelled, "", ctx.Err(), "fetch cancelled")
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt < policy.Attempts-1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return errs.New(errs.Cancelled, "", ctx.Err(), "fetch cancelled")
			}
			delay = time.Duration(float64(delay) * policy.Factor)
		}
	}
	return lastErr
}
