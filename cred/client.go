// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cred

import "net/http"

// Client adapts a Broker to the store.RoundTripper / http.Client-shaped Do
// method that sysand's HTTP-backed stores and fetchers expect.
type Client struct {
	HTTP   *http.Client
	Broker *Broker
}

// NewClient returns a Client using http.DefaultClient and the given broker.
// A nil broker performs unauthenticated requests only.
func NewClient(broker *Broker) *Client {
	return &Client{HTTP: http.DefaultClient, Broker: broker}
}

// Do implements store.RoundTripper.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.Broker == nil {
		return c.HTTP.Do(req)
	}
	return c.Broker.Do(c.HTTP, req)
}
