// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package engine

import (
	"time"

	"github.com/mirrorkeep/blogdl/blogcfg"
	"github.com/mirrorkeep/blogdl/fetch"
	"github.com/mirrorkeep/blogdl/ratecontrol"
)

// NewClient builds the shared HTTP client from the configuration,
// wiring the request-rate and bandwidth limits into a rate controller.
func NewClient(s *blogcfg.Settings) (*fetch.Client, error) {
	var fopts []fetch.Option
	if s.UserAgent != "" {
		fopts = append(fopts, fetch.WithUserAgent(s.UserAgent))
	}
	if s.Proxy != "" {
		fopts = append(fopts, fetch.WithProxy(s.Proxy))
	}
	if s.Timeout > 0 {
		fopts = append(fopts, fetch.WithTimeout(time.Duration(s.Timeout)))
	}
	var ropts []ratecontrol.Option
	if s.RequestsPerMinute > 0 {
		ropts = append(ropts,
			ratecontrol.WithInterval(time.Minute),
			ratecontrol.WithRequestsPerInterval(s.RequestsPerMinute))
	}
	if s.BytesPerSecond > 0 {
		ropts = append(ropts,
			ratecontrol.WithInterval(time.Second),
			ratecontrol.WithBytesPerInterval(int(s.BytesPerSecond)))
	}
	if len(ropts) > 0 {
		fopts = append(fopts, fetch.WithRateController(ratecontrol.New(ropts...)))
	}
	return fetch.New(fopts...)
}
