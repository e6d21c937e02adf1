// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fetch

import (
	"net/http"
	"time"

	"github.com/mirrorkeep/blogdl/ratecontrol"
)

type clientOptions struct {
	userAgent string
	proxyURL  string
	timeout   time.Duration
	cookies   CookieStore
	auth      Authenticator
	ctrl      *ratecontrol.Controller
	transport *http.Transport
}

// Option configures a Client.
type Option func(o *clientOptions)

// WithUserAgent overrides the default browser user agent.
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) {
		o.userAgent = ua
	}
}

// WithProxy routes all requests through the supplied proxy URL. The
// default is the environment's proxy configuration.
func WithProxy(proxyURL string) Option {
	return func(o *clientOptions) {
		o.proxyURL = proxyURL
	}
}

// WithTimeout sets the per-call timeout covering connection, request and
// body read.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// WithCookieStore attaches the credential layer's cookie store.
func WithCookieStore(cs CookieStore) Option {
	return func(o *clientOptions) {
		o.cookies = cs
	}
}

// WithAuthenticator attaches the credential layer's header authenticator.
func WithAuthenticator(a Authenticator) Option {
	return func(o *clientOptions) {
		o.auth = a
	}
}

// WithRateController shares a rate controller across all requests made by
// the client.
func WithRateController(c *ratecontrol.Controller) Option {
	return func(o *clientOptions) {
		o.ctrl = c
	}
}

// WithTransport overrides the http transport, used by tests.
func WithTransport(t *http.Transport) Option {
	return func(o *clientOptions) {
		o.transport = t
	}
}

type requestOptions struct {
	method    string
	referer   string
	headers   map[string]string
	rangeFrom int64
}

// RequestOption configures a single request.
type RequestOption func(o *requestOptions)

// WithReferer sets the Referer header.
func WithReferer(ref string) RequestOption {
	return func(o *requestOptions) {
		o.referer = ref
	}
}

// WithHeader sets an additional request header.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = map[string]string{}
		}
		o.headers[key] = value
	}
}

// WithRangeFrom requests the byte range [from, end) of the resource,
// used to resume partial downloads.
func WithRangeFrom(from int64) RequestOption {
	return func(o *requestOptions) {
		o.rangeFrom = from
	}
}

func withMethod(m string) RequestOption {
	return func(o *requestOptions) {
		o.method = m
	}
}
