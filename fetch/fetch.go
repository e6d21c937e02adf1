// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package fetch implements the outbound HTTP client used by both the
// page crawler and the media downloader: user agent and cookie handling,
// proxying, per-call timeouts, ranged requests and bandwidth throttling
// via the ratecontrol package. The client carries no mutable shared
// state beyond the connection pool.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"cloudeng.io/net/http/httperror"
	"github.com/mirrorkeep/blogdl/ratecontrol"
)

// CookieStore supplies cookies for a host; it is an opaque collaborator
// owned by the credential layer.
type CookieStore interface {
	CookiesFor(u *url.URL) []*http.Cookie
}

// Authenticator applies authentication headers to outbound requests; it
// is an opaque collaborator owned by the credential layer.
type Authenticator interface {
	Apply(req *http.Request)
}

// Client issues requests on behalf of a single crawl/download run.
type Client struct {
	httpc   *http.Client
	ua      string
	timeout time.Duration
	cookies CookieStore
	auth    Authenticator
	ctrl    *ratecontrol.Controller
}

// New creates a Client. The zero options give a plain client with a 30s
// per-call timeout and no rate control.
func New(opts ...Option) (*Client, error) {
	var o clientOptions
	for _, fn := range opts {
		fn(&o)
	}
	proxy := http.ProxyFromEnvironment
	if o.proxyURL != "" {
		u, err := url.Parse(o.proxyURL)
		if err != nil {
			return nil, fmt.Errorf("proxy %q: %w", o.proxyURL, err)
		}
		proxy = http.ProxyURL(u)
	}
	transport := &http.Transport{
		Proxy:                 proxy,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	}
	if o.transport != nil {
		transport = o.transport
	}
	c := &Client{
		httpc:   &http.Client{Transport: transport},
		ua:      o.userAgent,
		timeout: o.timeout,
		cookies: o.cookies,
		auth:    o.auth,
		ctrl:    o.ctrl,
	}
	if c.ua == "" {
		c.ua = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	}
	if c.timeout <= 0 {
		c.timeout = 30 * time.Second
	}
	if c.ctrl == nil {
		c.ctrl = ratecontrol.New()
	}
	return c, nil
}

// Response is a successful (2xx) response whose body is throttled and
// bound to the request's timeout. Close releases the timeout as well as
// the underlying body.
type Response struct {
	StatusCode    int
	Header        http.Header
	ContentLength int64

	body   io.ReadCloser
	cancel context.CancelFunc
}

// Read implements io.Reader.
func (r *Response) Read(p []byte) (int, error) {
	return r.body.Read(p)
}

// Close implements io.Closer.
func (r *Response) Close() error {
	defer r.cancel()
	return r.body.Close()
}

// Do issues a request and returns the open response. Statuses >= 400 are
// returned as *httperror.T; timeouts are mapped to ErrTimeout, distinct
// from cancellation of the caller's context.
func (c *Client) Do(ctx context.Context, rawurl string, opts ...RequestOption) (*Response, error) {
	var ro requestOptions
	ro.method = http.MethodGet
	for _, fn := range opts {
		fn(&ro)
	}
	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	if err := c.ctrl.Wait(rctx); err != nil {
		cancel()
		return nil, classify(ctx, err)
	}
	req, err := http.NewRequestWithContext(rctx, ro.method, rawurl, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	req.Header.Set("User-Agent", c.ua)
	if ro.referer != "" {
		req.Header.Set("Referer", ro.referer)
	}
	for k, v := range ro.headers {
		req.Header.Set(k, v)
	}
	if ro.rangeFrom > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", ro.rangeFrom))
	}
	if c.cookies != nil {
		for _, ck := range c.cookies.CookiesFor(req.URL) {
			req.AddCookie(ck)
		}
	}
	if c.auth != nil {
		c.auth.Apply(req)
	}
	resp, err := c.httpc.Do(req) //nolint:bodyclose
	if err != nil {
		cancel()
		return nil, classify(ctx, err)
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		cancel()
		return nil, &httperror.T{Status: resp.Status, StatusCode: resp.StatusCode}
	}
	return &Response{
		StatusCode:    resp.StatusCode,
		Header:        resp.Header,
		ContentLength: resp.ContentLength,
		body: throttledBody{
			Reader: ratecontrol.NewThrottledReader(rctx, resp.Body, c.ctrl),
			Closer: resp.Body,
		},
		cancel: cancel,
	}, nil
}

type throttledBody struct {
	io.Reader
	io.Closer
}

// Text fetches rawurl and returns the body as a string. Used for page
// fetches; the whole body is read within the call's timeout.
func (c *Client) Text(ctx context.Context, rawurl string, opts ...RequestOption) (string, error) {
	resp, err := c.Do(ctx, rawurl, opts...)
	if err != nil {
		return "", err
	}
	defer resp.Close()
	buf, err := io.ReadAll(resp)
	if err != nil {
		return "", classify(ctx, err)
	}
	return string(buf), nil
}

// ContentLength issues a HEAD request and returns the resource's total
// size, -1 when the server does not report one.
func (c *Client) ContentLength(ctx context.Context, rawurl string) (int64, error) {
	resp, err := c.Do(ctx, rawurl, withMethod(http.MethodHead))
	if err != nil {
		return 0, err
	}
	defer resp.Close()
	return resp.ContentLength, nil
}
