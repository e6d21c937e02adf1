// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"syscall"

	"cloudeng.io/errors"
	"cloudeng.io/net/http/httperror"
)

// ErrTimeout indicates that a request exceeded its configured timeout.
// It is distinct from cancellation of the caller's context, which is
// always surfaced as context.Canceled.
var ErrTimeout = errors.New("request timed out")

// classify maps transport errors to the engine's taxonomy. The parent
// context decides between cancellation and timeout: an expired per-call
// deadline surfaces as ErrTimeout only while the caller's context is
// still live.
func classify(parent context.Context, err error) error {
	if err == nil {
		return nil
	}
	if parent.Err() != nil || errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return ErrTimeout
	}
	return err
}

// Classify maps an error from reading a response body onto the same
// taxonomy Do applies to request errors, distinguishing the caller's
// cancellation from an expired per-call deadline.
func Classify(parent context.Context, err error) error {
	return classify(parent, err)
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCancelled reports whether err is caller cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsRateLimited reports whether the server answered 429, the
// non-fatal 'rate limit hit' marker for a crawl.
func IsRateLimited(err error) bool {
	return httperror.IsHTTPError(err, http.StatusTooManyRequests)
}

// IsNotAuthenticated reports whether the server answered 503, which the
// source site uses for auth walls rather than availability.
func IsNotAuthenticated(err error) bool {
	return httperror.IsHTTPError(err, http.StatusServiceUnavailable)
}

// IsNotFound reports whether the server answered 404 or 410.
func IsNotFound(err error) bool {
	return httperror.IsHTTPError(err, http.StatusNotFound) ||
		httperror.IsHTTPError(err, http.StatusGone)
}

// StatusCode extracts the HTTP status from err, if it carries one.
func StatusCode(err error) (int, bool) {
	var terr *httperror.T
	if errors.As(err, &terr) && terr.StatusCode != 0 {
		return terr.StatusCode, true
	}
	return 0, false
}

// IsStatus reports whether err carries any HTTP status, ie. the server
// answered and the answer was an error.
func IsStatus(err error) bool {
	_, ok := StatusCode(err)
	return ok
}

// IsTransient reports whether err is worth retrying on the binary
// download path: timeouts, connection resets and truncated bodies.
// Status errors and cancellation are never transient.
func IsTransient(err error) bool {
	if err == nil || IsCancelled(err) || IsStatus(err) {
		return false
	}
	if IsTimeout(err) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr)
}
