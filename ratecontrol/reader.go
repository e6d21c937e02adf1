// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ratecontrol

import (
	"context"
	"io"
)

// ThrottledReader wraps a response body so that reads respect the
// controller's byte budget. Reads return the context's error once it is
// cancelled.
type ThrottledReader struct {
	ctx  context.Context
	rd   io.Reader
	ctrl *Controller
}

// NewThrottledReader returns a reader accounting everything read from rd
// against ctrl's bandwidth budget.
func NewThrottledReader(ctx context.Context, rd io.Reader, ctrl *Controller) *ThrottledReader {
	return &ThrottledReader{ctx: ctx, rd: rd, ctrl: ctrl}
}

// Read implements io.Reader.
func (tr *ThrottledReader) Read(p []byte) (int, error) {
	if err := tr.ctrl.WaitBytes(tr.ctx); err != nil {
		return 0, err
	}
	n, err := tr.rd.Read(p)
	tr.ctrl.BytesTransferred(n)
	return n, err
}
