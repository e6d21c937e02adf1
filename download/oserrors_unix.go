// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

//go:build unix

package download

import (
	"cloudeng.io/errors"
	"golang.org/x/sys/unix"
)

// isDiskFull reports whether err indicates an exhausted filesystem or
// quota. Fatal for the whole run.
func isDiskFull(err error) bool {
	return errors.Is(err, unix.ENOSPC) || errors.Is(err, unix.EDQUOT)
}

// isFileInUse reports whether err indicates the destination is held by
// another process, which is treated as an idempotent skip.
func isFileInUse(err error) bool {
	return errors.Is(err, unix.EBUSY) || errors.Is(err, unix.ETXTBSY)
}
