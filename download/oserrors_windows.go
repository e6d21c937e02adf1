// Copyright 2025 the blogdl authors. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

//go:build windows

package download

import (
	"cloudeng.io/errors"
	"golang.org/x/sys/windows"
)

// isDiskFull reports whether err indicates an exhausted volume. Fatal
// for the whole run.
func isDiskFull(err error) bool {
	return errors.Is(err, windows.ERROR_DISK_FULL) ||
		errors.Is(err, windows.ERROR_HANDLE_DISK_FULL)
}

// isFileInUse reports whether err indicates the destination is held by
// another process, which is treated as an idempotent skip.
func isFileInUse(err error) bool {
	return errors.Is(err, windows.ERROR_SHARING_VIOLATION) ||
		errors.Is(err, windows.ERROR_LOCK_VIOLATION)
}
