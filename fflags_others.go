// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

//go:build !linux

package unbundle

import (
	"fmt"
	"runtime"
)

// restoreFFlags is not supported on this platform.
func restoreFFlags(_ string, list string) error {
	return fmt.Errorf("file flags %q are not supported on this platform (%s)", list, runtime.GOOS)
}
