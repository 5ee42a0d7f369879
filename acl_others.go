// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

//go:build !linux

package unbundle

import (
	"fmt"
	"runtime"
)

// restoreACL fails for entries with ACLs, they are not supported on this platform.
func restoreACL(_ string, e *Entry) error {
	access, def, err := aclXattrs(e)
	if err != nil {
		return err
	}
	if len(access) > 0 || len(def) > 0 {
		return fmt.Errorf("ACLs are not supported on this platform (%s)", runtime.GOOS)
	}
	return nil
}
