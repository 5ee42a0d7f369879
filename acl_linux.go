// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

//go:build linux

package unbundle

import (
	"golang.org/x/sys/unix"
)

// restoreACL writes the POSIX ACLs of e as xattrs. Default ACLs are only
// applied to directories.
func restoreACL(path string, e *Entry) error {
	access, def, err := aclXattrs(e)
	if err != nil {
		return err
	}
	if len(access) > 0 {
		if err := unix.Setxattr(path, xattrACLAccess, access, 0); err != nil {
			return err
		}
	}
	if len(def) > 0 && e.Type == TypeDir {
		if err := unix.Setxattr(path, xattrACLDefault, def, 0); err != nil {
			return err
		}
	}
	return nil
}
