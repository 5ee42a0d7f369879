// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"path/filepath"
	"strings"
)

// resolveEntryPath returns the on-disk destination of the archive member name
// below root. If strip is set, everything up to and including the first "/"
// is dropped. A name without "/" is placed verbatim.
func resolveEntryPath(root, name string, strip bool) string {
	if strip {
		if i := strings.Index(name, "/"); i >= 0 {
			name = name[i+1:]
		}
	}
	return filepath.Join(root, filepath.FromSlash(name))
}
