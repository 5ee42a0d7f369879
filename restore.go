// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unbundle

import "strings"

// RestoreFlags selects the entry attributes the write cursor restores on disk.
type RestoreFlags uint

const (
	// RestorePerm restores the exact permission bits including setuid, setgid
	// and sticky. Without it the umask applies.
	RestorePerm RestoreFlags = 1 << iota

	// RestoreACL restores POSIX access and default ACLs.
	RestoreACL

	// RestoreFFlags restores filesystem flags like nodump or append-only.
	RestoreFFlags

	// RestoreTime restores access and modification times.
	RestoreTime
)

// DefaultRestoreFlags restores permissions, ACLs and file flags. Modification
// times are set to the time of extraction.
const DefaultRestoreFlags = RestorePerm | RestoreACL | RestoreFFlags

// Has reports whether all bits of flag are set.
func (f RestoreFlags) Has(flag RestoreFlags) bool {
	return f&flag == flag
}

// String returns the names of the set flags, joined by "|".
func (f RestoreFlags) String() string {
	var names []string
	for _, n := range []struct {
		flag RestoreFlags
		name string
	}{
		{RestorePerm, "perm"},
		{RestoreACL, "acl"},
		{RestoreFFlags, "fflags"},
		{RestoreTime, "time"},
	} {
		if f.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}
