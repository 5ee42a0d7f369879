// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

//go:build unix

package unbundle

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// lchtimes modifies the access and modified timestamps on a target path
// This capability is only available on unix as of now.
func lchtimes(path string, atime, mtime time.Time) error {
	return unix.Lutimes(path, []unix.Timeval{
		unixTimeval(atime),
		unixTimeval(mtime),
	})
}

// unixTimeval converts a time.Time to a unix.Timeval. Note that it always rounds
// up to the nearest microsecond, so even one nanosecond past the previous nanosecond
// will be rounded up to the next microsecond.
// See the implementation of unix.NsecToTimeval for details on how this happens.
func unixTimeval(t time.Time) unix.Timeval {
	return unix.NsecToTimeval(t.UnixNano())
}

// canMaintainSymlinkTimestamps determines whether is is possible to change
// timestamps on symlinks for the the current platform. Go's cross-platform
// Chtimes follows symlinks, the unix specific Lutimes does not.
const canMaintainSymlinkTimestamps = true

// mknod creates the fifo or device node described by e. The permission bits
// are subject to the umask, they are restored with the other metadata.
func mknod(path string, e *Entry) error {
	perm := uint32(e.Mode.Perm())
	switch e.Type {
	case TypeFifo:
		return unix.Mkfifo(path, perm)
	case TypeChar:
		dev := unix.Mkdev(uint32(e.Devmajor), uint32(e.Devminor))
		return unix.Mknod(path, unix.S_IFCHR|perm, int(dev))
	case TypeBlock:
		dev := unix.Mkdev(uint32(e.Devmajor), uint32(e.Devminor))
		return unix.Mknod(path, unix.S_IFBLK|perm, int(dev))
	}
	return fmt.Errorf("%s: %w", e.Type, ErrUnsupportedEntry)
}
