// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"io"
	"io/fs"
	"time"
)

// archiveWalker iterates over the entries of one archive format.
type archiveWalker interface {
	// Format returns the name of the archive format
	Format() string

	// Next returns the next entry and a reader for its data. The reader is
	// valid until the next call of Next. At the end of the archive io.EOF
	// is returned. A [*Warning] may be returned together with a valid entry.
	Next() (*Entry, io.Reader, error)

	// Close releases the resources of the walker
	Close() error
}

// EntryType is the kind of an archive entry.
type EntryType int

const (
	// TypeUnknown is an entry type that cannot be extracted.
	TypeUnknown EntryType = iota
	// TypeRegular is a regular file.
	TypeRegular
	// TypeDir is a directory.
	TypeDir
	// TypeSymlink is a symbolic link.
	TypeSymlink
	// TypeHardlink is a hard link to an entry earlier in the archive.
	TypeHardlink
	// TypeFifo is a named pipe.
	TypeFifo
	// TypeChar is a character device.
	TypeChar
	// TypeBlock is a block device.
	TypeBlock
)

// String returns the name of the entry type.
func (t EntryType) String() string {
	switch t {
	case TypeRegular:
		return "file"
	case TypeDir:
		return "directory"
	case TypeSymlink:
		return "symlink"
	case TypeHardlink:
		return "hardlink"
	case TypeFifo:
		return "fifo"
	case TypeChar:
		return "char device"
	case TypeBlock:
		return "block device"
	}
	return "unknown"
}

// Entry is the metadata of the current archive entry. It is owned by the read
// cursor and only valid until the next entry is requested. The extraction
// pipeline rewrites Pathname and Hardlink to the on-disk destination before the
// entry is handed to the write cursor.
type Entry struct {
	// Pathname is the path of the entry
	Pathname string

	// Linkname is the target of a symlink
	Linkname string

	// Hardlink is the path of the entry a hardlink points to
	Hardlink string

	// Type is the kind of the entry
	Type EntryType

	// Mode holds the permission bits including setuid, setgid and sticky
	Mode fs.FileMode

	// Size is the declared size of the entry data
	Size int64

	// ModTime is the declared modification time
	ModTime time.Time

	// AccessTime is the declared access time, zero if the format does not store it
	AccessTime time.Time

	// Uid and Gid are the numeric owner ids
	Uid, Gid int

	// Devmajor and Devminor are the device numbers of char and block devices
	Devmajor, Devminor int64

	// ACLAccess and ACLDefault are POSIX ACLs in their text form
	ACLAccess, ACLDefault string

	// Xattrs are the extended attributes stored for the entry
	Xattrs map[string]string

	// FFlags is a comma separated list of file flag names, e.g. "nodump,uappnd"
	FFlags string
}

// permissionBits is the part of an fs.FileMode that is restored on disk
const permissionBits = fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky

// entryTypeFromMode derives the EntryType from the type bits of mode.
func entryTypeFromMode(mode fs.FileMode) EntryType {
	switch {
	case mode.IsRegular():
		return TypeRegular
	case mode.IsDir():
		return TypeDir
	case mode&fs.ModeSymlink != 0:
		return TypeSymlink
	case mode&fs.ModeNamedPipe != 0:
		return TypeFifo
	case mode&fs.ModeCharDevice != 0:
		return TypeChar
	case mode&fs.ModeDevice != 0:
		return TypeBlock
	}
	return TypeUnknown
}
