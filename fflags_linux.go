// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

//go:build linux

package unbundle

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// inode flags of linux/fs.h
const (
	fsSecrmFL       = 0x00000001
	fsUnrmFL        = 0x00000002
	fsComprFL       = 0x00000004
	fsSyncFL        = 0x00000008
	fsImmutableFL   = 0x00000010
	fsAppendFL      = 0x00000020
	fsNodumpFL      = 0x00000040
	fsNoatimeFL     = 0x00000080
	fsJournalDataFL = 0x00004000
	fsNotailFL      = 0x00008000
	fsDirsyncFL     = 0x00010000
	fsTopdirFL      = 0x00020000
	fsNocowFL       = 0x00800000
)

// fflagNames maps the names used in archives to linux inode flags
var fflagNames = map[string]int{
	"sappnd":         fsAppendFL,
	"sappend":        fsAppendFL,
	"uappnd":         fsAppendFL,
	"uappend":        fsAppendFL,
	"schg":           fsImmutableFL,
	"schange":        fsImmutableFL,
	"simmutable":     fsImmutableFL,
	"uchg":           fsImmutableFL,
	"uchange":        fsImmutableFL,
	"uimmutable":     fsImmutableFL,
	"nodump":         fsNodumpFL,
	"noatime":        fsNoatimeFL,
	"compress":       fsComprFL,
	"nocow":          fsNocowFL,
	"sync":           fsSyncFL,
	"dirsync":        fsDirsyncFL,
	"journal-data":   fsJournalDataFL,
	"notail":         fsNotailFL,
	"topdir":         fsTopdirFL,
	"undel":          fsUnrmFL,
	"securedeletion": fsSecrmFL,
}

// parseFFlags returns the flags to set and to unset. A known name prefixed
// with "no" clears the flag, unknown names are returned as error after all
// known names were collected.
func parseFFlags(list string) (set, unset int, err error) {
	var unknown []string
	for _, name := range strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ' ' }) {
		if f, ok := fflagNames[name]; ok {
			set |= f
			continue
		}
		if f, ok := fflagNames[strings.TrimPrefix(name, "no")]; ok && strings.HasPrefix(name, "no") {
			unset |= f
			continue
		}
		unknown = append(unknown, name)
	}
	if len(unknown) > 0 {
		err = fmt.Errorf("unknown file flags: %s", strings.Join(unknown, ","))
	}
	return set, unset, err
}

// restoreFFlags applies the file flags in list to path using FS_IOC_SETFLAGS.
func restoreFFlags(path string, list string) error {
	set, unset, parseErr := parseFFlags(list)
	if set == 0 && unset == 0 {
		return parseErr
	}

	f, err := os.OpenFile(path, os.O_RDONLY|unix.O_NONBLOCK|unix.O_NOFOLLOW, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	fd := int(f.Fd())
	current, err := unix.IoctlGetInt(fd, unix.FS_IOC_GETFLAGS)
	if err != nil {
		return fmt.Errorf("cannot get file flags: %w", err)
	}
	flags := (current | set) &^ unset
	if flags != current {
		if err := unix.IoctlSetPointerInt(fd, unix.FS_IOC_SETFLAGS, flags); err != nil {
			return fmt.Errorf("cannot set file flags: %w", err)
		}
	}
	return parseErr
}
