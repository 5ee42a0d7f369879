// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"encoding/binary"
	"fmt"
	"os/user"
	"sort"
	"strconv"
	"strings"
)

// POSIX ACL extended attribute names
const (
	xattrACLAccess  = "system.posix_acl_access"
	xattrACLDefault = "system.posix_acl_default"
)

// tags and layout of the posix_acl xattr value
const (
	aclVersion   = 2
	aclUndefined = 0xFFFFFFFF

	aclUserObj  = 0x01
	aclUser     = 0x02
	aclGroupObj = 0x04
	aclGroup    = 0x08
	aclMask     = 0x10
	aclOther    = 0x20
)

// aclEntry is a single entry of a POSIX ACL
type aclEntry struct {
	tag  uint16
	perm uint16
	id   uint32
}

// aclXattrs returns the xattr values of the access and default ACL of e. The
// text form is preferred, raw xattrs of the archive are the fallback.
func aclXattrs(e *Entry) (access, def []byte, err error) {
	access, err = aclValue(e.ACLAccess, e.Xattrs[xattrACLAccess])
	if err != nil {
		return nil, nil, fmt.Errorf("access acl: %w", err)
	}
	def, err = aclValue(e.ACLDefault, e.Xattrs[xattrACLDefault])
	if err != nil {
		return nil, nil, fmt.Errorf("default acl: %w", err)
	}
	return access, def, nil
}

func aclValue(text, raw string) ([]byte, error) {
	if len(text) > 0 {
		return encodeACL(text)
	}
	if len(raw) > 0 {
		return []byte(raw), nil
	}
	return nil, nil
}

// encodeACL converts the text form of an ACL, as written by star and bsdtar,
// into the value of a posix_acl xattr. Entries are separated by comma or
// newline and have the form "tag:qualifier:perms[:id]".
func encodeACL(text string) ([]byte, error) {
	var entries []aclEntry
	for _, field := range strings.FieldsFunc(text, func(r rune) bool { return r == ',' || r == '\n' }) {
		field = strings.TrimSpace(field)
		if len(field) == 0 || strings.HasPrefix(field, "#") {
			continue
		}
		e, err := parseACLEntry(field)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].tag != entries[j].tag {
			return entries[i].tag < entries[j].tag
		}
		return entries[i].id < entries[j].id
	})

	buf := make([]byte, 4+8*len(entries))
	binary.LittleEndian.PutUint32(buf, aclVersion)
	for i, e := range entries {
		off := 4 + 8*i
		binary.LittleEndian.PutUint16(buf[off:], e.tag)
		binary.LittleEndian.PutUint16(buf[off+2:], e.perm)
		binary.LittleEndian.PutUint32(buf[off+4:], e.id)
	}
	return buf, nil
}

// parseACLEntry parses one entry of the text form.
func parseACLEntry(field string) (aclEntry, error) {
	parts := strings.Split(field, ":")
	if len(parts) < 3 {
		return aclEntry{}, fmt.Errorf("invalid acl entry %q", field)
	}

	perm, err := parseACLPerm(parts[2])
	if err != nil {
		return aclEntry{}, fmt.Errorf("invalid acl entry %q: %w", field, err)
	}
	e := aclEntry{perm: perm, id: aclUndefined}
	qualifier := parts[1]

	switch parts[0] {
	case "user", "u":
		e.tag = aclUserObj
		if len(qualifier) > 0 {
			e.tag = aclUser
		}
	case "group", "g":
		e.tag = aclGroupObj
		if len(qualifier) > 0 {
			e.tag = aclGroup
		}
	case "mask", "m":
		e.tag = aclMask
	case "other", "o":
		e.tag = aclOther
	default:
		return aclEntry{}, fmt.Errorf("unknown acl tag %q", parts[0])
	}

	if e.tag == aclUser || e.tag == aclGroup {
		id, err := aclQualifierID(e.tag, qualifier, parts[3:])
		if err != nil {
			return aclEntry{}, fmt.Errorf("invalid acl entry %q: %w", field, err)
		}
		e.id = id
	}
	return e, nil
}

// parseACLPerm parses "rwx" style permissions.
func parseACLPerm(s string) (uint16, error) {
	var perm uint16
	for _, c := range s {
		switch c {
		case 'r':
			perm |= 4
		case 'w':
			perm |= 2
		case 'x':
			perm |= 1
		case '-':
		default:
			return 0, fmt.Errorf("invalid permission %q", s)
		}
	}
	return perm, nil
}

// aclQualifierID resolves the numeric id of a user or group qualifier. The
// trailing id field written by star wins over a name lookup.
func aclQualifierID(tag uint16, qualifier string, extra []string) (uint32, error) {
	if len(extra) > 0 {
		if id, err := strconv.ParseUint(extra[0], 10, 32); err == nil {
			return uint32(id), nil
		}
	}
	if id, err := strconv.ParseUint(qualifier, 10, 32); err == nil {
		return uint32(id), nil
	}

	var idStr string
	if tag == aclUser {
		u, err := user.Lookup(qualifier)
		if err != nil {
			return 0, err
		}
		idStr = u.Uid
	} else {
		g, err := user.LookupGroup(qualifier)
		if err != nil {
			return 0, err
		}
		idStr = g.Gid
	}
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(id), nil
}
