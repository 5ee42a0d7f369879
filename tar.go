// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// formatTar is the name of the tar format
const formatTar = "tar"

// offsetTar is the offset where the magic bytes are located in the header
const offsetTar = 257

// blockSizeTar is the size of a tar header block
const blockSizeTar = 512

// magicBytesTar are the magic bytes for tar files
var magicBytesTar = [][]byte{
	[]byte("ustar\x00tar\x00"),
	[]byte("ustar\x00"),
	[]byte("ustar  \x00"),
}

// pax records that carry attributes restored on disk
const (
	paxACLAccess   = "SCHILY.acl.access"
	paxACLDefault  = "SCHILY.acl.default"
	paxFFlags      = "SCHILY.fflags"
	paxXattrPrefix = "SCHILY.xattr."
)

// isTar checks if the header matches the magic bytes for tar files. Old v7
// archives without magic are detected by a valid header checksum, an archive
// without entries by its zero-filled end-of-archive block.
func isTar(header []byte) bool {
	if matchesMagicBytes(header, offsetTar, magicBytesTar) {
		return true
	}
	if len(header) >= blockSizeTar && bytes.Equal(header[:blockSizeTar], make([]byte, blockSizeTar)) {
		return true
	}
	return validTarChecksum(header)
}

// validTarChecksum checks the checksum field of the first tar header block.
// The checksum is the sum of all header bytes, with the checksum field itself
// counted as spaces.
func validTarChecksum(header []byte) bool {
	if len(header) < blockSizeTar {
		return false
	}
	field := strings.Trim(string(header[148:156]), " \x00")
	if len(field) == 0 {
		return false
	}
	want, err := strconv.ParseInt(field, 8, 64)
	if err != nil {
		return false
	}
	var got int64
	for i, b := range header[:blockSizeTar] {
		if i >= 148 && i < 156 {
			b = ' '
		}
		got += int64(b)
	}
	return got == want
}

// tarWalker is a walker for tar files
type tarWalker struct {
	tr *tar.Reader
}

// newTarWalker creates a walker that reads a tar stream from src
func newTarWalker(src io.Reader) *tarWalker {
	return &tarWalker{tr: tar.NewReader(src)}
}

// Format returns the name of the tar format
func (t *tarWalker) Format() string {
	return formatTar
}

// Next returns the next entry in the tar archive. Global pax headers are
// consumed without being reported.
func (t *tarWalker) Next() (*Entry, io.Reader, error) {
	for {
		hdr, err := t.tr.Next()
		if err != nil && !errors.Is(err, tar.ErrInsecurePath) {
			return nil, nil, err
		}
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}
		var warn error
		if err != nil {
			warn = warning(fmt.Errorf("%s: %w", hdr.Name, err))
		}
		return tarHeaderToEntry(hdr), t.tr, warn
	}
}

// Close is a no-op, the underlying stream is owned by the read cursor
func (t *tarWalker) Close() error {
	return nil
}

// tarHeaderToEntry converts a tar header into an Entry
func tarHeaderToEntry(hdr *tar.Header) *Entry {
	e := &Entry{
		Pathname:   hdr.Name,
		Size:       hdr.Size,
		Mode:       hdr.FileInfo().Mode() & permissionBits,
		ModTime:    hdr.ModTime,
		AccessTime: hdr.AccessTime,
		Uid:        hdr.Uid,
		Gid:        hdr.Gid,
		Devmajor:   hdr.Devmajor,
		Devminor:   hdr.Devminor,
	}

	switch hdr.Typeflag {
	case tar.TypeReg, tar.TypeCont, tar.TypeGNUSparse:
		e.Type = TypeRegular
	case tar.TypeDir:
		e.Type = TypeDir
	case tar.TypeSymlink:
		e.Type = TypeSymlink
		e.Linkname = hdr.Linkname
	case tar.TypeLink:
		e.Type = TypeHardlink
		e.Hardlink = hdr.Linkname
	case tar.TypeFifo:
		e.Type = TypeFifo
	case tar.TypeChar:
		e.Type = TypeChar
	case tar.TypeBlock:
		e.Type = TypeBlock
	default:
		e.Type = TypeUnknown
	}

	for k, v := range hdr.PAXRecords {
		switch {
		case k == paxACLAccess:
			e.ACLAccess = v
		case k == paxACLDefault:
			e.ACLDefault = v
		case k == paxFFlags:
			e.FFlags = v
		case strings.HasPrefix(k, paxXattrPrefix):
			if e.Xattrs == nil {
				e.Xattrs = make(map[string]string)
			}
			e.Xattrs[strings.TrimPrefix(k, paxXattrPrefix)] = v
		}
	}

	return e
}
