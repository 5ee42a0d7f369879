// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"strings"
)

// formatZip is the name of the zip format
const formatZip = "zip"

// magicBytesZip contains the magic bytes for a zip archive, including an
// archive without entries (end of central directory only).
// reference: https://golang.org/pkg/archive/zip/
var magicBytesZip = [][]byte{
	{0x50, 0x4B, 0x03, 0x04},
	{0x50, 0x4B, 0x05, 0x06},
}

// maxZipLinkLength is the maximum length of a symlink target stored as zip data
const maxZipLinkLength = 4096

// isZip checks if the header matches the magic bytes for zip archives.
func isZip(header []byte) bool {
	return matchesMagicBytes(header, 0, magicBytesZip)
}

// zipWalker is a walker for zip files
type zipWalker struct {
	zr   *zip.Reader
	fp   int
	rc   io.ReadCloser
	warn error
}

// newZipWalker opens a zip archive from ra. Insecure names are reported as a
// warning with the first entry.
func newZipWalker(ra io.ReaderAt, size int64) (*zipWalker, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("cannot read zip archive: %w", err)
	}
	return &zipWalker{zr: zr, warn: warning(err)}, nil
}

// Format returns the name of the zip format
func (z *zipWalker) Format() string {
	return formatZip
}

// Next returns the next entry in the zip archive
func (z *zipWalker) Next() (*Entry, io.Reader, error) {
	if err := z.closeCurrent(); err != nil {
		return nil, nil, err
	}
	if z.fp >= len(z.zr.File) {
		return nil, nil, io.EOF
	}
	zf := z.zr.File[z.fp]
	z.fp++

	warn := z.warn
	z.warn = nil

	mode := zf.Mode()
	e := &Entry{
		Pathname: zf.Name,
		Type:     entryTypeFromMode(mode),
		Mode:     mode & permissionBits,
		Size:     int64(zf.UncompressedSize64),
		ModTime:  zf.Modified,
	}
	if strings.HasSuffix(zf.Name, "/") {
		e.Type = TypeDir
	}
	if e.Type == TypeDir {
		e.Size = 0
		return e, eofReader{}, warn
	}

	rc, err := zf.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open %s: %w", zf.Name, err)
	}

	// symlink targets are stored as the entry data
	if e.Type == TypeSymlink {
		defer rc.Close()
		target, err := io.ReadAll(io.LimitReader(rc, maxZipLinkLength))
		if err != nil {
			return nil, nil, fmt.Errorf("cannot read link target of %s: %w", zf.Name, err)
		}
		e.Linkname = string(target)
		e.Size = 0
		return e, eofReader{}, warn
	}

	z.rc = rc
	return e, rc, warn
}

// closeCurrent closes the data reader of the previous entry
func (z *zipWalker) closeCurrent() error {
	if z.rc == nil {
		return nil
	}
	err := z.rc.Close()
	z.rc = nil
	if err != nil {
		return fmt.Errorf("cannot close zip entry: %w", err)
	}
	return nil
}

// Close closes the data reader of the current entry
func (z *zipWalker) Close() error {
	return z.closeCurrent()
}

// eofReader is a reader without data
type eofReader struct{}

// Read always returns io.EOF
func (eofReader) Read([]byte) (int, error) {
	return 0, io.EOF
}
