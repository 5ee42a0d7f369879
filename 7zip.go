// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"fmt"
	"io"

	"github.com/bodgit/sevenzip"
)

// format7zip is the name of the 7zip format
const format7zip = "7z"

// magicBytes7zip are the magic bytes for 7zip files
var magicBytes7zip = [][]byte{
	{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C},
}

// is7zip checks if the header matches the magic bytes for 7zip files
func is7zip(header []byte) bool {
	return matchesMagicBytes(header, 0, magicBytes7zip)
}

// sevenZipWalker is a walker for 7zip files
type sevenZipWalker struct {
	r  *sevenzip.Reader
	fp int
	rc io.ReadCloser
}

// newSevenZipWalker opens a 7zip archive from ra
func newSevenZipWalker(ra io.ReaderAt, size int64) (*sevenZipWalker, error) {
	r, err := sevenzip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("cannot read 7zip archive: %w", err)
	}
	return &sevenZipWalker{r: r}, nil
}

// Format returns the name of the 7zip format
func (z *sevenZipWalker) Format() string {
	return format7zip
}

// Next returns the next entry in the 7zip file
func (z *sevenZipWalker) Next() (*Entry, io.Reader, error) {
	if err := z.closeCurrent(); err != nil {
		return nil, nil, err
	}
	if z.fp >= len(z.r.File) {
		return nil, nil, io.EOF
	}
	f := z.r.File[z.fp]
	z.fp++

	fi := f.FileInfo()
	e := &Entry{
		Pathname:   f.Name,
		Type:       entryTypeFromMode(fi.Mode()),
		Mode:       fi.Mode() & permissionBits,
		Size:       fi.Size(),
		ModTime:    f.Modified,
		AccessTime: f.Accessed,
	}
	if e.Type == TypeDir {
		e.Size = 0
		return e, eofReader{}, nil
	}

	rc, err := f.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open %s: %w", f.Name, err)
	}

	if e.Type == TypeSymlink {
		defer rc.Close()
		target, err := io.ReadAll(io.LimitReader(rc, maxZipLinkLength))
		if err != nil {
			return nil, nil, fmt.Errorf("cannot read link target of %s: %w", f.Name, err)
		}
		e.Linkname = string(target)
		e.Size = 0
		return e, eofReader{}, nil
	}

	z.rc = rc
	return e, rc, nil
}

// closeCurrent closes the data reader of the previous entry
func (z *sevenZipWalker) closeCurrent() error {
	if z.rc == nil {
		return nil
	}
	err := z.rc.Close()
	z.rc = nil
	if err != nil {
		return fmt.Errorf("cannot close 7zip entry: %w", err)
	}
	return nil
}

// Close closes the data reader of the current entry
func (z *sevenZipWalker) Close() error {
	return z.closeCurrent()
}
