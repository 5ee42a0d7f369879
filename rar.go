// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"fmt"
	"io"

	"github.com/nwaples/rardecode"
)

// formatRar is the name of the rar format
const formatRar = "rar"

// magicBytesRar are the magic bytes for Rar files.
var magicBytesRar = [][]byte{
	{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x00},       // Rar 1.5
	{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x01, 0x00}, // Rar 5.0
}

// isRar checks if the header matches the magic bytes for Rar files.
func isRar(header []byte) bool {
	return matchesMagicBytes(header, 0, magicBytesRar)
}

// rarWalker is an archiveWalker for Rar files. Rar archives are read as a stream.
type rarWalker struct {
	r *rardecode.Reader
}

// newRarWalker creates a walker that reads a rar stream from src
func newRarWalker(src io.Reader) (*rarWalker, error) {
	r, err := rardecode.NewReader(src, "")
	if err != nil {
		return nil, fmt.Errorf("cannot create rar decoder: %w", err)
	}
	return &rarWalker{r: r}, nil
}

// Format returns the name of the rar format
func (rw *rarWalker) Format() string {
	return formatRar
}

// Next returns the next entry in the rar file.
func (rw *rarWalker) Next() (*Entry, io.Reader, error) {
	fh, err := rw.r.Next()
	if err != nil {
		return nil, nil, err
	}
	mode := fh.Mode()
	e := &Entry{
		Pathname:   fh.Name,
		Type:       entryTypeFromMode(mode),
		Mode:       mode & permissionBits,
		Size:       fh.UnPackedSize,
		ModTime:    fh.ModificationTime,
		AccessTime: fh.AccessTime,
	}
	if fh.IsDir {
		e.Type = TypeDir
		e.Size = 0
	}
	// the decoder does not expose link targets
	if e.Type == TypeSymlink {
		e.Type = TypeUnknown
	}
	return e, rw.r, nil
}

// Close is a no-op, the underlying stream is owned by the read cursor
func (rw *rarWalker) Close() error {
	return nil
}
