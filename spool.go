// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// spool gives random access to a decompressed stream. It is either backed by
// memory or by a temporary file, which is removed on Close.
type spool struct {
	io.ReaderAt
	size int64
	file *os.File
}

// Size returns the number of bytes in the spool.
func (s *spool) Size() int64 {
	return s.size
}

// Close removes the temporary file, if any.
func (s *spool) Close() error {
	if s.file == nil {
		return nil
	}
	name := s.file.Name()
	err := s.file.Close()
	s.file = nil
	if rmErr := os.Remove(name); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

// newSpool copies r into memory or into a temporary file, depending on
// inMemory.
func newSpool(r io.Reader, inMemory bool) (*spool, error) {

	// check if reader is a buffer
	if b, ok := r.(*bytes.Buffer); ok {
		return &spool{ReaderAt: bytes.NewReader(b.Bytes()), size: int64(b.Len())}, nil
	}

	if inMemory {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("cannot read all from reader: %w", err)
		}
		return &spool{ReaderAt: bytes.NewReader(b), size: int64(len(b))}, nil
	}

	// create temp file
	tmpFile, err := os.CreateTemp("", "unbundle-*")
	if err != nil {
		return nil, fmt.Errorf("cannot create spool file: %w", err)
	}
	s := &spool{ReaderAt: tmpFile, file: tmpFile}

	// copy reader to temp file
	n, err := io.Copy(tmpFile, r)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("cannot copy reader to spool file: %w", err)
	}
	s.size = n

	return s, nil
}
