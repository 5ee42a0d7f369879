// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unbundle

import "errors"

var (
	// ErrDirectoryConflict is returned by [Extract] if the destination exists
	// but is not a directory.
	ErrDirectoryConflict = errors.New("destination exists but is not a directory")

	// ErrUnsupportedFormat is reported if the archive format cannot be detected.
	ErrUnsupportedFormat = errors.New("unrecognized archive format")

	// ErrUnsupportedEntry is reported for entries that cannot be created on disk.
	ErrUnsupportedEntry = errors.New("unsupported entry type")

	// ErrPathTraversal is reported for entries that leave the destination directory
	// while path containment is enabled.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrMaxEntriesExceeded is reported if the archive has more entries than allowed.
	ErrMaxEntriesExceeded = errors.New("maximum number of entries exceeded")

	// ErrMaxExtractionSizeExceeded is reported if more bytes are written than allowed.
	ErrMaxExtractionSizeExceeded = errors.New("maximum extraction size exceeded")

	// ErrMaxInputSizeExceeded is reported if more bytes are read from the archive
	// file than allowed.
	ErrMaxInputSizeExceeded = errors.New("maximum input size exceeded")
)

// Warning wraps a problem that did not stop the extraction.
type Warning struct {
	Err error
}

// Error returns the message of the wrapped error.
func (w *Warning) Error() string {
	return w.Err.Error()
}

// Unwrap returns the wrapped error.
func (w *Warning) Unwrap() error {
	return w.Err
}

// warning wraps err into a [Warning]. A nil err stays nil.
func warning(err error) error {
	if err == nil {
		return nil
	}
	var w *Warning
	if errors.As(err, &w) {
		return err
	}
	return &Warning{Err: err}
}
