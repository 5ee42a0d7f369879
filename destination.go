// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ensureDirectory makes sure path is a directory. A missing directory is
// created recursively with mode, an existing non-directory is a
// [ErrDirectoryConflict].
func ensureDirectory(path string, mode fs.FileMode) error {
	stat, err := os.Stat(path)
	if err == nil {
		if !stat.IsDir() {
			return fmt.Errorf("%s exists but is not a directory: %w", path, ErrDirectoryConflict)
		}
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot check destination: %w", err)
	}

	if err := os.MkdirAll(path, mode); err != nil {
		return fmt.Errorf("cannot create destination: %w", err)
	}
	return nil
}
