// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// diskWriter is the write cursor of an extraction. It materializes entries on
// the local filesystem and restores their metadata according to the configured
// [RestoreFlags]. Directory metadata is applied when the writer is closed, so
// that restrictive directory permissions do not prevent writing their content.
type diskWriter struct {
	cfg   *Config
	root  string
	flags RestoreFlags
	td    *TelemetryData

	// current entry
	entry   *Entry
	file    *os.File
	written int64

	// total number of bytes written
	total int64

	fixups []dirFixup
}

// dirFixup is the deferred metadata of an extracted directory
type dirFixup struct {
	path  string
	entry Entry
}

// newDiskWriter creates a write cursor that places entries below root. Written
// entries are counted in td.
func newDiskWriter(root string, cfg *Config, td *TelemetryData) *diskWriter {
	return &diskWriter{
		cfg:   cfg,
		root:  root,
		flags: cfg.RestoreFlags(),
		td:    td,
	}
}

// WriteHeader creates the entry e on disk. The pathname of e is the resolved
// destination. Regular files stay open for [diskWriter.WriteBlock] until
// [diskWriter.FinishEntry] is called.
func (w *diskWriter) WriteHeader(e *Entry) error {
	if err := w.closeFile(); err != nil {
		return err
	}
	w.entry = nil
	w.written = 0

	path := e.Pathname
	if len(path) == 0 {
		return fmt.Errorf("empty path")
	}

	if w.cfg.ContainPaths() {
		if err := securityCheck(w.root, path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if e.Type == TypeHardlink {
			if err := securityCheck(w.root, e.Hardlink); err != nil {
				return fmt.Errorf("hardlink target %s: %w", e.Hardlink, err)
			}
		}
	}

	// create parent directories
	if err := os.MkdirAll(filepath.Dir(path), w.cfg.CustomCreateDirMode().Perm()); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	switch e.Type {
	case TypeDir:
		if err := w.createDir(path, e); err != nil {
			return err
		}
	case TypeRegular:
		if err := removeExisting(path); err != nil {
			return err
		}
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, e.Mode.Perm())
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		w.file = f
	case TypeSymlink:
		if err := removeExisting(path); err != nil {
			return err
		}
		if err := os.Symlink(e.Linkname, path); err != nil {
			return fmt.Errorf("failed to create symlink: %w", err)
		}
	case TypeHardlink:
		if err := removeExisting(path); err != nil {
			return err
		}
		if err := os.Link(e.Hardlink, path); err != nil {
			return fmt.Errorf("failed to create hardlink: %w", err)
		}
		// hardlinks may carry the data of the linked file
		if e.Size > 0 {
			f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
			if err != nil {
				return fmt.Errorf("failed to open hardlink: %w", err)
			}
			w.file = f
		}
	case TypeFifo, TypeChar, TypeBlock:
		if err := removeExisting(path); err != nil {
			return err
		}
		if err := mknod(path, e); err != nil {
			return fmt.Errorf("failed to create %s: %w", e.Type, err)
		}
	default:
		return fmt.Errorf("%s: %w", path, ErrUnsupportedEntry)
	}

	w.td.countEntry(e)
	entry := *e
	w.entry = &entry
	return nil
}

// createDir creates the directory of e, or reuses an existing one, and defers
// its metadata to Close.
func (w *diskWriter) createDir(path string, e *Entry) error {
	stat, err := os.Lstat(path)
	switch {
	case err == nil && stat.IsDir():
		// reuse existing directory
	case err == nil:
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to replace %s with a directory: %w", path, err)
		}
		fallthrough
	case errors.Is(err, fs.ErrNotExist):
		if err := os.Mkdir(path, w.cfg.CustomCreateDirMode().Perm()); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	default:
		return fmt.Errorf("invalid path: %w", err)
	}

	w.fixups = append(w.fixups, dirFixup{path: path, entry: *e})
	return nil
}

// WriteBlock writes p at offset off of the current entry.
func (w *diskWriter) WriteBlock(p []byte, off int64) error {
	if w.file == nil {
		return warning(fmt.Errorf("no data expected for entry"))
	}

	// data beyond the declared size is dropped
	if w.entry != nil && off+int64(len(p)) > w.entry.Size {
		if off >= w.entry.Size {
			return nil
		}
		p = p[:w.entry.Size-off]
	}

	if err := w.cfg.CheckExtractionSize(w.total + int64(len(p))); err != nil {
		return err
	}

	n, err := w.file.WriteAt(p, off)
	w.total += int64(n)
	w.td.ExtractionSize += int64(n)
	if end := off + int64(n); end > w.written {
		w.written = end
	}
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// FinishEntry completes the current entry. Files are padded to their declared
// size and closed, the metadata of non-directory entries is restored.
func (w *diskWriter) FinishEntry() error {
	if w.entry == nil {
		return nil
	}
	e := w.entry
	w.entry = nil

	if w.file != nil {
		if w.written < e.Size {
			if err := w.file.Truncate(e.Size); err != nil {
				w.closeFile()
				return fmt.Errorf("failed to pad file: %w", err)
			}
		}
		if err := w.closeFile(); err != nil {
			return err
		}
	}

	if e.Type == TypeDir {
		return nil
	}
	return warning(w.restore(e.Pathname, e))
}

// Close restores the deferred directory metadata, deepest path first.
func (w *diskWriter) Close() error {
	var result error
	if err := w.closeFile(); err != nil {
		result = multierror.Append(result, err)
	}
	w.entry = nil

	sort.Slice(w.fixups, func(i, j int) bool {
		return w.fixups[i].path > w.fixups[j].path
	})
	for _, fx := range w.fixups {
		if err := w.restore(fx.path, &fx.entry); err != nil {
			result = multierror.Append(result, err)
		}
	}
	w.fixups = nil

	return result
}

// closeFile closes the open file of the current entry
func (w *diskWriter) closeFile() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	if err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

// restore applies the metadata of e to path. Every failing attribute is
// collected, the remaining ones are still applied.
func (w *diskWriter) restore(path string, e *Entry) error {
	var result error
	symlink := e.Type == TypeSymlink

	if w.flags.Has(RestorePerm) && !symlink {
		if err := os.Chmod(path, e.Mode&permissionBits); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to restore permissions: %w", err))
		}
	}

	if w.flags.Has(RestoreACL) && !symlink {
		if err := restoreACL(path, e); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to restore acl: %w", err))
		}
	}

	if w.flags.Has(RestoreTime) && !e.ModTime.IsZero() {
		if err := restoreTimes(path, e); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to restore times: %w", err))
		}
	}

	// flags last, immutable files reject all other changes
	if w.flags.Has(RestoreFFlags) && len(e.FFlags) > 0 && (e.Type == TypeRegular || e.Type == TypeDir) {
		if err := restoreFFlags(path, e.FFlags); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to restore file flags: %w", err))
		}
	}

	if result != nil {
		return fmt.Errorf("%s: %w", path, result)
	}
	return nil
}

// restoreTimes sets the access and modification time of path. A missing access
// time is replaced by the modification time.
func restoreTimes(path string, e *Entry) error {
	atime := e.AccessTime
	if atime.IsZero() {
		atime = e.ModTime
	}
	if e.Type == TypeSymlink {
		if canMaintainSymlinkTimestamps {
			return lchtimes(path, atime, e.ModTime)
		}
		return nil
	}
	return os.Chtimes(path, atime, e.ModTime)
}

// removeExisting removes a non-directory or empty directory at path, so that
// it can be replaced by a new entry.
func removeExisting(path string) error {
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("invalid path: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to replace existing %s: %w", path, err)
	}
	return nil
}

// securityCheck checks that path stays below root and does not traverse a
// symlink. The last path element is allowed to be a symlink, because it is
// replaced by the entry.
func securityCheck(root string, path string) error {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return fmt.Errorf("failed to get relative path: %w", err)
	}
	if !filepath.IsLocal(rel) {
		return ErrPathTraversal
	}

	// check each dir in path
	elements := strings.Split(rel, string(os.PathSeparator))
	for i := 0; i < len(elements)-1; i++ {
		checkDir := filepath.Join(root, filepath.Join(elements[:i+1]...))
		stat, err := os.Lstat(checkDir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("invalid path: %w", err)
		}
		if stat.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("symlink in path: %w", ErrPathTraversal)
		}
	}

	return nil
}
