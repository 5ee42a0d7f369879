// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// now is a function point that returns time.Now to the caller.
var now = time.Now

// Extract unpacks the archive at archivePath into outputPath and reports the
// outcome to cb.
//
// The destination is prepared first: a missing outputPath is created, an
// existing non-directory is reported as [ErrDirectoryConflict]. Errors of this
// step are returned and cb is not called. Otherwise Extract returns nil and
// exactly one of cb.OnSuccess or cb.OnError is called, after the archive and
// the output were released. A fatal error leaves the entries extracted so far
// on disk.
//
// A nil cfg is replaced by [NewConfig]. ctx is only handed to the
// [TelemetryHook], the extraction is not cancelable.
func Extract(ctx context.Context, archivePath string, outputPath string, cb Callback, cfg *Config) error {
	if cfg == nil {
		cfg = NewConfig()
	}
	if cb == nil {
		cb = CallbackFuncs{}
	}

	// check destination before anything is read
	if err := ensureDirectory(outputPath, cfg.CustomCreateDirMode()); err != nil {
		cfg.Logger().Error("cannot prepare destination", "destination", outputPath, "error", err)
		return err
	}

	// collect telemetry data, submitted after the outcome was reported
	td := &TelemetryData{Filter: FilterNone}
	start := now()
	defer func() {
		td.ExtractionDuration = now().Sub(start)
		cfg.TelemetryHook()(ctx, td)
	}()

	cfg.Logger().Info("extracting archive", "archive", archivePath, "destination", outputPath)

	if err := runPipeline(archivePath, outputPath, cfg, td); err != nil {
		td.ExtractionErrors++
		td.LastExtractionError = err
		cfg.Logger().Error("extraction failed", "archive", archivePath, "error", err)
		cb.OnError(err.Error())
		return nil
	}

	cfg.Logger().Info("extraction finished", "archive", archivePath, "warnings", td.ExtractionWarnings)
	cb.OnSuccess()
	return nil
}

// ExtractFile unpacks the archive at archivePath into outputPath and returns
// the outcome as error. Warnings are not reported.
func ExtractFile(ctx context.Context, archivePath string, outputPath string, cfg *Config) error {
	out := NewOutcomeChan()
	if err := Extract(ctx, archivePath, outputPath, out, cfg); err != nil {
		return err
	}
	return (<-out.C()).Err()
}

// runPipeline drives the read and the write cursor until the archive is
// exhausted or a fatal error occurs. Both cursors are closed before it returns.
// Panics are recovered and returned as error.
func runPipeline(archivePath string, outputPath string, cfg *Config, td *TelemetryData) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()

	// read cursor
	ar, err := openArchiveReader(archivePath, cfg)
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", archivePath, err)
	}
	td.Filter = ar.Filter()
	td.Format = ar.Format()
	defer func() {
		if cerr := ar.Close(); cerr != nil {
			handleWarning(cfg, td, "cannot close archive", cerr)
		}
		td.InputSize = ar.InputSize()
	}()

	// write cursor
	dw := newDiskWriter(outputPath, cfg, td)
	defer func() {
		if cerr := dw.Close(); cerr != nil {
			handleWarning(cfg, td, "cannot finish output", cerr)
		}
	}()

	for {
		entry, err := ar.Next()
		if err == io.EOF {
			return nil
		}
		switch Classify(err) {
		case SeverityFatal:
			return err
		case SeverityWarning:
			handleWarning(cfg, td, "cannot read entry header", err)
		}

		name := entry.Pathname
		entry.Pathname = resolveEntryPath(outputPath, name, cfg.StripFirstComponent())
		if entry.Type == TypeHardlink {
			entry.Hardlink = resolveEntryPath(outputPath, entry.Hardlink, cfg.StripFirstComponent())
		}
		cfg.Logger().Debug("extract entry", "name", name, "type", entry.Type, "path", entry.Pathname)

		// a rejected header skips the data of the entry
		if err := dw.WriteHeader(entry); err != nil {
			handleWarning(cfg, td, "cannot create entry", fmt.Errorf("%s: %w", name, err))
		} else if entry.Size > 0 {
			if err := copyData(ar, dw, cfg, td); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}

		if err := dw.FinishEntry(); err != nil {
			if Classify(err) == SeverityFatal {
				return fmt.Errorf("%s: %w", name, err)
			}
			handleWarning(cfg, td, "cannot finish entry", err)
		}
	}
}

// copyData streams the data of the current entry from ar to dw. Read errors
// are fatal, write warnings are logged and the copy continues.
func copyData(ar *archiveReader, dw *diskWriter, cfg *Config, td *TelemetryData) error {
	for {
		block, off, err := ar.ReadBlock()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		if err := dw.WriteBlock(block, off); err != nil {
			if Classify(err) == SeverityFatal {
				return err
			}
			handleWarning(cfg, td, "cannot write data", err)
		}
	}
}

// handleWarning logs err and counts it as warning.
func handleWarning(cfg *Config, td *TelemetryData, msg string, err error) {
	var w *Warning
	if errors.As(err, &w) {
		err = w.Err
	}
	td.ExtractionWarnings++
	td.LastWarning = fmt.Errorf("%s: %w", msg, err)
	cfg.Logger().Warn(msg, "error", err)
}
