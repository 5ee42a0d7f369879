// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
)

// logger is the logging interface used by the extraction pipeline. It is
// satisfied by *slog.Logger.
type logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ConfigOption is a function pointer to implement the option pattern
type ConfigOption func(*Config)

// Config holds all configuration options for an extraction. It is created with
// [NewConfig] and adjusted using the option pattern style. A Config must not be
// modified while an extraction is running.
type Config struct {
	// blockSize is the size of the data blocks streamed from the archive to disk
	blockSize int

	// cacheInMemory spools random-access formats (zip, 7z) to memory instead of
	// a temporary file, if the archive is compressed
	cacheInMemory bool

	// containPaths rejects entries that would be written outside of the destination
	containPaths bool

	// customCreateDirMode is the file mode for created directories, that are not
	// defined in the archive (respecting umask)
	customCreateDirMode fs.FileMode

	// filters are the decompression filters that are detected on the input
	filters []Filter

	// logger stream for extraction
	logger logger

	// maxEntries is the maximum number of entries read from the archive.
	// Set value to -1 to disable the check.
	maxEntries int64

	// maxExtractionSize is the maximum number of bytes written to disk.
	// Set value to -1 to disable the check.
	maxExtractionSize int64

	// maxInputSize is the maximum number of bytes read from the archive file.
	// Set value to -1 to disable the check.
	maxInputSize int64

	// restoreFlags selects the entry attributes that are restored on disk
	restoreFlags RestoreFlags

	// stripFirstComponent drops the first path component of every entry
	stripFirstComponent bool

	// telemetryHook is a function to consume telemetry data after finished extraction
	telemetryHook TelemetryHook
}

// BlockSize returns the size of the blocks that are streamed from the archive to disk.
func (c *Config) BlockSize() int {
	return c.blockSize
}

// CacheInMemory returns true if random-access formats read from a compressed
// stream are cached in memory instead of a temporary file.
func (c *Config) CacheInMemory() bool {
	return c.cacheInMemory
}

// ContainPaths returns true if entries resolving outside of the destination,
// or through a symlink, are rejected.
func (c *Config) ContainPaths() bool {
	return c.containPaths
}

// CustomCreateDirMode returns the file mode for created directories,
// that are not defined in the archive. (respecting umask)
func (c *Config) CustomCreateDirMode() fs.FileMode {
	return c.customCreateDirMode
}

// Filters returns the enabled decompression filters. An uncompressed input
// is always accepted.
func (c *Config) Filters() []Filter {
	return c.filters
}

// Logger returns the logger.
func (c *Config) Logger() logger {
	return c.logger
}

// MaxEntries returns the maximum number of entries read from an archive.
func (c *Config) MaxEntries() int64 {
	return c.maxEntries
}

// MaxExtractionSize returns the maximum number of bytes written to disk.
func (c *Config) MaxExtractionSize() int64 {
	return c.maxExtractionSize
}

// MaxInputSize returns the maximum number of bytes read from the archive file.
func (c *Config) MaxInputSize() int64 {
	return c.maxInputSize
}

// RestoreFlags returns the attributes that are restored from the archive.
func (c *Config) RestoreFlags() RestoreFlags {
	return c.restoreFlags
}

// StripFirstComponent returns true if the first path component of every
// entry is dropped.
func (c *Config) StripFirstComponent() bool {
	return c.stripFirstComponent
}

// TelemetryHook returns the telemetry hook.
func (c *Config) TelemetryHook() TelemetryHook {
	if c.telemetryHook == nil {
		return defaultTelemetryHook
	}
	return c.telemetryHook
}

// CheckMaxEntries checks if counter exceeds the configured maximum. If the maximum
// is exceeded, a [ErrMaxEntriesExceeded] error is returned.
func (c *Config) CheckMaxEntries(counter int64) error {
	if c.maxEntries == -1 {
		return nil
	}
	if counter > c.maxEntries {
		return ErrMaxEntriesExceeded
	}
	return nil
}

// CheckExtractionSize checks if size exceeds the configured maximum. If the maximum
// is exceeded, a [ErrMaxExtractionSizeExceeded] error is returned.
func (c *Config) CheckExtractionSize(size int64) error {
	if c.maxExtractionSize == -1 {
		return nil
	}
	if size > c.maxExtractionSize {
		return ErrMaxExtractionSizeExceeded
	}
	return nil
}

const (
	defaultBlockSize           = 10240 // 10 KiB read blocks
	defaultCacheInMemory       = false // spool to disk
	defaultContainPaths        = false // entries are placed where they point to
	defaultCustomCreateDirMode = 0755  // rwxr-xr-x
	defaultMaxEntries          = -1    // no limit
	defaultMaxExtractionSize   = -1    // no limit
	defaultMaxInputSize        = -1    // no limit
	defaultStripFirstComponent = true  // unwrap the bundle directory
)

var (
	// slog to discard
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	// no operation telemetry hook
	defaultTelemetryHook = func(ctx context.Context, d *TelemetryData) {
		// noop
	}

	// gzip is the only filter of a plain configuration
	defaultFilters = []Filter{FilterGzip}
)

// NewConfig is a generator option that takes opts as adjustments of the
// default configuration in an option pattern style.
func NewConfig(opts ...ConfigOption) *Config {
	config := &Config{
		blockSize:           defaultBlockSize,
		cacheInMemory:       defaultCacheInMemory,
		containPaths:        defaultContainPaths,
		customCreateDirMode: defaultCustomCreateDirMode,
		filters:             defaultFilters,
		logger:              defaultLogger,
		maxEntries:          defaultMaxEntries,
		maxExtractionSize:   defaultMaxExtractionSize,
		maxInputSize:        defaultMaxInputSize,
		restoreFlags:        DefaultRestoreFlags,
		stripFirstComponent: defaultStripFirstComponent,
		telemetryHook:       defaultTelemetryHook,
	}

	for _, opt := range opts {
		opt(config)
	}

	return config
}

// WithBlockSize options pattern function to set the size of the data blocks
// streamed from the archive to disk. Values < 1 are ignored.
func WithBlockSize(size int) ConfigOption {
	return func(c *Config) {
		if size > 0 {
			c.blockSize = size
		}
	}
}

// WithCacheInMemory options pattern function to enable/disable caching in memory.
// This applies only to zip and 7z archives that are wrapped in a compression filter.
//
// If set to false, the cache is stored on disk to avoid memory exhaustion.
func WithCacheInMemory(cache bool) ConfigOption {
	return func(c *Config) {
		c.cacheInMemory = cache
	}
}

// WithCustomCreateDirMode options pattern function to set the file mode
// for created directories, that are not defined in the archive. (respecting umask)
func WithCustomCreateDirMode(mode fs.FileMode) ConfigOption {
	return func(c *Config) {
		c.customCreateDirMode = mode
	}
}

// WithFilters options pattern function to set the decompression filters that are
// detected on the input. An uncompressed input is always accepted.
func WithFilters(filters ...Filter) ConfigOption {
	return func(c *Config) {
		c.filters = append([]Filter{}, filters...)
	}
}

// WithLogger options pattern function to set a custom logger.
func WithLogger(logger logger) ConfigOption {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithMaxEntries options pattern function to set the maximum number of entries
// read from the archive. (-1 to disable check)
func WithMaxEntries(maxEntries int64) ConfigOption {
	return func(c *Config) {
		c.maxEntries = maxEntries
	}
}

// WithMaxExtractionSize options pattern function to set the maximum number of bytes
// written to disk. (-1 to disable check)
func WithMaxExtractionSize(maxExtractionSize int64) ConfigOption {
	return func(c *Config) {
		c.maxExtractionSize = maxExtractionSize
	}
}

// WithMaxInputSize options pattern function to set the maximum number of bytes read
// from the archive file. (-1 to disable check)
func WithMaxInputSize(maxInputSize int64) ConfigOption {
	return func(c *Config) {
		c.maxInputSize = maxInputSize
	}
}

// WithPathContainment options pattern function to reject entries that resolve
// outside of the destination directory or through a symlink.
func WithPathContainment(contain bool) ConfigOption {
	return func(c *Config) {
		c.containPaths = contain
	}
}

// WithRestoreFlags options pattern function to set the attributes that are
// restored from the archive metadata.
func WithRestoreFlags(flags RestoreFlags) ConfigOption {
	return func(c *Config) {
		c.restoreFlags = flags
	}
}

// WithStripFirstComponent options pattern function to enable/disable dropping the
// first path component of every entry.
func WithStripFirstComponent(strip bool) ConfigOption {
	return func(c *Config) {
		c.stripFirstComponent = strip
	}
}

// WithTelemetryHook options pattern function to set a [TelemetryHook], which is
// called after the extraction outcome has been reported.
func WithTelemetryHook(hook TelemetryHook) ConfigOption {
	return func(c *Config) {
		c.telemetryHook = hook
	}
}
