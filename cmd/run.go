// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/hashicorp/go-unbundle"
	"github.com/hashicorp/go-unbundle/modelstore"
	"github.com/pkg/errors"
)

// CLI are the cli parameters for the unbundle binary
type CLI struct {
	Verbose bool             `short:"v" optional:"" help:"Verbose logging."`
	Version kong.VersionFlag `short:"V" optional:"" help:"Print release version information."`

	Extract ExtractCmd `cmd:"" default:"withargs" help:"Extract an archive into a directory."`
	Fetch   FetchCmd   `cmd:"" help:"Download and extract a model bundle into a local store."`
}

// ExtractCmd are the parameters of the extract command
type ExtractCmd struct {
	Archive           string   `arg:"" name:"archive" help:"Path to archive." type:"existingfile"`
	Destination       string   `arg:"" name:"destination" default:"." help:"Output directory."`
	ContainPaths      bool     `short:"P" help:"Reject entries that resolve outside of the destination."`
	Filter            []string `short:"f" optional:"" default:"gzip" help:"Accepted decompression filters. (${filters})"`
	MaxEntries        int64    `optional:"" default:"-1" help:"Maximum entries that are extracted before stop. (disable check: -1)"`
	MaxExtractionSize int64    `optional:"" default:"-1" help:"Maximum extraction size that allowed is (in bytes). (disable check: -1)"`
	MaxInputSize      int64    `optional:"" default:"-1" help:"Maximum input size that allowed is (in bytes). (disable check: -1)"`
	NoStrip           bool     `short:"S" help:"Keep the first path component of every entry."`
	RestoreTime       bool     `short:"T" help:"Restore modification times."`
	Telemetry         bool     `short:"M" optional:"" help:"Print telemetry data to log after extraction."`
}

// FetchCmd are the parameters of the fetch command
type FetchCmd struct {
	URL  string `arg:"" name:"url" help:"URL of the tar.gz bundle."`
	Root string `arg:"" name:"root" default:"models" help:"Directory of the model store."`
}

// Run the entrypoint into go-unbundle as a cli tool
func Run(version, commit, date string) {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Description("Extract archives and model bundles"),
		kong.UsageOnError(),
		kong.Vars{
			"version": fmt.Sprintf("%s (%s), commit %s, built at %s", filepath.Base(os.Args[0]), version, commit, date),
			"filters": fmt.Sprint(unbundle.AllFilters()),
		},
	)

	// Check for verbose output
	logLevel := slog.LevelError
	if cli.Verbose {
		logLevel = slog.LevelDebug
	}

	// setup logger
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	if err := kctx.Run(logger); err != nil {
		logger.Error("command failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Config builds the extraction configuration from the command flags.
func (c *ExtractCmd) Config(logger *slog.Logger) (*unbundle.Config, error) {
	filters := make([]unbundle.Filter, 0, len(c.Filter))
	for _, name := range c.Filter {
		f, err := unbundle.ParseFilter(name)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid filter %q", name)
		}
		if f != unbundle.FilterNone {
			filters = append(filters, f)
		}
	}

	flags := unbundle.DefaultRestoreFlags
	if c.RestoreTime {
		flags |= unbundle.RestoreTime
	}

	// setup telemetry hook
	telemetryToLog := func(ctx context.Context, td *unbundle.TelemetryData) {
		if c.Telemetry {
			logger.Info("extraction finished", "telemetry", td)
		}
	}

	return unbundle.NewConfig(
		unbundle.WithFilters(filters...),
		unbundle.WithLogger(logger),
		unbundle.WithMaxEntries(c.MaxEntries),
		unbundle.WithMaxExtractionSize(c.MaxExtractionSize),
		unbundle.WithMaxInputSize(c.MaxInputSize),
		unbundle.WithPathContainment(c.ContainPaths),
		unbundle.WithRestoreFlags(flags),
		unbundle.WithStripFirstComponent(!c.NoStrip),
		unbundle.WithTelemetryHook(telemetryToLog),
	), nil
}

// Run extracts the archive.
func (c *ExtractCmd) Run(logger *slog.Logger) error {
	cfg, err := c.Config(logger)
	if err != nil {
		return err
	}
	if err := unbundle.ExtractFile(context.Background(), c.Archive, c.Destination, cfg); err != nil {
		return errors.Wrap(err, "extraction failed")
	}
	return nil
}

// Run ensures the bundle is available in the store and prints its path.
func (c *FetchCmd) Run(logger *slog.Logger) error {
	store := &modelstore.Store{Root: c.Root, Logger: logger}
	path, err := store.Ensure(context.Background(), c.URL)
	if err != nil {
		return errors.Wrapf(err, "cannot fetch %s", c.URL)
	}
	fmt.Println(path)
	return nil
}
