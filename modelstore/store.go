// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package modelstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"

	"github.com/hashicorp/go-unbundle"
)

const (
	archiveName     = "downloaded.tar.gz"
	downloadedMark  = "downloaded.ok"
	extractedMark   = "extracted.ok"
	defaultRootMode = 0755
)

// nonWord matches every character that is not kept in a bundle directory name
var nonWord = regexp.MustCompile(`[^A-Za-z0-9_]`)

// Store manages bundles below Root.
type Store struct {
	// Root is the directory that holds one sub directory per bundle.
	Root string

	// Fetcher downloads the archives. Defaults to an [HTTPFetcher].
	Fetcher Fetcher

	// Config is used for the extraction. Defaults to a configuration that
	// strips the first path component and logs to Logger.
	Config *unbundle.Config

	// Logger receives progress messages. Defaults to a discarding logger.
	Logger *slog.Logger
}

// Path returns the directory of the bundle downloaded from url.
func (s *Store) Path(url string) string {
	return filepath.Join(s.Root, nonWord.ReplaceAllString(url, "_"))
}

// Ensure makes the bundle of url available and returns its directory. A
// bundle that was extracted before is returned without any network access.
func (s *Store) Ensure(ctx context.Context, url string) (string, error) {
	log := s.logger()
	path := s.Path(url)

	if isFile(filepath.Join(path, extractedMark)) {
		log.Debug("bundle cached", "url", url, "path", path)
		return path, nil
	}

	if err := os.MkdirAll(path, defaultRootMode); err != nil {
		return "", fmt.Errorf("cannot create bundle directory: %w", err)
	}

	archive := filepath.Join(path, archiveName)
	if !isFile(filepath.Join(path, downloadedMark)) {
		log.Info("downloading bundle", "url", url, "path", path)
		if err := s.download(ctx, url, archive); err != nil {
			return "", err
		}
		if err := touch(filepath.Join(path, downloadedMark)); err != nil {
			return "", err
		}
	}

	log.Info("extracting bundle", "archive", archive, "path", path)
	if err := unbundle.ExtractFile(ctx, archive, path, s.config(log)); err != nil {
		return "", fmt.Errorf("cannot extract bundle %s: %w", url, err)
	}

	for _, name := range []string{archiveName, downloadedMark} {
		if err := os.Remove(filepath.Join(path, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("cannot clean up bundle: %w", err)
		}
	}
	if err := touch(filepath.Join(path, extractedMark)); err != nil {
		return "", err
	}

	return path, nil
}

// download fetches url into the file archive. A partial archive is removed.
func (s *Store) download(ctx context.Context, url string, archive string) error {
	f, err := os.Create(archive)
	if err != nil {
		return fmt.Errorf("cannot create archive: %w", err)
	}

	err = s.fetcher().Fetch(ctx, url, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(archive)
		return fmt.Errorf("cannot download %s: %w", url, err)
	}
	return nil
}

func (s *Store) fetcher() Fetcher {
	if s.Fetcher == nil {
		return &HTTPFetcher{}
	}
	return s.Fetcher
}

func (s *Store) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s.Logger
}

func (s *Store) config(log *slog.Logger) *unbundle.Config {
	if s.Config != nil {
		return s.Config
	}
	return unbundle.NewConfig(
		unbundle.WithStripFirstComponent(true),
		unbundle.WithLogger(log),
	)
}

// isFile reports whether path is a regular file
func isFile(path string) bool {
	stat, err := os.Stat(path)
	return err == nil && stat.Mode().IsRegular()
}

// touch creates the empty marker file path
func touch(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create marker: %w", err)
	}
	return f.Close()
}
