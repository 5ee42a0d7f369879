// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
)

const (
	// formatEmpty is reported for an input without any data
	formatEmpty = "empty"

	// filterHeaderSize is the number of bytes inspected to detect a filter
	filterHeaderSize = 16
)

// archiveReader is the read cursor of an extraction. It owns the archive file,
// the decompression filter, the optional spool of random-access formats and
// the format walker.
type archiveReader struct {
	cfg    *Config
	file   *os.File
	input  *limitErrorReader
	stream io.Reader
	spool  *spool
	walker archiveWalker
	filter Filter
	format string

	// inputSize overrides the counted input for formats read by offset
	inputSize int64

	entries int64
	data    io.Reader
	offset  int64
	buf     []byte
}

// openArchiveReader opens the archive at path and detects its filter and
// format. The returned reader is positioned before the first entry.
func openArchiveReader(path string, cfg *Config) (*archiveReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open archive: %w", err)
	}

	r := &archiveReader{
		cfg:       cfg,
		file:      f,
		input:     newLimitErrorReader(f, cfg.MaxInputSize()),
		filter:    FilterNone,
		inputSize: -1,
		buf:       make([]byte, cfg.BlockSize()),
	}
	if err := r.open(); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

// open detects the filter and the format of the input.
func (r *archiveReader) open() error {
	head, err := newPeekReader(r.input, filterHeaderSize)
	if err != nil {
		return err
	}

	// decompression filter
	r.filter = detectFilter(head.Peek(), r.cfg.Filters())
	var stream io.Reader = head
	if r.filter != FilterNone {
		stream, err = availableFilters[r.filter].Open(head)
		if err != nil {
			return fmt.Errorf("cannot open %s filter: %w", r.filter, err)
		}
	}
	r.stream = stream

	// archive format
	body, err := newPeekReader(stream, blockSizeTar)
	if err != nil {
		return err
	}
	header := body.Peek()

	switch {
	case len(header) == 0:
		r.walker = emptyWalker{}
	case isZip(header):
		ra, size, err := r.randomAccess(body)
		if err != nil {
			return err
		}
		zw, err := newZipWalker(ra, size)
		if err != nil {
			return err
		}
		r.walker = zw
	case is7zip(header):
		ra, size, err := r.randomAccess(body)
		if err != nil {
			return err
		}
		sw, err := newSevenZipWalker(ra, size)
		if err != nil {
			return err
		}
		r.walker = sw
	case isRar(header):
		rw, err := newRarWalker(body)
		if err != nil {
			return err
		}
		r.walker = rw
	case isTar(header):
		r.walker = newTarWalker(body)
	default:
		return ErrUnsupportedFormat
	}

	r.format = r.walker.Format()
	r.cfg.Logger().Debug("archive opened", "filter", r.filter, "format", r.format)
	return nil
}

// randomAccess returns offset based access to the archive. An unfiltered
// archive is read from the file directly, otherwise the decompressed stream
// is spooled.
func (r *archiveReader) randomAccess(stream io.Reader) (io.ReaderAt, int64, error) {
	if r.filter == FilterNone {
		stat, err := r.file.Stat()
		if err != nil {
			return nil, 0, fmt.Errorf("cannot stat archive: %w", err)
		}
		size := stat.Size()
		if r.cfg.MaxInputSize() != -1 && size > r.cfg.MaxInputSize() {
			return nil, 0, ErrMaxInputSizeExceeded
		}
		r.inputSize = size
		return r.file, size, nil
	}

	s, err := newSpool(stream, r.cfg.CacheInMemory())
	if err != nil {
		return nil, 0, err
	}
	r.spool = s
	return s, s.Size(), nil
}

// Filter returns the detected decompression filter.
func (r *archiveReader) Filter() Filter {
	return r.filter
}

// Format returns the detected archive format.
func (r *archiveReader) Format() string {
	return r.format
}

// InputSize returns the number of bytes consumed from the archive file.
func (r *archiveReader) InputSize() int64 {
	if r.inputSize >= 0 {
		return r.inputSize
	}
	return r.input.ReadBytes()
}

// Next advances to the next entry. At the end of the archive io.EOF is
// returned. A [*Warning] may be returned together with a valid entry.
func (r *archiveReader) Next() (*Entry, error) {
	r.data = nil
	r.offset = 0

	e, data, err := r.walker.Next()
	if err == io.EOF {
		return nil, io.EOF
	}
	if e == nil {
		if err == nil {
			err = fmt.Errorf("no entry returned")
		}
		return nil, fmt.Errorf("cannot read next entry: %w", err)
	}

	r.entries++
	if err := r.cfg.CheckMaxEntries(r.entries); err != nil {
		return nil, err
	}

	r.data = data
	return e, err
}

// ReadBlock returns the next block of the current entry data and its offset
// within the entry. The block is only valid until the next call. At the end
// of the entry data io.EOF is returned.
func (r *archiveReader) ReadBlock() ([]byte, int64, error) {
	if r.data == nil {
		return nil, 0, io.EOF
	}

	var n int
	var rerr error
	for n < len(r.buf) && rerr == nil {
		var m int
		m, rerr = r.data.Read(r.buf[n:])
		n += m
	}
	if rerr != nil && rerr != io.EOF {
		return nil, 0, fmt.Errorf("cannot read entry data: %w", rerr)
	}
	if n == 0 {
		r.data = nil
		return nil, 0, io.EOF
	}

	off := r.offset
	r.offset += int64(n)
	return r.buf[:n], off, nil
}

// Close releases the walker, the filter, the spool and the archive file.
func (r *archiveReader) Close() error {
	var result error
	if r.walker != nil {
		if err := r.walker.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		r.walker = nil
	}
	if c, ok := r.stream.(io.Closer); ok {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("cannot close %s filter: %w", r.filter, err))
		}
	}
	r.stream = nil
	if r.spool != nil {
		if err := r.spool.Close(); err != nil {
			result = multierror.Append(result, err)
		}
		r.spool = nil
	}
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("cannot close archive: %w", err))
		}
		r.file = nil
	}
	r.data = nil
	return result
}

// emptyWalker is the walker of an input without data
type emptyWalker struct{}

// Format returns the name of the empty format
func (emptyWalker) Format() string {
	return formatEmpty
}

// Next always returns io.EOF
func (emptyWalker) Next() (*Entry, io.Reader, error) {
	return nil, nil, io.EOF
}

// Close does nothing
func (emptyWalker) Close() error {
	return nil
}
