// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Filter is a decompression filter wrapped around an archive.
type Filter string

const (
	// FilterNone is an uncompressed archive. It is always accepted.
	FilterNone Filter = "none"
	// FilterGzip is a gzip compressed archive.
	FilterGzip Filter = "gzip"
	// FilterBzip2 is a bzip2 compressed archive.
	FilterBzip2 Filter = "bzip2"
	// FilterXz is a xz compressed archive.
	FilterXz Filter = "xz"
	// FilterZstd is a zstandard compressed archive.
	FilterZstd Filter = "zstd"
	// FilterLz4 is a lz4 frame compressed archive.
	FilterLz4 Filter = "lz4"
	// FilterSnappy is a snappy framed archive.
	FilterSnappy Filter = "snappy"
)

// decompressionFunc returns a reader that decompresses src.
type decompressionFunc func(src io.Reader) (io.Reader, error)

// availableFilter describes how a filter is detected and opened.
type availableFilter struct {
	MagicBytes [][]byte
	Open       decompressionFunc
}

// availableFilters is the collection of supported decompression filters
var availableFilters = map[Filter]availableFilter{
	FilterGzip:   {MagicBytes: magicBytesGZip, Open: decompressGZipStream},
	FilterBzip2:  {MagicBytes: magicBytesBzip2, Open: decompressBzip2Stream},
	FilterXz:     {MagicBytes: magicBytesXz, Open: decompressXzStream},
	FilterZstd:   {MagicBytes: magicBytesZstd, Open: decompressZstdStream},
	FilterLz4:    {MagicBytes: magicBytesLZ4, Open: decompressLZ4Stream},
	FilterSnappy: {MagicBytes: magicBytesSnappy, Open: decompressSnappyStream},
}

// AllFilters returns every supported decompression filter.
func AllFilters() []Filter {
	filters := make([]Filter, 0, len(availableFilters))
	for f := range availableFilters {
		filters = append(filters, f)
	}
	sort.Slice(filters, func(i, j int) bool { return filters[i] < filters[j] })
	return filters
}

// ParseFilter returns the filter with the given name.
func ParseFilter(name string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(name)))
	if f == FilterNone {
		return f, nil
	}
	if _, ok := availableFilters[f]; !ok {
		return "", fmt.Errorf("unknown filter %q", name)
	}
	return f, nil
}

// detectFilter returns the first enabled filter whose magic bytes match header.
// If no filter matches, the input is treated as uncompressed.
func detectFilter(header []byte, enabled []Filter) Filter {
	for _, f := range enabled {
		af, ok := availableFilters[f]
		if !ok {
			continue
		}
		if matchesMagicBytes(header, 0, af.MagicBytes) {
			return f
		}
	}
	return FilterNone
}

// matchesMagicBytes checks if data contains one of magicBytes at offset.
func matchesMagicBytes(data []byte, offset int, magicBytes [][]byte) bool {
	for _, mb := range magicBytes {
		if offset+len(mb) > len(data) {
			continue
		}
		if bytes.Equal(mb, data[offset:offset+len(mb)]) {
			return true
		}
	}
	return false
}

// peekReader allows the first bytes of a stream to be inspected before the
// stream is consumed. The inspected bytes are returned again by Read.
type peekReader struct {
	r      io.Reader
	header []byte
}

// newPeekReader reads up to size bytes from r. A short stream is not an error.
func newPeekReader(r io.Reader, size int) (*peekReader, error) {
	buf := make([]byte, size)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("cannot read header: %w", err)
	}
	return &peekReader{r: r, header: buf[:n]}, nil
}

// Peek returns the bytes that have not been consumed from the header.
func (p *peekReader) Peek() []byte {
	return p.header
}

// Read returns the peeked bytes first and continues with the underlying reader.
func (p *peekReader) Read(b []byte) (int, error) {
	if len(p.header) > 0 {
		n := copy(b, p.header)
		p.header = p.header[n:]
		return n, nil
	}
	return p.r.Read(b)
}
