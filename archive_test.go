// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unbundle_test

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// archiveContent is a struct to store the content of an archive entry
type archiveContent struct {
	Name       string
	Content    []byte
	Linktarget string
	Mode       os.FileMode
	Filetype   byte
	ModTime    time.Time
	PAXRecords map[string]string
}

// packTar creates a tar archive with the given content
func packTar(t *testing.T, content []archiveContent) []byte {
	t.Helper()

	// create tar writer
	writeBuffer := bytes.NewBuffer([]byte{})
	tw := tar.NewWriter(writeBuffer)

	for _, c := range content {
		writeTarEntry(t, tw, c)
	}

	// close tar writer
	if err := tw.Close(); err != nil {
		t.Fatalf("error closing tar writer: %v", err)
	}

	return writeBuffer.Bytes()
}

// writeTarEntry writes a header and the content of c to tw
func writeTarEntry(t *testing.T, tw *tar.Writer, c archiveContent) {
	t.Helper()

	modTime := c.ModTime
	if modTime.IsZero() {
		modTime = time.Now()
	}
	hdr := &tar.Header{
		Name:       c.Name,
		Mode:       int64(c.Mode),
		Size:       int64(len(c.Content)),
		Linkname:   c.Linktarget,
		Typeflag:   c.Filetype,
		ModTime:    modTime,
		PAXRecords: c.PAXRecords,
	}
	if c.Filetype != tar.TypeReg {
		hdr.Size = 0
	}
	if len(c.PAXRecords) > 0 {
		hdr.Format = tar.FormatPAX
	}

	// write header
	if err := tw.WriteHeader(hdr); err != nil {
		t.Fatalf("error writing tar header: %v", err)
	}

	// write data
	if hdr.Size > 0 {
		if _, err := tw.Write(c.Content); err != nil {
			t.Fatalf("error writing tar data: %v", err)
		}
	}
}

// packZip creates a zip archive with the given content
func packZip(t *testing.T, content []archiveContent) []byte {
	t.Helper()

	buf := bytes.NewBuffer([]byte{})
	zw := zip.NewWriter(buf)
	for _, c := range content {
		hdr := &zip.FileHeader{Name: c.Name, Method: zip.Deflate}
		mode := c.Mode
		switch c.Filetype {
		case tar.TypeDir:
			mode |= os.ModeDir
		case tar.TypeSymlink:
			mode |= os.ModeSymlink
		}
		hdr.SetMode(mode)
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("error creating zip entry: %v", err)
		}
		data := c.Content
		if c.Filetype == tar.TypeSymlink {
			data = []byte(c.Linktarget)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("error writing zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("error closing zip writer: %v", err)
	}
	return buf.Bytes()
}

// compressGzip compresses data with gzip algorithm
func compressGzip(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("error writing data to gzip writer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("error closing gzip writer: %v", err)
	}
	return buf.Bytes()
}

// compressBzip2 compresses data with bzip2 algorithm.
func compressBzip2(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := bzip2.NewWriter(&buf, &bzip2.WriterConfig{
		Level: bzip2.DefaultCompression,
	})
	if err != nil {
		t.Fatalf("error creating bzip2 writer: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("error writing data to bzip2 writer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("error closing bzip2 writer: %v", err)
	}
	return buf.Bytes()
}

// compressXz compresses the data using the Xz algorithm
func compressXz(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("error creating xz writer: %v", err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("error writing data to xz writer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("error closing xz writer: %v", err)
	}
	return buf.Bytes()
}

func compressZstd(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		t.Fatalf("error creating zstd writer: %v", err)
	}
	_, err = enc.Write(data)
	enc.Close()
	if err != nil {
		t.Fatalf("error writing data to zstd writer: %v", err)
	}
	return buf.Bytes()
}

func compressLZ4(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("error writing data to lz4 writer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("error closing lz4 writer: %v", err)
	}
	return buf.Bytes()
}

func compressSnappy(t *testing.T, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := snappy.NewBufferedWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("error writing data to snappy writer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("error closing snappy writer: %v", err)
	}
	return buf.Bytes()
}

// randomBytes returns n bytes of incompressible data
func randomBytes(t *testing.T, n int) []byte {
	t.Helper()

	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("error generating random data: %v", err)
	}
	return b
}

// writeArchive stores data as archive file in a new temporary directory
func writeArchive(t *testing.T, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("error writing archive: %v", err)
	}
	return path
}
