// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"archive/zip"
	"bytes"
	"io"
	"io/fs"
	"testing"
)

func TestIsZip(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
		want   bool
	}{
		{name: "local file header", header: []byte{0x50, 0x4B, 0x03, 0x04}, want: true},
		{name: "empty archive", header: []byte{0x50, 0x4B, 0x05, 0x06}, want: true},
		{name: "no zip", header: []byte{0x50, 0x4B, 0x07, 0x08}, want: false},
		{name: "short", header: []byte{0x50}, want: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := isZip(test.header); got != test.want {
				t.Errorf("isZip() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestZipWalker(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	zw := zip.NewWriter(buf)
	add := func(name string, mode fs.FileMode, data string) {
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
		hdr.SetMode(mode)
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatalf("error creating zip entry: %v", err)
		}
		if _, err := w.Write([]byte(data)); err != nil {
			t.Fatalf("error writing zip entry: %v", err)
		}
	}
	add("dir/", fs.ModeDir|0755, "")
	add("dir/file", 0640, "content")
	add("dir/link", fs.ModeSymlink|0777, "file")
	if err := zw.Close(); err != nil {
		t.Fatalf("error closing zip writer: %v", err)
	}

	w, err := newZipWalker(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("newZipWalker() error = %v", err)
	}
	defer w.Close()

	expect := []struct {
		name     string
		typ      EntryType
		mode     fs.FileMode
		content  string
		linkname string
	}{
		{name: "dir/", typ: TypeDir, mode: 0755},
		{name: "dir/file", typ: TypeRegular, mode: 0640, content: "content"},
		{name: "dir/link", typ: TypeSymlink, mode: 0777, linkname: "file"},
	}
	for _, want := range expect {
		e, r, err := w.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if e.Pathname != want.name || e.Type != want.typ || e.Mode != want.mode {
			t.Errorf("Next() = %s %s %v, want %s %s %v", e.Pathname, e.Type, e.Mode, want.name, want.typ, want.mode)
		}
		if e.Linkname != want.linkname {
			t.Errorf("%s: Linkname = %q, want %q", e.Pathname, e.Linkname, want.linkname)
		}
		data, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if string(data) != want.content {
			t.Errorf("%s: content = %q, want %q", e.Pathname, data, want.content)
		}
		if e.Size != int64(len(want.content)) {
			t.Errorf("%s: Size = %d, want %d", e.Pathname, e.Size, len(want.content))
		}
	}

	if _, _, err := w.Next(); err != io.EOF {
		t.Errorf("Next() error = %v, want io.EOF", err)
	}
}

func TestZipWalkerInvalid(t *testing.T) {
	data := []byte{0x50, 0x4B, 0x03, 0x04, 0x00}
	if _, err := newZipWalker(bytes.NewReader(data), int64(len(data))); err == nil {
		t.Errorf("newZipWalker() expected error for truncated archive")
	}
}
