// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"archive/tar"
	"bytes"
	"io"
	"io/fs"
	"testing"
)

// tarContent is a struct to store the content of a tar file
type tarContent struct {
	content    []byte
	linktarget string
	mode       int64
	name       string
	fileType   byte
	pax        map[string]string
}

// packTarWithContent creates a tar file with the given content
func packTarWithContent(t *testing.T, content []tarContent) []byte {
	t.Helper()

	// create tar writer
	writeBuffer := bytes.NewBuffer([]byte{})
	tw := tar.NewWriter(writeBuffer)

	// write content
	for _, c := range content {
		hdr := &tar.Header{
			Name:       c.name,
			Mode:       c.mode,
			Size:       int64(len(c.content)),
			Linkname:   c.linktarget,
			Typeflag:   c.fileType,
			PAXRecords: c.pax,
		}
		if len(c.pax) > 0 {
			hdr.Format = tar.FormatPAX
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("error writing tar header: %v", err)
		}
		if _, err := tw.Write(c.content); err != nil {
			t.Fatalf("error writing tar data: %v", err)
		}
	}

	// close tar writer
	if err := tw.Close(); err != nil {
		t.Fatalf("error closing tar writer: %v", err)
	}

	return writeBuffer.Bytes()
}

func Test_isTar(t *testing.T) {
	v7 := packTarWithContent(t, []tarContent{{name: "file", content: []byte("data"), mode: 0644, fileType: tar.TypeReg}})
	// remove the ustar magic and fix the checksum, like an old v7 archive
	copy(v7[offsetTar:], make([]byte, 8))
	var sum int64
	for i, b := range v7[:blockSizeTar] {
		if i >= 148 && i < 156 {
			b = ' '
		}
		sum += int64(b)
	}
	copy(v7[148:156], []byte(formatOctal(sum)))

	corrupt := packTarWithContent(t, []tarContent{{name: "file", mode: 0644, fileType: tar.TypeReg}})
	copy(corrupt[offsetTar:], make([]byte, 8))

	tests := []struct {
		name   string
		header []byte
		want   bool
	}{
		{name: "ustar", header: packTarWithContent(t, []tarContent{{name: "file", mode: 0644, fileType: tar.TypeReg}}), want: true},
		{name: "empty archive", header: packTarWithContent(t, nil), want: true},
		{name: "v7 with checksum", header: v7, want: true},
		{name: "no magic and wrong checksum", header: corrupt, want: false},
		{name: "short header", header: []byte("ustar"), want: false},
		{name: "random data", header: bytes.Repeat([]byte("x"), blockSizeTar), want: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := isTar(test.header); got != test.want {
				t.Errorf("isTar() = %v, want %v", got, test.want)
			}
		})
	}
}

// formatOctal formats a tar checksum field
func formatOctal(v int64) string {
	s := []byte("000000\x00 ")
	for i := 5; i >= 0; i-- {
		s[i] = byte('0' + v%8)
		v /= 8
	}
	return string(s)
}

func TestTarWalker(t *testing.T) {
	data := packTarWithContent(t, []tarContent{
		{name: "dir/", mode: 0755, fileType: tar.TypeDir},
		{name: "dir/file", content: []byte("content"), mode: 04751, fileType: tar.TypeReg},
		{name: "dir/link", linktarget: "file", mode: 0777, fileType: tar.TypeSymlink},
		{name: "dir/hard", linktarget: "dir/file", mode: 0644, fileType: tar.TypeLink},
		{name: "dir/fifo", mode: 0600, fileType: tar.TypeFifo},
		{
			name:     "dir/acl",
			mode:     0640,
			fileType: tar.TypeReg,
			pax: map[string]string{
				paxACLAccess:                    "user::rw-,group::r--,other::---",
				paxFFlags:                       "nodump",
				paxXattrPrefix + "user.comment": "hello",
				paxXattrPrefix + "system.posix_acl_access": "raw",
			},
		},
	})

	w := newTarWalker(bytes.NewReader(data))
	if w.Format() != formatTar {
		t.Errorf("Format() = %v, want %v", w.Format(), formatTar)
	}

	expect := []struct {
		name     string
		typ      EntryType
		content  string
		linkname string
		hardlink string
	}{
		{name: "dir/", typ: TypeDir},
		{name: "dir/file", typ: TypeRegular, content: "content"},
		{name: "dir/link", typ: TypeSymlink, linkname: "file"},
		{name: "dir/hard", typ: TypeHardlink, hardlink: "dir/file"},
		{name: "dir/fifo", typ: TypeFifo},
		{name: "dir/acl", typ: TypeRegular},
	}

	for _, want := range expect {
		e, r, err := w.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if e.Pathname != want.name || e.Type != want.typ {
			t.Errorf("Next() = %s (%s), want %s (%s)", e.Pathname, e.Type, want.name, want.typ)
		}
		if e.Linkname != want.linkname || e.Hardlink != want.hardlink {
			t.Errorf("%s: links = %q/%q, want %q/%q", e.Pathname, e.Linkname, e.Hardlink, want.linkname, want.hardlink)
		}
		content, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if string(content) != want.content {
			t.Errorf("%s: content = %q, want %q", e.Pathname, content, want.content)
		}

		switch e.Pathname {
		case "dir/file":
			if e.Mode != fs.ModeSetuid|0751 {
				t.Errorf("%s: mode = %v", e.Pathname, e.Mode)
			}
		case "dir/acl":
			if e.ACLAccess != "user::rw-,group::r--,other::---" {
				t.Errorf("ACLAccess = %q", e.ACLAccess)
			}
			if e.FFlags != "nodump" {
				t.Errorf("FFlags = %q", e.FFlags)
			}
			if e.Xattrs["user.comment"] != "hello" || e.Xattrs[xattrACLAccess] != "raw" {
				t.Errorf("Xattrs = %v", e.Xattrs)
			}
		}
	}

	if _, _, err := w.Next(); err != io.EOF {
		t.Errorf("Next() error = %v, want io.EOF", err)
	}
}
