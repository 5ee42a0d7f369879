// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"bytes"
	"encoding/base64"
	"io"
	"testing"
)

var testRarArchiveBase64 = "UmFyIRoHAQAzkrXlCgEFBgAFAQGAgAADk1YoJQIDC50ABJ0ApIMClAgA9IAAAQdkaXIvZm9vCgMTQPjXZsjBSQhNaSAgNCBTZXAgMjAyNCAwODowMzo0NCBDRVNUCpQdu+oiAgMLnQAEnQCkgwI+z7uqgAABBGZpbGUKAxPEDddmxHsQDkRpICAzIFNlcCAyMDI0IDE1OjIzOjE2IENFU1QKe1xvKCwCAxcABAftwwIAAAAAgAABBGxpbmsKAxNM+NdmSCZHGAsFAQAHZGlyL2Zvb0A2hh0bAgMLAAEA7YMBgAABA2RpcgoDE0D412Z533kHHXdWUQMFBAA="

func TestIsRar(t *testing.T) {
	tests := []struct {
		header []byte
		want   bool
	}{
		{[]byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x00}, true},
		{[]byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07, 0x01, 0x00}, true},
		{[]byte{0x00, 0x00, 0x00, 0x00}, false},
	}

	for _, test := range tests {
		if got := isRar(test.header); got != test.want {
			t.Errorf("isRar(%v) = %v; want %v", test.header, got, test.want)
		}
	}
}

func TestRarWalker(t *testing.T) {
	archiveBytes, err := base64.StdEncoding.DecodeString(testRarArchiveBase64)
	if err != nil {
		t.Fatalf("error decoding base64 string: %v", err)
	}

	w, err := newRarWalker(bytes.NewReader(archiveBytes))
	if err != nil {
		t.Fatalf("newRarWalker() error = %v", err)
	}
	defer w.Close()

	types := map[string]EntryType{}
	for {
		e, r, err := w.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if _, err := io.Copy(io.Discard, r); err != nil {
			t.Fatalf("error reading %s: %v", e.Pathname, err)
		}
		types[e.Pathname] = e.Type
	}

	if types["file"] != TypeRegular {
		t.Errorf("file has type %s, want %s", types["file"], TypeRegular)
	}
	if types["dir"] != TypeDir {
		t.Errorf("dir has type %s, want %s", types["dir"], TypeDir)
	}
	if typ, ok := types["link"]; ok && typ != TypeUnknown {
		t.Errorf("link has type %s, want %s", typ, TypeUnknown)
	}
}
