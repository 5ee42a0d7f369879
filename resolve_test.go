// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"path/filepath"
	"testing"
)

func TestResolveEntryPath(t *testing.T) {
	root := filepath.FromSlash("/models/en")

	tests := []struct {
		name  string
		entry string
		strip bool
		want  string
	}{
		{name: "strip nested", entry: "vosk-model/am/final.mdl", strip: true, want: "/models/en/am/final.mdl"},
		{name: "strip directory", entry: "vosk-model/conf/", strip: true, want: "/models/en/conf"},
		{name: "strip top directory", entry: "vosk-model/", strip: true, want: "/models/en"},
		{name: "strip bare name", entry: "README", strip: true, want: "/models/en/README"},
		{name: "strip dot prefix", entry: "./README", strip: true, want: "/models/en/README"},
		{name: "strip only first component", entry: "a/b/c", strip: true, want: "/models/en/b/c"},
		{name: "no strip", entry: "vosk-model/am/final.mdl", strip: false, want: "/models/en/vosk-model/am/final.mdl"},
		{name: "no strip bare name", entry: "README", strip: false, want: "/models/en/README"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := resolveEntryPath(root, test.entry, test.strip)
			if want := filepath.FromSlash(test.want); got != want {
				t.Errorf("resolveEntryPath(%q, %q, %v) = %q, want %q", root, test.entry, test.strip, got, want)
			}
		})
	}
}
