// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

// Package unbundle extracts a compressed archive, e.g. a downloaded model bundle,
// onto the local filesystem.
//
// An extraction is a single synchronous call to [Extract]. The destination directory
// is prepared first, then the archive is streamed entry by entry from a read cursor
// into a disk write cursor. Permission bits, POSIX ACLs and filesystem flags are
// restored from the archive metadata, modification times are not (see [RestoreFlags]).
// By default the first path component of every entry is dropped, so that an archive
// containing `model-1.0/conf/model.conf` is extracted to `<destination>/conf/model.conf`.
//
// The terminal outcome is reported through a [Callback]: exactly one of OnSuccess or
// OnError is called per extraction. Problems that do not stop the extraction are
// classified as warnings (see [Severity]), logged through the configured logger and
// counted in the [TelemetryData].
//
// Configuration is done using the [Config], which is created with [NewConfig] and
// adjusted with options in the option pattern style.
package unbundle
