// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

// Package modelstore keeps extracted model bundles in a local directory.
//
// A bundle is identified by the URL it is downloaded from. [Store.Ensure]
// downloads the archive once, extracts it with [unbundle.ExtractFile] and
// records each finished step in a marker file, so that an interrupted run
// resumes where it stopped:
//
//	<root>/<name>/downloaded.tar.gz  the fetched archive
//	<root>/<name>/downloaded.ok      the archive is complete
//	<root>/<name>/extracted.ok       the bundle is ready to use
package modelstore
