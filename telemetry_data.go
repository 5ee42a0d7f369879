// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package unbundle

import (
	"context"
	"encoding/json"
	"time"
)

// TelemetryData holds all telemetry data of an extraction.
type TelemetryData struct {
	// ExtractedDirs is the number of extracted directories
	ExtractedDirs int64 `json:"extracted_dirs"`

	// ExtractedFiles is the number of extracted regular files
	ExtractedFiles int64 `json:"extracted_files"`

	// ExtractedLinks is the number of created hardlinks
	ExtractedLinks int64 `json:"extracted_links"`

	// ExtractedSpecial is the number of created fifos and device nodes
	ExtractedSpecial int64 `json:"extracted_special"`

	// ExtractedSymlinks is the number of extracted symlinks
	ExtractedSymlinks int64 `json:"extracted_symlinks"`

	// ExtractionDuration is the time it took to extract the archive
	ExtractionDuration time.Duration `json:"extraction_duration"`

	// ExtractionErrors is the number of fatal errors, at most one
	ExtractionErrors int64 `json:"extraction_errors"`

	// ExtractionSize is the number of bytes written to disk
	ExtractionSize int64 `json:"extraction_size"`

	// ExtractionWarnings is the number of warnings during extraction
	ExtractionWarnings int64 `json:"extraction_warnings"`

	// Filter is the detected decompression filter
	Filter Filter `json:"filter"`

	// Format is the detected archive format
	Format string `json:"format"`

	// InputSize is the number of bytes read from the archive file
	InputSize int64 `json:"input_size"`

	// LastExtractionError is the error that ended the extraction
	LastExtractionError error `json:"last_extraction_error"`

	// LastWarning is the last warning during extraction
	LastWarning error `json:"last_warning"`
}

// String returns a string representation of [TelemetryData].
func (m TelemetryData) String() string {
	b, _ := json.Marshal(m)
	return string(b)
}

// MarshalJSON implements the [encoding/json.Marshaler] interface.
func (m TelemetryData) MarshalJSON() ([]byte, error) {
	var lastError, lastWarning string
	if m.LastExtractionError != nil {
		lastError = m.LastExtractionError.Error()
	}
	if m.LastWarning != nil {
		lastWarning = m.LastWarning.Error()
	}

	type Alias TelemetryData
	return json.Marshal(&struct {
		LastExtractionError string `json:"last_extraction_error"`
		LastWarning         string `json:"last_warning"`
		*Alias
	}{
		LastExtractionError: lastError,
		LastWarning:         lastWarning,
		Alias:               (*Alias)(&m),
	})
}

// TelemetryHook is a function type that performs operations on [TelemetryData]
// after an extraction has finished which can be used to submit the [TelemetryData]
// to a telemetry service, for example.
type TelemetryHook func(context.Context, *TelemetryData)

// countEntry increments the counter that matches the type of e.
func (m *TelemetryData) countEntry(e *Entry) {
	switch e.Type {
	case TypeDir:
		m.ExtractedDirs++
	case TypeRegular:
		m.ExtractedFiles++
	case TypeSymlink:
		m.ExtractedSymlinks++
	case TypeHardlink:
		m.ExtractedLinks++
	case TypeFifo, TypeChar, TypeBlock:
		m.ExtractedSpecial++
	}
}

// Equals returns true if the given [TelemetryData] is equal to the receiver.
// Durations and error values are not compared.
func (m *TelemetryData) Equals(other *TelemetryData) bool {
	if m == nil && other == nil {
		return true
	}
	if m == nil || other == nil {
		return false
	}
	return m.ExtractedDirs == other.ExtractedDirs &&
		m.ExtractedFiles == other.ExtractedFiles &&
		m.ExtractedLinks == other.ExtractedLinks &&
		m.ExtractedSpecial == other.ExtractedSpecial &&
		m.ExtractedSymlinks == other.ExtractedSymlinks &&
		m.ExtractionErrors == other.ExtractionErrors &&
		m.ExtractionSize == other.ExtractionSize &&
		m.ExtractionWarnings == other.ExtractionWarnings &&
		m.Filter == other.Filter &&
		m.Format == other.Format &&
		m.InputSize == other.InputSize
}
