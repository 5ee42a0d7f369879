// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package unbundle

import "errors"

// Severity classifies the result of a step of the extraction pipeline.
type Severity int

const (
	// SeverityOK means the step succeeded.
	SeverityOK Severity = iota

	// SeverityWarning means the step had a problem, but the extraction continues.
	SeverityWarning

	// SeverityFatal means the extraction is aborted.
	SeverityFatal
)

// String returns the name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "ok"
	case SeverityWarning:
		return "warning"
	case SeverityFatal:
		return "fatal"
	}
	return "unknown"
}

// Classify maps the error returned by a cursor operation to its [Severity].
// A nil error is [SeverityOK], an error wrapping a [*Warning] is [SeverityWarning]
// and any other error is [SeverityFatal].
func Classify(err error) Severity {
	if err == nil {
		return SeverityOK
	}
	var w *Warning
	if errors.As(err, &w) {
		return SeverityWarning
	}
	return SeverityFatal
}
