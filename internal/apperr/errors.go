// Package apperr defines the sentinel errors shared by the ingestion,
// normalization, and persistence layers. Callers classify failures with
// errors.Is.
package apperr

import "errors"

var (
	// ErrInvalidMeasurement marks a non-positive bladder dimension.
	ErrInvalidMeasurement = errors.New("invalid measurement")
	// ErrTimestampParse marks a measurement time that does not match the
	// required layout.
	ErrTimestampParse = errors.New("timestamp parse")
	// ErrFieldType marks a field that should be numeric but is not.
	ErrFieldType = errors.New("field type")
	// ErrMissingColumn marks a record that lacks a required field.
	ErrMissingColumn = errors.New("missing column")
	// ErrFileNotFound marks an absent batch source file. Recoverable at the
	// collaborator boundary: report it and continue with an empty result.
	ErrFileNotFound = errors.New("file not found")
	// ErrPersistence marks an I/O failure on the measurement ledger.
	ErrPersistence = errors.New("persistence")
)
