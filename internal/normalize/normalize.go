// Package normalize turns a bag of raw field values from either ingestion
// path into a canonical models.Measurement. Both paths share one
// normalizer; their behavioral differences are confined to a Policy value.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/starford/vesica/internal/apperr"
	"github.com/starford/vesica/internal/measure"
	"github.com/starford/vesica/internal/models"
)

// Fields is the raw input bag. Key presence means the field was supplied
// by the source; an empty value is a supplied-but-blank field.
type Fields map[string]string

// Raw field names. These double as the recognized batch column names and
// are case-sensitive.
const (
	FieldPatientID       = "patient_id"
	FieldMeasurementTime = "measurement_time"
	FieldLengthCM        = "length_cm"
	FieldWidthCM         = "width_cm"
	FieldDepthCM         = "depth_cm"
	FieldVoidedVolumeML  = "voided_volume_ml"
	FieldContext         = "context"
	FieldNotes           = "notes"
)

// Policy carries the per-path normalization differences: the provenance
// tag, the fallback applied to a missing or blank context, and whether the
// context is lower-cased. The interactive path historically kept the
// operator's context verbatim (including empty) while the batch path
// lower-cased it and defaulted to "unknown"; that asymmetry is preserved
// here as two explicit policies rather than silently reconciled.
type Policy struct {
	Source           models.Source
	ContextFallback  string
	LowercaseContext bool
}

// Interactive is the console-entry policy.
var Interactive = Policy{
	Source: models.SourceInteractive,
}

// BatchImport is the CSV-import policy.
var BatchImport = Policy{
	Source:           models.SourceBatchImport,
	ContextFallback:  models.ContextUnknown,
	LowercaseContext: true,
}

// Normalize builds one immutable Measurement from raw fields. It is a pure
// transformation: validation and volume derivation happen here, appending
// the result anywhere is the caller's responsibility.
//
// Failure modes: apperr.ErrMissingColumn when a required field is absent,
// apperr.ErrTimestampParse on a malformed measurement time,
// apperr.ErrFieldType on non-numeric dimensions or voided volume, and
// apperr.ErrInvalidMeasurement from the dimension validator. Any failure
// aborts this record only.
func Normalize(fields Fields, policy Policy) (models.Measurement, error) {
	var m models.Measurement

	patientID, err := require(fields, FieldPatientID)
	if err != nil {
		return m, err
	}

	rawTime, err := require(fields, FieldMeasurementTime)
	if err != nil {
		return m, err
	}
	takenAt, err := time.Parse(models.TimestampLayout, strings.TrimSpace(rawTime))
	if err != nil {
		return m, fmt.Errorf("%w: %q does not match %q",
			apperr.ErrTimestampParse, rawTime, models.TimestampLayout)
	}

	length, err := numericField(fields, FieldLengthCM)
	if err != nil {
		return m, err
	}
	width, err := numericField(fields, FieldWidthCM)
	if err != nil {
		return m, err
	}
	depth, err := numericField(fields, FieldDepthCM)
	if err != nil {
		return m, err
	}

	if err := measure.Validate(length, width, depth); err != nil {
		return m, err
	}

	var voided *float64
	if raw, ok := fields[FieldVoidedVolumeML]; ok && strings.TrimSpace(raw) != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return m, fmt.Errorf("%w: %s %q is not numeric", apperr.ErrFieldType, FieldVoidedVolumeML, raw)
		}
		voided = &v
	}

	context := strings.TrimSpace(fields[FieldContext])
	if policy.LowercaseContext {
		context = strings.ToLower(context)
	}
	if context == "" {
		context = policy.ContextFallback
	}

	m = models.Measurement{
		PatientID:          strings.TrimSpace(patientID),
		TakenAt:            takenAt,
		LengthCM:           length,
		WidthCM:            width,
		DepthCM:            depth,
		VoidedVolumeML:     voided,
		Context:            context,
		Notes:              strings.TrimSpace(fields[FieldNotes]),
		CalculatedVolumeML: measure.EstimateVolume(length, width, depth),
		Source:             policy.Source,
	}
	return m, nil
}

func require(fields Fields, name string) (string, error) {
	v, ok := fields[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", apperr.ErrMissingColumn, name)
	}
	return v, nil
}

func numericField(fields Fields, name string) (float64, error) {
	raw, err := require(fields, name)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not numeric", apperr.ErrFieldType, name, raw)
	}
	return v, nil
}
