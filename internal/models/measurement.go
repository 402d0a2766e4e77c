// Package models defines the domain types for Vesica.
package models

import "time"

// TimestampLayout is the only accepted textual form of a measurement time.
// Free-form parsing is deliberately not supported.
const TimestampLayout = "2006-01-02 15:04"

// Source records which ingestion path produced a measurement.
type Source string

// Ingestion provenance tags.
const (
	SourceInteractive Source = "interactive"
	SourceBatchImport Source = "batch_import"
)

// Clinical context vocabulary. ContextUnknown is the batch-path fallback
// when the column is absent or blank.
const (
	ContextPreVoid  = "pre_void"
	ContextPostVoid = "post_void"
	ContextOther    = "other"
	ContextUnknown  = "unknown"
)

// Measurement is one normalized bladder-ultrasound record. It is
// constructed only by the normalizer and treated as immutable afterwards;
// CalculatedVolumeML is always derived from the three dimensions, never
// taken from external input.
type Measurement struct {
	PatientID          string    `json:"patient_id"`
	TakenAt            time.Time `json:"measurement_time"`
	LengthCM           float64   `json:"length_cm"`
	WidthCM            float64   `json:"width_cm"`
	DepthCM            float64   `json:"depth_cm"`
	VoidedVolumeML     *float64  `json:"voided_volume_ml,omitempty"`
	Context            string    `json:"context"`
	Notes              string    `json:"notes,omitempty"`
	CalculatedVolumeML float64   `json:"calculated_volume_ml"`
	Source             Source    `json:"source"`
}

// Columns is the canonical ledger column order. The persisted header and
// every encoded row follow it exactly.
func Columns() []string {
	return []string{
		"patient_id",
		"measurement_time",
		"length_cm",
		"width_cm",
		"depth_cm",
		"voided_volume_ml",
		"context",
		"notes",
		"calculated_volume_ml",
		"source",
	}
}
