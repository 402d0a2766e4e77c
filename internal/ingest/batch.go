// Package ingest reads batch CSV files and feeds each row through the
// shared normalizer under the batch policy.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/starford/vesica/internal/apperr"
	"github.com/starford/vesica/internal/models"
	"github.com/starford/vesica/internal/normalize"
)

// RowError records a single rejected row. Rejected rows are skipped; the
// rest of the file is still processed.
type RowError struct {
	Line int // 1-based line number in the source file, header included
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// recognized is the set of column names the importer maps into raw fields.
// Names are case-sensitive; anything else in the header is ignored.
var recognized = map[string]struct{}{
	normalize.FieldPatientID:       {},
	normalize.FieldMeasurementTime: {},
	normalize.FieldLengthCM:        {},
	normalize.FieldWidthCM:         {},
	normalize.FieldDepthCM:         {},
	normalize.FieldVoidedVolumeML:  {},
	normalize.FieldContext:         {},
	normalize.FieldNotes:           {},
}

// ImportFile reads the CSV at path and normalizes every row with the
// BatchImport policy. A missing file returns apperr.ErrFileNotFound with
// no records; per-row failures land in the RowError slice while good rows
// keep flowing. A required column missing from the header fails every row
// with apperr.ErrMissingColumn.
func ImportFile(path string) ([]models.Measurement, []RowError, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", apperr.ErrFileNotFound, path)
		}
		return nil, nil, fmt.Errorf("ingest: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("ingest: %s has no header row", path)
	}

	header := records[0]
	var out []models.Measurement
	var rowErrs []RowError

	for i, row := range records[1:] {
		line := i + 2 // header is line 1
		m, err := normalize.Normalize(rowFields(header, row), normalize.BatchImport)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		out = append(out, m)
	}
	return out, rowErrs, nil
}

// rowFields maps one CSV row onto the raw field bag. Blank cells of
// optional columns are left out so the normalizer applies its defaults,
// matching the original importer's treatment of empty cells as absent.
func rowFields(header, row []string) normalize.Fields {
	fields := make(normalize.Fields, len(header))
	for i, name := range header {
		if _, ok := recognized[name]; !ok {
			continue
		}
		if i >= len(row) {
			continue
		}
		value := row[i]
		if optional(name) && strings.TrimSpace(value) == "" {
			continue
		}
		fields[name] = value
	}
	return fields
}

func optional(name string) bool {
	switch name {
	case normalize.FieldVoidedVolumeML, normalize.FieldContext, normalize.FieldNotes:
		return true
	}
	return false
}
