// Package ledger persists measurements to the durable CSV table. The
// ledger file is the source of truth; the SQLite index is derived from it.
package ledger

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/starford/vesica/internal/apperr"
	"github.com/starford/vesica/internal/models"
)

// Append merges the given measurements into the ledger at path. A missing
// destination is created with the canonical header; an existing one is
// read fully and its rows kept verbatim ahead of the new ones, then the
// whole table is rewritten atomically. Rows are never deduplicated or
// mutated. Returns the total row count after the merge.
//
// A header written by an older schema is carried over as-is; columns are
// not reconciled, so such files can end up positionally misaligned.
//
// The read-then-overwrite sequence is unprotected: two writers racing on
// the same path can lose one batch. Callers hold the single-writer
// contract.
func Append(path string, recs []models.Measurement) (int, error) {
	header := models.Columns()
	var rows [][]string

	existingHeader, existingRows, err := Read(path)
	switch {
	case err == nil:
		header = existingHeader
		rows = existingRows
	case os.IsNotExist(err):
		// Fresh ledger.
	default:
		return 0, fmt.Errorf("%w: read %s: %v", apperr.ErrPersistence, path, err)
	}

	for _, m := range recs {
		rows = append(rows, EncodeRow(m))
	}

	if err := writeTable(path, header, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Read returns the header and data rows of the ledger at path. A missing
// file surfaces as an os.IsNotExist error so Append can distinguish the
// fresh-ledger case.
func Read(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows from older files
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: parse %s: %v", apperr.ErrPersistence, path, err)
	}
	if len(all) == 0 {
		return models.Columns(), nil, nil
	}
	return all[0], all[1:], nil
}

// EncodeRow renders one measurement in the canonical column order.
func EncodeRow(m models.Measurement) []string {
	voided := ""
	if m.VoidedVolumeML != nil {
		voided = formatFloat(*m.VoidedVolumeML)
	}
	return []string{
		m.PatientID,
		m.TakenAt.Format(models.TimestampLayout),
		formatFloat(m.LengthCM),
		formatFloat(m.WidthCM),
		formatFloat(m.DepthCM),
		voided,
		m.Context,
		m.Notes,
		formatFloat(m.CalculatedVolumeML),
		string(m.Source),
	}
}

// writeTable rewrites the ledger atomically: tmp file in the same
// directory, fsync, rename over the destination.
func writeTable(path string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("%w: encode header: %v", apperr.ErrPersistence, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("%w: encode rows: %v", apperr.ErrPersistence, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: encode: %v", apperr.ErrPersistence, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", apperr.ErrPersistence, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".vesica-tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", apperr.ErrPersistence, err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: write temp: %v", apperr.ErrPersistence, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: fsync: %v", apperr.ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close temp: %v", apperr.ErrPersistence, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: rename: %v", apperr.ErrPersistence, err)
	}
	success = true
	return nil
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
