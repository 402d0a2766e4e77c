package index

import (
	"database/sql"
	"fmt"
)

// Row is one indexed ledger row. Seq is the 1-based data row position in
// the ledger, which doubles as the stable ordering key. Numeric cells
// that failed to parse during sync stay NULL rather than failing the
// whole rebuild.
type Row struct {
	Seq                int
	PatientID          string
	TakenAt            string
	LengthCM           sql.NullFloat64
	WidthCM            sql.NullFloat64
	DepthCM            sql.NullFloat64
	VoidedVolumeML     sql.NullFloat64
	Context            string
	Notes              string
	CalculatedVolumeML sql.NullFloat64
	Source             string
}

// SearchResult is one search hit.
type SearchResult struct {
	Seq       int
	PatientID string
	TakenAt   string
	Snippet   string
}

const metaLedgerChecksum = "ledger_checksum"

// ReplaceAll rebuilds the index from a full ledger snapshot inside one
// transaction and records the ledger checksum the snapshot came from.
func (db *DB) ReplaceAll(rows []Row, ledgerChecksum string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(`DELETE FROM measurements`); err != nil {
		return fmt.Errorf("index: clear measurements: %w", err)
	}
	if err := ftsClear(tx); err != nil {
		return err
	}

	if len(rows) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO measurements
				(seq, patient_id, taken_at, length_cm, width_cm, depth_cm,
				 voided_volume_ml, context, notes, calculated_volume_ml, source)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("index: prepare insert: %w", err)
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.Exec(r.Seq, r.PatientID, r.TakenAt, r.LengthCM, r.WidthCM, r.DepthCM,
				r.VoidedVolumeML, r.Context, r.Notes, r.CalculatedVolumeML, r.Source); err != nil {
				return fmt.Errorf("index: insert row %d: %w", r.Seq, err)
			}
			if err := ftsInsert(tx, r); err != nil {
				return err
			}
		}
	}

	if _, err := tx.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaLedgerChecksum, ledgerChecksum); err != nil {
		return fmt.Errorf("index: store checksum: %w", err)
	}

	return tx.Commit()
}

// LedgerChecksum returns the checksum recorded by the last ReplaceAll, or
// "" when the index has never been synced.
func (db *DB) LedgerChecksum() (string, error) {
	var v string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, metaLedgerChecksum).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: read checksum: %w", err)
	}
	return v, nil
}

// ListByPatient returns every indexed measurement for one patient in
// ledger order.
func (db *DB) ListByPatient(patientID string) ([]Row, error) {
	rows, err := db.conn.Query(`
		SELECT seq, patient_id, taken_at, length_cm, width_cm, depth_cm,
		       voided_volume_ml, context, notes, calculated_volume_ml, source
		FROM measurements
		WHERE patient_id = ?
		ORDER BY seq
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("index: list by patient: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Seq, &r.PatientID, &r.TakenAt, &r.LengthCM, &r.WidthCM, &r.DepthCM,
			&r.VoidedVolumeML, &r.Context, &r.Notes, &r.CalculatedVolumeML, &r.Source); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the number of indexed measurements.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM measurements`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}
