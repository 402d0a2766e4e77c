//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS measurements_fts USING fts5(
			seq UNINDEXED,
			patient_id,
			context,
			notes,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsClear(tx *sql.Tx) error {
	if _, err := tx.Exec(`DELETE FROM measurements_fts`); err != nil {
		return fmt.Errorf("index: clear fts: %w", err)
	}
	return nil
}

func ftsInsert(tx *sql.Tx, r Row) error {
	_, err := tx.Exec(`INSERT INTO measurements_fts (seq, patient_id, context, notes) VALUES (?, ?, ?, ?)`,
		r.Seq, r.PatientID, r.Context, r.Notes)
	if err != nil {
		return fmt.Errorf("index: insert fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 search over patient, context, and notes.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT f.seq,
		       f.patient_id,
		       m.taken_at,
		       snippet(measurements_fts, 3, '<b>', '</b>', '...', 32)
		FROM measurements_fts f
		JOIN measurements m ON m.seq = f.seq
		WHERE measurements_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Seq, &r.PatientID, &r.TakenAt, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
