package index

import (
	"database/sql"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/starford/vesica/internal/checksum"
	"github.com/starford/vesica/internal/ledger"
)

// Sync rebuilds the index from the ledger file when its content changed.
// The ledger checksum recorded at the last rebuild gates the work: an
// unchanged file is a no-op. A missing ledger empties the index. Cells
// are mapped by header name, so files written by an older schema index
// whatever columns they do have.
func Sync(db *DB, ledgerPath string, logger *slog.Logger) error {
	data, err := os.ReadFile(ledgerPath)
	if os.IsNotExist(err) {
		return db.ReplaceAll(nil, "")
	}
	if err != nil {
		return err
	}

	sum := checksum.Sum(data)
	last, err := db.LedgerChecksum()
	if err != nil {
		return err
	}
	if sum == last {
		logger.Debug("index: ledger unchanged, skipping sync")
		return nil
	}

	header, rawRows, err := ledger.Read(ledgerPath)
	if err != nil {
		return err
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	rows := make([]Row, 0, len(rawRows))
	for i, raw := range rawRows {
		cell := func(name string) string {
			j, ok := col[name]
			if !ok || j >= len(raw) {
				return ""
			}
			return raw[j]
		}
		rows = append(rows, Row{
			Seq:                i + 1,
			PatientID:          cell("patient_id"),
			TakenAt:            cell("measurement_time"),
			LengthCM:           nullFloat(cell("length_cm")),
			WidthCM:            nullFloat(cell("width_cm")),
			DepthCM:            nullFloat(cell("depth_cm")),
			VoidedVolumeML:     nullFloat(cell("voided_volume_ml")),
			Context:            cell("context"),
			Notes:              cell("notes"),
			CalculatedVolumeML: nullFloat(cell("calculated_volume_ml")),
			Source:             cell("source"),
		})
	}

	if err := db.ReplaceAll(rows, sum); err != nil {
		return err
	}
	logger.Info("index: synced from ledger", slog.Int("rows", len(rows)))
	return nil
}

func nullFloat(s string) sql.NullFloat64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullFloat64{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}
