// Package scanservice coordinates the session store, the ledger, and the
// measurement index behind one API shared by the console, watch, and MCP
// front ends.
package scanservice

import (
	"context"
	"log/slog"
	"os"

	"github.com/starford/vesica/internal/index"
	"github.com/starford/vesica/internal/ingest"
	"github.com/starford/vesica/internal/ledger"
	"github.com/starford/vesica/internal/models"
	"github.com/starford/vesica/internal/normalize"
	"github.com/starford/vesica/internal/store"
)

// Service owns one entry session. It is single-threaded: the session
// store has exactly one owner and flushes hold the single-writer contract
// on the ledger file.
type Service struct {
	store      *store.Store
	ledgerPath string
	db         *index.DB
	logger     *slog.Logger
}

// NewService creates a session service. db may be nil when the caller
// does not need index-backed queries.
func NewService(ledgerPath string, db *index.DB, logger *slog.Logger) *Service {
	return &Service{
		store:      store.New(),
		ledgerPath: ledgerPath,
		db:         db,
		logger:     logger,
	}
}

// Record normalizes one interactively collected field bag and appends the
// result to the session store. Failures abort this record only; the
// front end reports them to the operator.
func (s *Service) Record(_ context.Context, fields normalize.Fields) (models.Measurement, error) {
	m, err := normalize.Normalize(fields, normalize.Interactive)
	if err != nil {
		return models.Measurement{}, err
	}
	s.store.Append(m)
	return m, nil
}

// Import runs the batch importer over path and appends every good row to
// the session store. Rejected rows come back for reporting; a missing
// file propagates apperr.ErrFileNotFound for the caller to surface.
func (s *Service) Import(_ context.Context, path string) ([]models.Measurement, []ingest.RowError, error) {
	recs, rowErrs, err := ingest.ImportFile(path)
	if err != nil {
		return nil, nil, err
	}
	for _, m := range recs {
		s.store.Append(m)
	}
	return recs, rowErrs, nil
}

// Entries returns the session's accumulated measurements in insertion order.
func (s *Service) Entries() []models.Measurement {
	return s.store.List()
}

// EntriesTable renders the session entries as a table in the canonical
// column order, exactly as a flush would write them. An empty session
// still carries the full header.
func (s *Service) EntriesTable() ([]string, [][]string) {
	rows := make([][]string, 0, s.store.Len())
	for _, m := range s.store.List() {
		rows = append(rows, ledger.EncodeRow(m))
	}
	return models.Columns(), rows
}

// Pending reports how many entries the session holds.
func (s *Service) Pending() int {
	return s.store.Len()
}

// Clear drops every in-memory entry. Deliberate and irreversible; it does
// not touch the ledger.
func (s *Service) Clear() {
	s.store.Clear()
	s.logger.Info("session store cleared")
}

// Flush merges the session entries into the ledger (existing rows first)
// and resyncs the index. The store keeps its entries; flushing again
// without clearing appends them again. Returns the ledger's total row
// count after the merge.
func (s *Service) Flush(_ context.Context) (int, error) {
	total, err := ledger.Append(s.ledgerPath, s.store.List())
	if err != nil {
		return 0, err
	}
	s.logger.Info("ledger flushed",
		slog.String("path", s.ledgerPath),
		slog.Int("appended", s.store.Len()),
		slog.Int("total", total))
	if s.db != nil {
		if err := index.Sync(s.db, s.ledgerPath, s.logger); err != nil {
			s.logger.Warn("index sync failed", slog.String("error", err.Error()))
		}
	}
	return total, nil
}

// Ledger reads the persisted table for display. A missing ledger is an
// empty table with the canonical header.
func (s *Service) Ledger() ([]string, [][]string, error) {
	header, rows, err := ledger.Read(s.ledgerPath)
	if os.IsNotExist(err) {
		return models.Columns(), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return header, rows, nil
}

// Search queries the measurement index.
func (s *Service) Search(query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Patient lists the indexed measurements of one patient in ledger order.
func (s *Service) Patient(patientID string) ([]index.Row, error) {
	return s.db.ListByPatient(patientID)
}
