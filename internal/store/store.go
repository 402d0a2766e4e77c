// Package store holds the in-memory working set of a single entry session.
package store

import "github.com/starford/vesica/internal/models"

// Store is an append-only ordered sequence of normalized measurements,
// owned by exactly one session. It is not safe for concurrent use; the
// session runs single-threaded by design.
type Store struct {
	entries []models.Measurement
}

// New returns an empty session store.
func New() *Store {
	return &Store{}
}

// Append adds one measurement to the end of the sequence.
func (s *Store) Append(m models.Measurement) {
	s.entries = append(s.entries, m)
}

// List returns the entries in insertion order. The returned slice is a
// copy; mutating it does not affect the store.
func (s *Store) List() []models.Measurement {
	out := make([]models.Measurement, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len reports the number of accumulated entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Clear empties the store. Irreversible, and the only way entries are
// destroyed in memory; flushing does not clear.
func (s *Store) Clear() {
	s.entries = nil
}
