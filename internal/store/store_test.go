package store

import (
	"testing"
	"time"

	"github.com/starford/vesica/internal/models"
)

func sample(patientID string) models.Measurement {
	return models.Measurement{
		PatientID:          patientID,
		TakenAt:            time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		LengthCM:           4,
		WidthCM:            3,
		DepthCM:            5,
		Context:            models.ContextPreVoid,
		CalculatedVolumeML: 31415.93,
		Source:             models.SourceInteractive,
	}
}

func TestStore_AppendPreservesInsertionOrder(t *testing.T) {
	s := New()
	s.Append(sample("P-1"))
	s.Append(sample("P-2"))
	s.Append(sample("P-3"))

	got := s.List()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for i, want := range []string{"P-1", "P-2", "P-3"} {
		if got[i].PatientID != want {
			t.Errorf("entry %d = %q, want %q", i, got[i].PatientID, want)
		}
	}
}

func TestStore_ListReturnsCopy(t *testing.T) {
	s := New()
	s.Append(sample("P-1"))
	view := s.List()
	view[0].PatientID = "tampered"
	if s.List()[0].PatientID != "P-1" {
		t.Error("mutating the listed view leaked into the store")
	}
}

func TestStore_ClearEmptiesTheSession(t *testing.T) {
	s := New()
	s.Append(sample("P-1"))
	s.Append(sample("P-2"))
	s.Clear()
	if s.Len() != 0 {
		t.Errorf("len after clear = %d, want 0", s.Len())
	}
	if got := s.List(); len(got) != 0 {
		t.Errorf("list after clear = %v, want empty", got)
	}
}
