package normalize

import (
	"errors"
	"math"
	"testing"

	"github.com/starford/vesica/internal/apperr"
	"github.com/starford/vesica/internal/models"
)

func validFields() Fields {
	return Fields{
		FieldPatientID:       " P-0042 ",
		FieldMeasurementTime: "2024-01-15 10:30",
		FieldLengthCM:        "4.0",
		FieldWidthCM:         "3.0",
		FieldDepthCM:         "5.0",
		FieldVoidedVolumeML:  "",
		FieldContext:         "",
		FieldNotes:           "  post-op check ",
	}
}

func TestNormalize_InteractiveHappyPath(t *testing.T) {
	m, err := Normalize(validFields(), Interactive)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.PatientID != "P-0042" {
		t.Errorf("patient id = %q, want trimmed %q", m.PatientID, "P-0042")
	}
	if got := m.TakenAt.Format(models.TimestampLayout); got != "2024-01-15 10:30" {
		t.Errorf("taken at = %q", got)
	}
	if math.Abs(m.CalculatedVolumeML-31415.93) > 0.01 {
		t.Errorf("calculated volume = %v, want ≈31415.93", m.CalculatedVolumeML)
	}
	if m.VoidedVolumeML != nil {
		t.Errorf("blank voided volume should be nil, got %v", *m.VoidedVolumeML)
	}
	if m.Notes != "post-op check" {
		t.Errorf("notes = %q", m.Notes)
	}
	if m.Source != models.SourceInteractive {
		t.Errorf("source = %q", m.Source)
	}
}

func TestNormalize_ContextDefaultsDifferPerPath(t *testing.T) {
	// Interactive keeps the operator's context verbatim, even empty.
	f := validFields()
	m, err := Normalize(f, Interactive)
	if err != nil {
		t.Fatal(err)
	}
	if m.Context != "" {
		t.Errorf("interactive empty context = %q, want empty", m.Context)
	}

	// Batch defaults blank to "unknown".
	m, err = Normalize(f, BatchImport)
	if err != nil {
		t.Fatal(err)
	}
	if m.Context != models.ContextUnknown {
		t.Errorf("batch empty context = %q, want %q", m.Context, models.ContextUnknown)
	}

	// Batch also applies to a fully absent column.
	delete(f, FieldContext)
	m, err = Normalize(f, BatchImport)
	if err != nil {
		t.Fatal(err)
	}
	if m.Context != models.ContextUnknown {
		t.Errorf("batch absent context = %q, want %q", m.Context, models.ContextUnknown)
	}
}

func TestNormalize_ContextCaseHandlingDiffersPerPath(t *testing.T) {
	f := validFields()
	f[FieldContext] = " Pre_Void "

	m, err := Normalize(f, BatchImport)
	if err != nil {
		t.Fatal(err)
	}
	if m.Context != models.ContextPreVoid {
		t.Errorf("batch context = %q, want lower-cased %q", m.Context, models.ContextPreVoid)
	}

	m, err = Normalize(f, Interactive)
	if err != nil {
		t.Fatal(err)
	}
	if m.Context != "Pre_Void" {
		t.Errorf("interactive context = %q, want operator input preserved", m.Context)
	}
}

func TestNormalize_VoidedVolumeParsed(t *testing.T) {
	f := validFields()
	f[FieldVoidedVolumeML] = "250.5"
	m, err := Normalize(f, BatchImport)
	if err != nil {
		t.Fatal(err)
	}
	if m.VoidedVolumeML == nil || *m.VoidedVolumeML != 250.5 {
		t.Errorf("voided volume = %v, want 250.5", m.VoidedVolumeML)
	}
}

func TestNormalize_AbsentOptionalFields(t *testing.T) {
	f := validFields()
	delete(f, FieldVoidedVolumeML)
	delete(f, FieldNotes)
	m, err := Normalize(f, BatchImport)
	if err != nil {
		t.Fatal(err)
	}
	if m.VoidedVolumeML != nil {
		t.Error("absent voided volume should be nil")
	}
	if m.Notes != "" {
		t.Errorf("absent notes = %q, want empty", m.Notes)
	}
}

func TestNormalize_MissingRequiredField(t *testing.T) {
	for _, name := range []string{FieldPatientID, FieldMeasurementTime, FieldLengthCM, FieldWidthCM, FieldDepthCM} {
		f := validFields()
		delete(f, name)
		_, err := Normalize(f, BatchImport)
		if !errors.Is(err, apperr.ErrMissingColumn) {
			t.Errorf("missing %s: error = %v, want ErrMissingColumn", name, err)
		}
	}
}

func TestNormalize_BadTimestamp(t *testing.T) {
	for _, raw := range []string{"yesterday", "15/01/2024 10:30", "2024-01-15T10:30:00Z", ""} {
		f := validFields()
		f[FieldMeasurementTime] = raw
		_, err := Normalize(f, Interactive)
		if !errors.Is(err, apperr.ErrTimestampParse) {
			t.Errorf("timestamp %q: error = %v, want ErrTimestampParse", raw, err)
		}
	}
}

func TestNormalize_NonNumericDimension(t *testing.T) {
	f := validFields()
	f[FieldWidthCM] = "three"
	_, err := Normalize(f, Interactive)
	if !errors.Is(err, apperr.ErrFieldType) {
		t.Errorf("error = %v, want ErrFieldType", err)
	}

	f = validFields()
	f[FieldVoidedVolumeML] = "a lot"
	_, err = Normalize(f, BatchImport)
	if !errors.Is(err, apperr.ErrFieldType) {
		t.Errorf("voided volume error = %v, want ErrFieldType", err)
	}
}

func TestNormalize_NonPositiveDimensionNeverReachesEstimator(t *testing.T) {
	f := validFields()
	f[FieldDepthCM] = "-5"
	m, err := Normalize(f, Interactive)
	if !errors.Is(err, apperr.ErrInvalidMeasurement) {
		t.Fatalf("error = %v, want ErrInvalidMeasurement", err)
	}
	if m.CalculatedVolumeML != 0 {
		t.Errorf("volume must not be derived for invalid input, got %v", m.CalculatedVolumeML)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	f := validFields()
	f[FieldVoidedVolumeML] = "120"
	a, err := Normalize(f, BatchImport)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Normalize(f, BatchImport)
	if err != nil {
		t.Fatal(err)
	}
	// Pointer fields compare by value here.
	if *a.VoidedVolumeML != *b.VoidedVolumeML {
		t.Error("voided volume differs between identical runs")
	}
	a.VoidedVolumeML, b.VoidedVolumeML = nil, nil
	if a != b {
		t.Errorf("records differ between identical runs:\n%+v\n%+v", a, b)
	}
}
