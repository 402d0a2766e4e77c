package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/starford/vesica/internal/normalize"
)

func TestCollect_AllFieldsPresent(t *testing.T) {
	in := strings.NewReader("P-0042\n2024-01-15 10:30\n4.0\n3.0\n5.0\n\npre_void\n\n")
	var out bytes.Buffer
	p := New(in, &out)

	fields, err := p.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got := fields[normalize.FieldPatientID]; got != "P-0042" {
		t.Errorf("patient id = %q", got)
	}
	if got := fields[normalize.FieldVoidedVolumeML]; got != "" {
		t.Errorf("voided volume = %q, want blank answer preserved", got)
	}
	// Every key is supplied, even blank ones; the interactive policy
	// depends on that.
	for _, name := range []string{
		normalize.FieldPatientID, normalize.FieldMeasurementTime,
		normalize.FieldLengthCM, normalize.FieldWidthCM, normalize.FieldDepthCM,
		normalize.FieldVoidedVolumeML, normalize.FieldContext, normalize.FieldNotes,
	} {
		if _, ok := fields[name]; !ok {
			t.Errorf("field %s missing from collected bag", name)
		}
	}
	if !strings.Contains(out.String(), "Patient ID:") {
		t.Errorf("output missing prompt: %q", out.String())
	}
}

func TestCollect_LastLineWithoutNewline(t *testing.T) {
	in := strings.NewReader("P-1\n2024-01-15 10:30\n4\n3\n5\n\n\nfinal note")
	p := New(in, &bytes.Buffer{})
	fields, err := p.Collect()
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if got := fields[normalize.FieldNotes]; got != "final note" {
		t.Errorf("notes = %q", got)
	}
}

func TestConfirm(t *testing.T) {
	cases := map[string]bool{
		"y\n":     true,
		"Y\n":     true,
		"yes\n":   true,
		"n\n":     false,
		"\n":      false,
		"maybe\n": false,
	}
	for input, want := range cases {
		p := New(strings.NewReader(input), &bytes.Buffer{})
		got, err := p.Confirm("Add another?")
		if err != nil {
			t.Fatalf("Confirm(%q): %v", input, err)
		}
		if got != want {
			t.Errorf("Confirm(%q) = %v, want %v", input, got, want)
		}
	}
}
