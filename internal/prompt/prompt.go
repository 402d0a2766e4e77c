// Package prompt is the interactive front end: it collects raw field
// values from the operator and reports outcomes. It never interprets the
// values itself; normalization and validation stay in the core.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/starford/vesica/internal/models"
	"github.com/starford/vesica/internal/normalize"
)

// Prompter reads operator input line by line and writes prompts and
// status output.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// New wraps the given streams.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Collect prompts for one measurement, field by field, and returns the
// raw bag. Every key is present in the result; blank answers surface as
// supplied-but-empty fields, which is exactly what the interactive
// normalization policy expects.
func (p *Prompter) Collect() (normalize.Fields, error) {
	fmt.Fprintln(p.out, "=== Ultrasound Measurement Entry ===")

	fields := normalize.Fields{}
	prompts := []struct {
		field string
		label string
	}{
		{normalize.FieldPatientID, "Patient ID"},
		{normalize.FieldMeasurementTime, fmt.Sprintf("Measurement time (%s)", models.TimestampLayout)},
		{normalize.FieldLengthCM, "Length (cm)"},
		{normalize.FieldWidthCM, "Width (cm)"},
		{normalize.FieldDepthCM, "Depth (cm)"},
		{normalize.FieldVoidedVolumeML, "Voided volume (ml, press Enter if none)"},
		{normalize.FieldContext, "Context (pre_void/post_void/other)"},
		{normalize.FieldNotes, "Notes (optional)"},
	}
	for _, q := range prompts {
		answer, err := p.ask(q.label)
		if err != nil {
			return nil, err
		}
		fields[q.field] = answer
	}
	return fields, nil
}

// Confirm asks a yes/no question and defaults to no.
func (p *Prompter) Confirm(question string) (bool, error) {
	answer, err := p.ask(question + " [y/N]")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

// ReportAdded prints the success line for a normalized record.
func (p *Prompter) ReportAdded(m models.Measurement) {
	fmt.Fprintf(p.out, "%s added entry: %.1f ml\n",
		color.New(color.FgGreen).Sprint("✓"), m.CalculatedVolumeML)
}

// ReportError prints a rejected-record line. The session continues; the
// operator decides whether to re-enter the measurement.
func (p *Prompter) ReportError(err error) {
	fmt.Fprintf(p.out, "%s %v\n", color.New(color.FgRed).Sprint("✗"), err)
}

func (p *Prompter) ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("prompt: read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
