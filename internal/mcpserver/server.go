// Package mcpserver exposes the measurement session as MCP (Model Context
// Protocol) tools over stdio transport. No network listener is involved.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/vesica/internal/normalize"
	"github.com/starford/vesica/internal/scanservice"
)

// Server wraps the MCP server with Vesica tools around one scan session.
type Server struct {
	mcp *server.MCPServer
	svc *scanservice.Service
}

// New creates an MCP server with all Vesica tools registered.
func New(svc *scanservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Vesica",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("record_measurement",
		mcp.WithDescription("Record one bladder-ultrasound measurement in the current session. "+
			"Dimensions are in centimeters; the estimated volume is derived, never supplied."),
		mcp.WithString("patient_id", mcp.Required(), mcp.Description("Patient identifier")),
		mcp.WithString("measurement_time", mcp.Required(), mcp.Description("Measurement time, format 2006-01-02 15:04")),
		mcp.WithString("length_cm", mcp.Required(), mcp.Description("Bladder length in cm")),
		mcp.WithString("width_cm", mcp.Required(), mcp.Description("Bladder width in cm")),
		mcp.WithString("depth_cm", mcp.Required(), mcp.Description("Bladder depth in cm")),
		mcp.WithString("voided_volume_ml", mcp.Description("Optional voided volume in ml")),
		mcp.WithString("context", mcp.Description("Clinical context: pre_void, post_void, or other")),
		mcp.WithString("notes", mcp.Description("Optional free-text notes")),
	), s.recordMeasurement)

	s.mcp.AddTool(mcp.NewTool("import_batch",
		mcp.WithDescription("Import measurements from a CSV batch file into the current session. "+
			"The file must follow the batch format; read it via the get_batch_contract tool or "+
			"the vesica://batch-format resource. Bad rows are skipped and reported."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the CSV batch file")),
	), s.importBatch)

	s.mcp.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List the measurements accumulated in the current session, in entry order."),
	), s.listEntries)

	s.mcp.AddTool(mcp.NewTool("flush_ledger",
		mcp.WithDescription("Append the session's measurements to the durable ledger and resync the index."),
	), s.flushLedger)

	s.mcp.AddTool(mcp.NewTool("search_measurements",
		mcp.WithDescription("Search persisted measurements by patient, context, or notes."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchMeasurements)

	s.mcp.AddTool(mcp.NewTool("patient_history",
		mcp.WithDescription("List all persisted measurements for one patient in ledger order."),
		mcp.WithString("patient_id", mcp.Required(), mcp.Description("Patient identifier")),
	), s.patientHistory)

	s.mcp.AddTool(mcp.NewTool("get_batch_contract",
		mcp.WithDescription("Returns the CSV batch file contract. Call this before composing batch files."),
	), s.getBatchContract)

	s.mcp.AddResource(
		mcp.NewResource("vesica://batch-format", "Batch File Contract",
			mcp.WithResourceDescription("Canonical CSV column contract for batch measurement imports."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readBatchContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) recordMeasurement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fields := normalize.Fields{}
	for _, name := range []string{
		normalize.FieldPatientID, normalize.FieldMeasurementTime,
		normalize.FieldLengthCM, normalize.FieldWidthCM, normalize.FieldDepthCM,
	} {
		v, err := req.RequireString(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		fields[name] = v
	}
	for _, name := range []string{normalize.FieldVoidedVolumeML, normalize.FieldContext, normalize.FieldNotes} {
		if v, err := req.RequireString(name); err == nil {
			fields[name] = v
		}
	}

	m, err := s.svc.Record(ctx, fields)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("recorded %s: %.1f ml (session holds %d entries)",
		m.PatientID, m.CalculatedVolumeML, s.svc.Pending())), nil
}

func (s *Server) importBatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	recs, rowErrs, err := s.svc.Import(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "imported %d measurements from %s\n", len(recs), path)
	for _, re := range rowErrs {
		fmt.Fprintf(&b, "skipped %v\n", re)
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (s *Server) listEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries := s.svc.Entries()
	if len(entries) == 0 {
		return mcp.NewToolResultText("session is empty"), nil
	}
	out, _ := json.MarshalIndent(entries, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) flushLedger(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	total, err := s.svc.Flush(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("ledger now holds %d rows", total)), nil
}

func (s *Server) searchMeasurements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) patientHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	patientID, err := req.RequireString("patient_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rows, err := s.svc.Patient(patientID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no measurements for %s", patientID)), nil
	}
	out, _ := json.MarshalIndent(rows, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getBatchContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(BatchFormatContract), nil
}

func (s *Server) readBatchContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "vesica://batch-format",
			MIMEType: "text/markdown",
			Text:     BatchFormatContract,
		},
	}, nil
}
