package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/vesica/internal/index"
	"github.com/starford/vesica/internal/scanservice"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	dbFile, err := os.CreateTemp("", "vesica-mcp-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	ledgerPath := filepath.Join(t.TempDir(), "measurements.csv")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(scanservice.NewService(ledgerPath, db, logger))
}

func request(name string, args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content type %T", res.Content[0])
	}
	return tc.Text
}

func TestRecordMeasurementTool(t *testing.T) {
	srv := testServer(t)
	ctx := context.Background()

	res, err := srv.recordMeasurement(ctx, request("record_measurement", map[string]interface{}{
		"patient_id":       "P-1",
		"measurement_time": "2024-01-15 10:30",
		"length_cm":        "4",
		"width_cm":         "3",
		"depth_cm":         "5",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", textOf(t, res))
	}
	if got := textOf(t, res); !strings.Contains(got, "31415.9") {
		t.Errorf("result = %q, want derived volume mentioned", got)
	}
}

func TestRecordMeasurementTool_RejectsBadDimensions(t *testing.T) {
	srv := testServer(t)
	res, err := srv.recordMeasurement(context.Background(), request("record_measurement", map[string]interface{}{
		"patient_id":       "P-1",
		"measurement_time": "2024-01-15 10:30",
		"length_cm":        "-4",
		"width_cm":         "3",
		"depth_cm":         "5",
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected tool error for negative dimension")
	}
}

func TestImportFlushAndPatientHistory(t *testing.T) {
	srv := testServer(t)
	ctx := context.Background()

	batch := filepath.Join(t.TempDir(), "batch.csv")
	csv := "patient_id,measurement_time,length_cm,width_cm,depth_cm,notes\n" +
		"P-7,2024-01-15 10:30,4,3,5,post-op retention check\n"
	if err := os.WriteFile(batch, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := srv.importBatch(ctx, request("import_batch", map[string]interface{}{"path": batch}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("import error: %s", textOf(t, res))
	}

	res, err = srv.flushLedger(ctx, request("flush_ledger", nil))
	if err != nil {
		t.Fatal(err)
	}
	if got := textOf(t, res); !strings.Contains(got, "1 rows") {
		t.Errorf("flush result = %q", got)
	}

	res, err = srv.patientHistory(ctx, request("patient_history", map[string]interface{}{"patient_id": "P-7"}))
	if err != nil {
		t.Fatal(err)
	}
	if got := textOf(t, res); !strings.Contains(got, "P-7") {
		t.Errorf("history = %q", got)
	}
}

func TestImportBatchTool_MissingFile(t *testing.T) {
	srv := testServer(t)
	res, err := srv.importBatch(context.Background(), request("import_batch", map[string]interface{}{
		"path": filepath.Join(t.TempDir(), "absent.csv"),
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected tool error for missing file")
	}
}

func TestListEntriesTool_EmptySession(t *testing.T) {
	srv := testServer(t)
	res, err := srv.listEntries(context.Background(), request("list_entries", nil))
	if err != nil {
		t.Fatal(err)
	}
	if got := textOf(t, res); got != "session is empty" {
		t.Errorf("result = %q", got)
	}
}

func TestGetBatchContractTool(t *testing.T) {
	srv := testServer(t)
	res, err := srv.getBatchContract(context.Background(), request("get_batch_contract", nil))
	if err != nil {
		t.Fatal(err)
	}
	if got := textOf(t, res); !strings.Contains(got, "measurement_time") {
		t.Errorf("contract = %q", got)
	}
}
