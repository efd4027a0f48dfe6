package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/remind/internal/clock"
	"github.com/hpungsan/remind/internal/config"
	"github.com/hpungsan/remind/internal/db"
	"github.com/hpungsan/remind/internal/errors"
	"github.com/hpungsan/remind/internal/logger"
	"github.com/hpungsan/remind/internal/ops"
)

// testNow is Wednesday 2024-01-10 09:00 UTC.
var testNow = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

// testSetup creates a temporary database and ledger for testing.
func testSetup(t *testing.T) (*ops.Ledger, func()) {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // Allow temp dirs in tests

	ledger := ops.NewLedger(database, cfg, clock.NewManual(testNow), logger.Discard())
	cleanup := func() {
		database.Close()
	}

	return ledger, cleanup
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func mustAdd(t *testing.T, h *Handlers, transcript string) map[string]any {
	t.Helper()
	result, err := h.HandleAdd(context.Background(), makeRequest(map[string]any{"transcript": transcript}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return parseOutput(t, result)
}

func TestHandleParse(t *testing.T) {
	ledger, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(ledger)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantAlarm string
		errorCode string
	}{
		{
			name:      "korean tomorrow afternoon",
			args:      map[string]any{"text": "내일 오후 3시에 회의"},
			wantAlarm: "2024:1:11:15:0",
		},
		{
			name:      "english next friday",
			args:      map[string]any{"text": "next friday at 3pm"},
			wantAlarm: "2024:1:12:15:0",
		},
		{
			name:      "no time words keeps now",
			args:      map[string]any{"text": "buy milk"},
			wantAlarm: "2024:1:10:9:0",
		},
		{
			name:      "empty text",
			args:      map[string]any{"text": "   "},
			errorCode: "NO_SPEECH",
		},
		{
			name:      "wrong type",
			args:      map[string]any{"text": 42},
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleParse(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if tt.errorCode != "" {
				if !result.IsError {
					t.Fatalf("expected error result, got success")
				}
				assertErrorCode(t, result, tt.errorCode)
				return
			}
			out := parseOutput(t, result)
			if out["alarm_time"] != tt.wantAlarm {
				t.Errorf("alarm_time = %v, want %s", out["alarm_time"], tt.wantAlarm)
			}
		})
	}

	// Parse never writes.
	n, err := ledger.Count(ctx)
	if err != nil || n != 0 {
		t.Errorf("Count() = %d, %v; want 0 after parse", n, err)
	}
}

func TestHandleParse_Explain(t *testing.T) {
	ledger, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(ledger)
	result, err := h.HandleParse(context.Background(), makeRequest(map[string]any{
		"text":    "in 2 hours",
		"explain": true,
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	out := parseOutput(t, result)
	if out["alarm_time"] != "2024:1:10:11:0" {
		t.Errorf("alarm_time = %v, want 2024:1:10:11:0", out["alarm_time"])
	}
	if tokens, ok := out["tokens"].([]any); !ok || len(tokens) == 0 {
		t.Errorf("tokens = %v, want non-empty", out["tokens"])
	}
	if exprs, ok := out["expressions"].([]any); !ok || len(exprs) == 0 {
		t.Errorf("expressions = %v, want non-empty", out["expressions"])
	}
}

func TestHandleAdd(t *testing.T) {
	ledger, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(ledger)
	ctx := context.Background()

	tests := []struct {
		name      string
		args      map[string]any
		wantError bool
		errorCode string
	}{
		{
			name: "add with audio file",
			args: map[string]any{
				"transcript": "다음주 금요일 오후 2시",
				"audio_file": "2024-01-10_090000.000.pcm",
			},
		},
		{
			name: "add without audio file",
			args: map[string]any{"transcript": "tomorrow at 10am dentist"},
		},
		{
			name:      "empty transcript",
			args:      map[string]any{"transcript": ""},
			wantError: true,
			errorCode: "NO_SPEECH",
		},
		{
			name: "audio file with path",
			args: map[string]any{
				"transcript": "내일",
				"audio_file": "../etc/passwd",
			},
			wantError: true,
			errorCode: "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleAdd(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if tt.wantError {
				if !result.IsError {
					t.Errorf("expected error result, got success")
				}
				if tt.errorCode != "" {
					assertErrorCode(t, result, tt.errorCode)
				}
			} else if result.IsError {
				t.Errorf("expected success, got error: %v", extractErrorMessage(result))
			}
		})
	}

	n, err := ledger.Count(ctx)
	if err != nil || n != 2 {
		t.Errorf("Count() = %d, %v; want 2", n, err)
	}
}

func TestHandleListLatestFetch(t *testing.T) {
	ledger, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(ledger)
	ctx := context.Background()

	// Empty log: latest is the null sentinel.
	result, err := h.HandleLatest(ctx, makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if out := parseOutput(t, result); out["item"] != nil {
		t.Errorf("latest on empty log = %v, want null item", out["item"])
	}

	mustAdd(t, h, "내일 오후 3시에 회의")
	mustAdd(t, h, "next friday at 3pm")

	result, _ = h.HandleList(ctx, makeRequest(map[string]any{}))
	out := parseOutput(t, result)
	if out["count"] != float64(2) {
		t.Fatalf("count = %v, want 2", out["count"])
	}
	items := out["items"].([]any)
	first := items[0].(map[string]any)
	if first["alarm_time"] != "2024:1:11:15:0" || first["display"] != "15:00(1월11일)" {
		t.Errorf("first item = %v", first)
	}

	result, _ = h.HandleList(ctx, makeRequest(map[string]any{"reverse": true}))
	items = parseOutput(t, result)["items"].([]any)
	if newest := items[0].(map[string]any); newest["index"] != float64(1) {
		t.Errorf("reverse list first index = %v, want 1", newest["index"])
	}

	result, _ = h.HandleLatest(ctx, makeRequest(nil))
	latest := parseOutput(t, result)["item"].(map[string]any)
	if latest["alarm_time"] != "2024:1:12:15:0" {
		t.Errorf("latest alarm_time = %v, want 2024:1:12:15:0", latest["alarm_time"])
	}

	result, _ = h.HandleFetch(ctx, makeRequest(map[string]any{"index": 0}))
	if fetched := parseOutput(t, result); fetched["transcript"] != "내일 오후 3시에 회의" {
		t.Errorf("fetch transcript = %v", fetched["transcript"])
	}

	for _, args := range []map[string]any{{"index": 2}, {"index": -1}, {}} {
		result, _ = h.HandleFetch(ctx, makeRequest(args))
		if !result.IsError {
			t.Errorf("fetch %v: expected error result", args)
			continue
		}
		assertErrorCode(t, result, "INVALID_REQUEST")
	}
}

func TestHandleExportImport(t *testing.T) {
	ledger, cleanup := testSetup(t)
	defer cleanup()

	h := NewHandlers(ledger)
	ctx := context.Background()
	dir := t.TempDir()

	mustAdd(t, h, "내일 오후 3시에 회의")
	mustAdd(t, h, "in 2 hours call mom")

	jsonlPath := filepath.Join(dir, "reminders.jsonl")
	result, _ := h.HandleExport(ctx, makeRequest(map[string]any{"path": jsonlPath}))
	out := parseOutput(t, result)
	if out["count"] != float64(2) || out["format"] != "jsonl" {
		t.Fatalf("export = %v", out)
	}

	result, _ = h.HandleExport(ctx, makeRequest(map[string]any{"path": filepath.Join(dir, "agenda.html")}))
	if out := parseOutput(t, result); out["format"] != "html" {
		t.Errorf("html export format = %v", out["format"])
	}

	result, _ = h.HandleExport(ctx, makeRequest(map[string]any{"path": filepath.Join(dir, "x.jsonl"), "format": "html"}))
	if !result.IsError {
		t.Error("expected error for format/extension mismatch")
	} else {
		assertErrorCode(t, result, "INVALID_REQUEST")
	}

	result, _ = h.HandleImport(ctx, makeRequest(map[string]any{"path": jsonlPath}))
	imported := parseOutput(t, result)
	if imported["imported"] != float64(2) {
		t.Errorf("imported = %v, want 2", imported["imported"])
	}

	n, _ := ledger.Count(ctx)
	if n != 4 {
		t.Errorf("Count() after import = %d, want 4", n)
	}

	result, _ = h.HandleImport(ctx, makeRequest(map[string]any{"path": filepath.Join(dir, "missing.jsonl")}))
	if !result.IsError {
		t.Error("expected error importing a missing file")
	} else {
		assertErrorCode(t, result, "FILE_NOT_FOUND")
	}
}

func TestHandleList_CancelledContextReturnsCancelled(t *testing.T) {
	ledger, cleanup := testSetup(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewHandlers(ledger).HandleList(ctx, makeRequest(nil))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result for cancelled context")
	}
	assertErrorCode(t, result, "CANCELLED")
}

func TestServerRegistration(t *testing.T) {
	ledger, cleanup := testSetup(t)
	defer cleanup()

	s := NewServer(ledger, "test")
	tools := s.ListTools()
	if tools == nil {
		t.Fatal("expected tools to be registered, got nil")
	}

	expectedTools := []string{
		"reminder_parse",
		"reminder_add",
		"reminder_list",
		"reminder_latest",
		"reminder_fetch",
		"reminder_export",
		"reminder_import",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("registered tool count = %d, want %d", len(tools), len(expectedTools))
	}

	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("missing registered tool: %s", name)
		}
	}
}

func TestServerRegistration_WithDisabledTools(t *testing.T) {
	ledger, cleanup := testSetup(t)
	defer cleanup()

	ledger.Config().DisabledTools = []string{"reminder_import", "reminder_export", "reminder_import"}
	s := NewServer(ledger, "test")
	tools := s.ListTools()

	if len(tools) != 5 {
		t.Errorf("registered tool count = %d, want 5", len(tools))
	}
	for _, name := range []string{"reminder_import", "reminder_export"} {
		if _, ok := tools[name]; ok {
			t.Errorf("disabled tool %q should not be registered", name)
		}
	}
	if _, ok := tools["reminder_parse"]; !ok {
		t.Error("reminder_parse should be registered")
	}
}

func TestServerRegistration_AllToolsDisabled(t *testing.T) {
	ledger, cleanup := testSetup(t)
	defer cleanup()

	ledger.Config().DisabledTools = AllToolNames()
	if tools := NewServer(ledger, "test").ListTools(); len(tools) != 0 {
		t.Errorf("registered tool count = %d, want 0 (all disabled)", len(tools))
	}
}

func TestValidateDisabledTools(t *testing.T) {
	tests := []struct {
		name    string
		input   []string
		wantLen int
	}{
		{"all valid", []string{"reminder_import", "reminder_add"}, 0},
		{"one unknown", []string{"reminder_import", "reminder_delete"}, 1},
		{"all unknown", []string{"foo", "bar", "baz"}, 3},
		{"empty list", []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unknown := ValidateDisabledTools(tt.input)
			if len(unknown) != tt.wantLen {
				t.Errorf("ValidateDisabledTools() returned %d unknown, want %d", len(unknown), tt.wantLen)
			}
		})
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != 7 {
		t.Errorf("AllToolNames() returned %d names, want 7", len(names))
	}
	if unknown := ValidateDisabledTools(names); len(unknown) != 0 {
		t.Errorf("AllToolNames() returned invalid names: %v", unknown)
	}
}

func TestAllToolNames_RegistrationOrder(t *testing.T) {
	names := AllToolNames()
	if names[0] != "reminder_parse" || names[len(names)-1] != "reminder_import" {
		t.Errorf("AllToolNames() = %v, want parse first and import last", names)
	}
}

func TestDecode_RejectsUnknownArgument(t *testing.T) {
	ledger, cleanup := testSetup(t)
	defer cleanup()
	h := NewHandlers(ledger)

	result, err := h.HandleParse(context.Background(), makeRequest(map[string]any{
		"text": "내일 오후 3시",
		"txet": "typo",
	}))
	if err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	assertErrorCode(t, result, "INVALID_REQUEST")
}

func TestDecode_NamesMistypedField(t *testing.T) {
	_, err := decode[FetchRequest](makeRequest(map[string]any{"index": "first"}))
	if err == nil || !strings.Contains(err.Error(), `"index"`) {
		t.Errorf("decode() error = %v, want it to name the index argument", err)
	}
}

func TestErrorResult_InternalDoesNotExposeDetails(t *testing.T) {
	r := errorResult(errors.NewInternal(fmt.Errorf("sql error: open /tmp/secret.db: permission denied")))
	if !r.IsError {
		t.Fatal("expected IsError=true")
	}

	errObj := errorObject(t, r)
	if errObj["code"] != string(errors.ErrInternal) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInternal)
	}
	if _, ok := errObj["details"]; ok {
		t.Fatal("expected INTERNAL errors to omit details")
	}
}

func TestErrorResult_WrappedErrorPreservesContext(t *testing.T) {
	wrappedErr := fmt.Errorf("line 3: %w", errors.NewMalformedTimestamp("2024:13:1:0:0", "month out of range"))

	errObj := errorObject(t, errorResult(wrappedErr))
	if errObj["code"] != string(errors.ErrMalformedTimestamp) {
		t.Errorf("code=%v, want %v", errObj["code"], errors.ErrMalformedTimestamp)
	}
	if msg := errObj["message"].(string); !strings.HasPrefix(msg, "line 3: ") {
		t.Errorf("message should keep the wrapper context, got: %s", msg)
	}
}

func TestErrorResult_PlainErrorIsInternal(t *testing.T) {
	errObj := errorObject(t, errorResult(fmt.Errorf("disk on fire")))
	if errObj["code"] != "INTERNAL" {
		t.Errorf("code=%v, want INTERNAL", errObj["code"])
	}
	if strings.Contains(errObj["message"].(string), "disk") {
		t.Error("plain error text leaked into the message")
	}
}

func TestErrorResult_NonInternalIncludesDetails(t *testing.T) {
	errObj := errorObject(t, errorResult(errors.NewIndexOutOfRange(3, 2)))
	if errObj["code"] != string(errors.ErrInvalidRequest) {
		t.Fatalf("code=%v, want %v", errObj["code"], errors.ErrInvalidRequest)
	}
	if _, ok := errObj["details"]; !ok {
		t.Fatal("expected non-INTERNAL errors to include details when present")
	}
}

// Helper functions

func errorObject(t *testing.T, r *mcp.CallToolResult) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal([]byte(r.Content[0].(mcp.TextContent).Text), &payload); err != nil {
		t.Fatalf("failed to unmarshal error payload: %v", err)
	}
	return payload["error"].(map[string]any)
}

// parseOutput extracts and unmarshals the JSON output from an MCP result.
func parseOutput(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("expected success, got error: %v", extractErrorMessage(result))
	}
	var output map[string]any
	if err := json.Unmarshal([]byte(result.Content[0].(mcp.TextContent).Text), &output); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return output
}

func assertErrorCode(t *testing.T, result *mcp.CallToolResult, expectedCode string) {
	t.Helper()

	if len(result.Content) == 0 {
		t.Errorf("no content in error result")
		return
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Errorf("content is not TextContent")
		return
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Errorf("failed to unmarshal error payload: %v", err)
		return
	}
	errorObj, ok := payload["error"].(map[string]any)
	if !ok {
		t.Errorf("no error object in payload")
		return
	}
	if code, _ := errorObj["code"].(string); code != expectedCode {
		t.Errorf("got error code %q, want %q", code, expectedCode)
	}
}

func extractErrorMessage(result *mcp.CallToolResult) string {
	if len(result.Content) == 0 {
		return "<no content>"
	}

	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		return "<not text content>"
	}

	return text.Text
}
