package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/remind/internal/errors"
	"github.com/hpungsan/remind/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	ledger *ops.Ledger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ledger *ops.Ledger) *Handlers {
	return &Handlers{ledger: ledger}
}

// ParseRequest represents the arguments for parse.
type ParseRequest struct {
	Text    string `json:"text"`
	Explain bool   `json:"explain,omitempty"`
}

// AddRequest represents the arguments for add.
type AddRequest struct {
	Transcript string `json:"transcript"`
	AudioFile  string `json:"audio_file,omitempty"`
}

// ListRequest represents the arguments for list.
type ListRequest struct {
	Reverse bool `json:"reverse,omitempty"`
}

// FetchRequest represents the arguments for fetch.
type FetchRequest struct {
	Index *int `json:"index"`
}

// ExportRequest represents the arguments for export.
type ExportRequest struct {
	Path   string `json:"path,omitempty"`
	Format string `json:"format,omitempty"`
}

// ImportRequest represents the arguments for import.
type ImportRequest struct {
	Path string `json:"path"`
}

// HandleParse handles the parse tool call.
func (h *Handlers) HandleParse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ParseRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Parse(ctx, h.ledger.Config(), ops.ParseInput{
		Text:    input.Text,
		Now:     h.ledger.Now(),
		Explain: input.Explain,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleAdd handles the add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.ledger.Add(ctx, input.AudioFile, input.Transcript)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.List(ctx, h.ledger.DB(), h.ledger.Config(), ops.ListInput{Reverse: input.Reverse})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleLatest handles the latest tool call.
func (h *Handlers) HandleLatest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Latest(ctx, h.ledger.DB(), h.ledger.Config())
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetch handles the fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(err), nil
	}
	if input.Index == nil {
		return errorResult(errors.NewInvalidRequest("index is required")), nil
	}

	result, err := ops.Fetch(ctx, h.ledger.DB(), h.ledger.Config(), ops.FetchInput{Index: *input.Index})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Export(ctx, h.ledger.DB(), h.ledger.Config(), ops.ExportInput{
		Path:   input.Path,
		Format: ops.ExportFormat(input.Format),
		Now:    h.ledger.Now(),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := h.ledger.Import(ctx, input.Path)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are never exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var remErr *errors.ReminderError
	if stderrors.As(err, &remErr) {
		// Keep any wrapping context in front of the message.
		msg := remErr.Message
		if prefix := strings.TrimSuffix(err.Error(), remErr.Error()); prefix != err.Error() {
			msg = prefix + msg
		}
		errorObj := map[string]any{
			"code":    remErr.Code,
			"message": msg,
			"status":  remErr.Status,
		}
		if remErr.Code != errors.ErrInternal && remErr.Details != nil {
			errorObj["details"] = remErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
