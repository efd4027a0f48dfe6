package mcp

import (
	"slices"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/remind/internal/ops"
)

type tool struct {
	def  mcp.Tool
	bind func(*Handlers) server.ToolHandlerFunc
}

// tools is the registration order seen by clients.
var tools = []tool{
	{parseToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleParse }},
	{addToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleAdd }},
	{listToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleList }},
	{latestToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleLatest }},
	{fetchToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleFetch }},
	{exportToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleExport }},
	{importToolDef, func(h *Handlers) server.ToolHandlerFunc { return h.HandleImport }},
}

// AllToolNames returns every tool name in registration order.
func AllToolNames() []string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.def.Name
	}
	return names
}

// ValidateDisabledTools returns the entries of names that are not tools.
func ValidateDisabledTools(names []string) []string {
	known := AllToolNames()
	var unknown []string
	for _, name := range names {
		if !slices.Contains(known, name) {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// NewServer builds the reminder MCP server, skipping the ledger config's
// disabled_tools.
func NewServer(ledger *ops.Ledger, version string) *server.MCPServer {
	s := server.NewMCPServer("remind", version, server.WithToolCapabilities(true))

	h := NewHandlers(ledger)
	disabled := ledger.Config().DisabledTools
	for _, t := range tools {
		if slices.Contains(disabled, t.def.Name) {
			continue
		}
		s.AddTool(t.def, t.bind(h))
	}
	return s
}

// Run serves the reminder tools over stdio until stdin closes.
func Run(ledger *ops.Ledger, version string) error {
	return server.ServeStdio(NewServer(ledger, version))
}
