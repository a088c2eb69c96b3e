package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hpungsan/satchel/internal/ops"
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
// The stdio surface is read-only; ingestion and deletion stay on HTTP where
// requests carry a verified identity.
var toolRegistry = map[string]toolEntry{
	"artifact_list": {
		def:     listToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleList },
	},
	"artifact_get": {
		def:     getToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleGet },
	},
	"artifact_list_files": {
		def:     listFilesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleListFiles },
	},
	"artifact_read_file": {
		def:     readFileToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleReadFile },
	},
}

// AllToolNames returns a list of all valid tool names.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	return names
}

// NewServer creates a new MCP server with the artifact tools registered,
// acting as userID on every call.
func NewServer(env *ops.Env, userID, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"satchel",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(env, userID)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(env *ops.Env, userID, version string) error {
	s := NewServer(env, userID, version)
	return server.ServeStdio(s)
}

// ToolHandlerFunc is the signature for tool handlers.
type ToolHandlerFunc func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
