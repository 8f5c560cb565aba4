// Package mcpserver offers the deskmate tool registry over the Model Context
// Protocol on stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/GoCodeAlone/deskmate/plugin"
	"github.com/GoCodeAlone/deskmate/tools"
)

const instructions = `deskmate manages an Obsidian task vault and a Gmail inbox.
Task tools keep the Kanban board in step with task files. inbox_triage labels
unread mail and drafts replies but never sends anything. Every tool returns
JSON; failures carry an "error" message and a "kind".`

// New builds an MCP server exposing every tool in reg.
func New(reg *tools.Registry, version string, logger *slog.Logger) (*server.MCPServer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := server.NewMCPServer(
		"deskmate",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	for _, t := range reg.Tools() {
		def, err := toolDefinition(t)
		if err != nil {
			return nil, err
		}
		s.AddTool(def, Handler(reg, t.Name(), logger))
	}
	return s, nil
}

func toolDefinition(t plugin.Tool) (mcp.Tool, error) {
	schema, err := json.Marshal(t.Definition().Parameters)
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("marshal %s schema: %w", t.Name(), err)
	}
	return mcp.NewToolWithRawSchema(t.Name(), t.Description(), schema), nil
}

// Handler adapts one registry tool to an MCP tool handler. The payload,
// result or error, is returned as JSON text; errors also set IsError.
func Handler(reg *tools.Registry, name string, logger *slog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload, ok := reg.Call(ctx, name, req.GetArguments())
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s result: %w", name, err)
		}
		if !ok {
			logger.Warn("tool failed", slog.String("tool", name), slog.Any("payload", payload))
			return mcp.NewToolResultError(string(data)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// Serve runs s on stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
