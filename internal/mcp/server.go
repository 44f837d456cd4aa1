package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"boardx/internal/service"
)

// Server is the MCP server for the board.
// It exposes tools and resources so AI agents can read and edit blocks.
// Writes land in the shared SQLite file; a running board picks them up
// through its database watcher.
type Server struct {
	mcp    *server.MCPServer
	layout *LayoutEngine
	blocks *service.BlockService
	logger *logrus.Logger
}

// New creates and configures a new MCP server with all tools and resources.
func New(blocks *service.BlockService, logger *logrus.Logger) *Server {
	s := &Server{
		layout: NewLayoutEngine(),
		blocks: blocks,
		logger: logger,
	}

	s.mcp = server.NewMCPServer(
		"boardx-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerBlockTools()
	s.registerResources()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}
