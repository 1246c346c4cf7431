// Package mcp exposes the portfolio and inbox to MCP clients, so an agent
// can manage site content without going through the HTTP API.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/atelierhq/atelier/internal/config"
)

// MCPServer wraps the mcp-go server with the site's tool and resource
// registrations.
type MCPServer struct {
	store  *config.Store
	logger *slog.Logger
	server *server.MCPServer
}

// NewMCPServer creates an MCPServer with all tools and resources loaded,
// ready to serve over stdio or HTTP.
func NewMCPServer(store *config.Store, logger *slog.Logger, version string) *MCPServer {
	s := &MCPServer{store: store, logger: logger}

	mcpServer := server.NewMCPServer(
		"Atelier Site",
		version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)
	s.registerResources(mcpServer)
	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go server, mainly for tests.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio runs the server over stdio, the subprocess integration path.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP runs the server in Streamable HTTP mode on addr.
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr)
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}
}

func mutatingAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{ReadOnlyHint: boolPtr(false)}
}

func boolPtr(b bool) *bool { return &b }
