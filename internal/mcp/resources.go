package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerResources adds read-only resources that clients can pull into
// their context without a tool call.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			"atelier://portfolio",
			"Published Portfolio",
			mcp.WithResourceDescription(
				"The published portfolio as JSON: titles, slugs, categories, "+
					"tags and links for every live project.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handlePortfolioResource,
	)
}

func (s *MCPServer) handlePortfolioResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	projects, err := s.store.ListProjects(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	b, err := json.MarshalIndent(projects, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal projects: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "atelier://portfolio",
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
