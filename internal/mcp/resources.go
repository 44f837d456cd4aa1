package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const blockURIPrefix = "boardx://block/"

func (s *Server) registerResources() {
	// ── boardx://block/{id} ────────────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			blockURIPrefix+"{id}",
			"Block",
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleBlockResource,
	)
}

func (s *Server) handleBlockResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := strings.TrimPrefix(uri, blockURIPrefix)
	if id == "" || id == uri {
		return nil, fmt.Errorf("invalid block URI: %s", uri)
	}

	b, err := s.blocks.GetBlock(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
