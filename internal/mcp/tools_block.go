package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"boardx/internal/domain"
)

func (s *Server) registerBlockTools() {
	s.mcp.AddTool(mcp.NewTool("query_blocks",
		mcp.WithDescription("List the blocks whose box intersects a world-space rectangle. Edges are inclusive."),
		mcp.WithNumber("minX", mcp.Description("Left edge"), mcp.Required()),
		mcp.WithNumber("minY", mcp.Description("Top edge"), mcp.Required()),
		mcp.WithNumber("maxX", mcp.Description("Right edge"), mcp.Required()),
		mcp.WithNumber("maxY", mcp.Description("Bottom edge"), mcp.Required()),
	), s.handleQueryBlocks)

	s.mcp.AddTool(mcp.NewTool("get_block",
		mcp.WithDescription("Get a single block by ID"),
		mcp.WithString("id", mcp.Description("Block ID"), mcp.Required()),
	), s.handleGetBlock)

	s.mcp.AddTool(mcp.NewTool("create_label",
		mcp.WithDescription("Create a text label. If x and y are omitted the label is placed in the first free spot near the origin."),
		mcp.WithString("text", mcp.Description("Label text (defaults to the placeholder)")),
		mcp.WithNumber("x", mcp.Description("World X")),
		mcp.WithNumber("y", mcp.Description("World Y")),
	), s.handleCreateLabel)

	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block to a new world position"),
		mcp.WithString("id", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New world X"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New world Y"), mcp.Required()),
	), s.handleMoveBlock)

	s.mcp.AddTool(mcp.NewTool("edit_block_text",
		mcp.WithDescription("Replace the text of a block"),
		mcp.WithString("id", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("text", mcp.Description("New text"), mcp.Required()),
	), s.handleEditBlockText)
}

// toolError turns a service error into a tool-level error result so the agent
// sees the message; unexpected failures are also logged.
func (s *Server) toolError(op string, err error) *mcp.CallToolResult {
	if errors.Is(err, domain.ErrNotFound) {
		return mcp.NewToolResultError(err.Error())
	}
	s.logger.WithError(err).WithField("tool", op).Error("[MCP] tool failed")
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", op, err))
}

func (s *Server) handleQueryBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r := domain.Rect{
		MinX: req.GetFloat("minX", 0),
		MinY: req.GetFloat("minY", 0),
		MaxX: req.GetFloat("maxX", 0),
		MaxY: req.GetFloat("maxY", 0),
	}
	blocks, err := s.blocks.Query(ctx, r)
	if err != nil {
		return s.toolError("query_blocks", err), nil
	}
	return jsonResult(blocks)
}

func (s *Server) handleGetBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	b, err := s.blocks.GetBlock(ctx, id)
	if err != nil {
		return s.toolError("get_block", err), nil
	}
	return jsonResult(b)
}

func (s *Server) handleCreateLabel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	args := req.GetArguments()
	_, hasX := args["x"]
	_, hasY := args["y"]
	pos := domain.Point{X: req.GetFloat("x", 0), Y: req.GetFloat("y", 0)}

	if !hasX || !hasY {
		nearby, err := s.blocks.Query(ctx, s.layout.SearchArea(pos))
		if err != nil {
			return s.toolError("create_label", err), nil
		}
		pos = s.layout.NextPosition(nearby, pos, domain.Size{Width: UnmeasuredW, Height: UnmeasuredH})
	}

	b, err := s.blocks.CreateLabel(ctx, pos.X, pos.Y, text)
	if err != nil {
		return s.toolError("create_label", err), nil
	}
	s.logger.WithField("id", b.ID).Debug("[MCP] label created")
	return jsonResult(b)
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	x, err := req.RequireFloat("x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := req.RequireFloat("y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.blocks.Move(ctx, id, x, y); err != nil {
		return s.toolError("move_block", err), nil
	}
	return textResult(fmt.Sprintf("Moved %s to (%.0f, %.0f)", id, x, y)), nil
}

func (s *Server) handleEditBlockText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.blocks.EditText(ctx, id, text); err != nil {
		return s.toolError("edit_block_text", err), nil
	}
	return textResult(fmt.Sprintf("Updated text of %s", id)), nil
}
