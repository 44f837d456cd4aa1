package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardx/internal/domain"
	"boardx/internal/service"
	"boardx/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Setup(context.Background()))

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return New(service.NewBlockService(storage.NewBlockStore(db), ""), logger)
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func decodeBlock(t *testing.T, res *mcp.CallToolResult) domain.SavedBlock {
	t.Helper()
	var b domain.SavedBlock
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &b))
	return b
}

func TestCreateLabel_ExplicitPosition(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleCreateLabel(ctx, call("create_label", map[string]any{"x": 120.0, "y": 80.0, "text": "hello"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	b := decodeBlock(t, res)
	assert.Equal(t, domain.BlockTypeLabel, b.Type)
	assert.Equal(t, "hello", b.Text)
	assert.Equal(t, 120.0, b.X)
	assert.Equal(t, 80.0, b.Y)

	stored, err := s.blocks.GetBlock(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, *stored)
}

func TestCreateLabel_AutoPlacementAvoidsExisting(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	first, err := s.handleCreateLabel(ctx, call("create_label", map[string]any{}))
	require.NoError(t, err)
	a := decodeBlock(t, first)
	assert.Equal(t, service.DefaultPlaceholder, a.Text)
	assert.Equal(t, 0.0, a.X)
	assert.Equal(t, 0.0, a.Y)

	second, err := s.handleCreateLabel(ctx, call("create_label", map[string]any{"text": "next"}))
	require.NoError(t, err)
	b := decodeBlock(t, second)

	boxA := domain.Rect{MinX: a.X, MinY: a.Y, MaxX: a.X + UnmeasuredW, MaxY: a.Y + UnmeasuredH}
	boxB := domain.Rect{MinX: b.X, MinY: b.Y, MaxX: b.X + UnmeasuredW, MaxY: b.Y + UnmeasuredH}
	assert.False(t, boxA.Intersects(boxB), "auto-placed labels overlap: %+v %+v", a, b)
}

func TestQueryBlocks(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	_, err := s.blocks.CreateLabel(ctx, 10, 10, "in")
	require.NoError(t, err)
	_, err = s.blocks.CreateLabel(ctx, 5000, 5000, "out")
	require.NoError(t, err)

	res, err := s.handleQueryBlocks(ctx, call("query_blocks", map[string]any{
		"minX": 0.0, "minY": 0.0, "maxX": 100.0, "maxY": 100.0,
	}))
	require.NoError(t, err)
	var blocks []domain.SavedBlock
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &blocks))
	require.Len(t, blocks, 1)
	assert.Equal(t, "in", blocks[0].Text)

	res, err = s.handleQueryBlocks(ctx, call("query_blocks", map[string]any{
		"minX": 100.0, "minY": 0.0, "maxX": 0.0, "maxY": 100.0,
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError, "inverted rectangle is rejected")
}

func TestMoveAndEdit(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	b, err := s.blocks.CreateLabel(ctx, 0, 0, "")
	require.NoError(t, err)

	res, err := s.handleMoveBlock(ctx, call("move_block", map[string]any{"id": b.ID, "x": 300.0, "y": -40.0}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	res, err = s.handleEditBlockText(ctx, call("edit_block_text", map[string]any{"id": b.ID, "text": "moved"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))

	res, err = s.handleGetBlock(ctx, call("get_block", map[string]any{"id": b.ID}))
	require.NoError(t, err)
	got := decodeBlock(t, res)
	assert.Equal(t, 300.0, got.X)
	assert.Equal(t, -40.0, got.Y)
	assert.Equal(t, "moved", got.Text)
}

func TestUnknownBlockIsToolError(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleGetBlock(ctx, call("get_block", map[string]any{"id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleMoveBlock(ctx, call("move_block", map[string]any{"id": "missing", "x": 1.0, "y": 1.0}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleEditBlockText(ctx, call("edit_block_text", map[string]any{"id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError, "text is required")
}

func TestBlockResource(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	b, err := s.blocks.CreateLabel(ctx, 1, 2, "res")
	require.NoError(t, err)

	var req mcp.ReadResourceRequest
	req.Params.URI = blockURIPrefix + b.ID
	contents, err := s.handleBlockResource(ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Contains(t, text.Text, `"res"`)

	req.Params.URI = "boardx://other/x"
	_, err = s.handleBlockResource(ctx, req)
	assert.Error(t, err)
}
