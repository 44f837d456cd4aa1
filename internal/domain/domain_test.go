package domain_test

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardx/internal/domain"
)

func TestBoardState_AddKeepsOrderAndMapsInSync(t *testing.T) {
	s := domain.NewBoardState()
	s.Add(domain.Block{ID: "a", Type: domain.BlockTypeLabel, Text: "first"}, domain.BlockPosition{X: 1, Y: 2})
	s.Add(domain.Block{ID: "b", Type: domain.BlockTypeLabel}, domain.BlockPosition{X: 3, Y: 4})
	s.Add(domain.Block{ID: "a", Type: domain.BlockTypeLabel, Text: "replaced"}, domain.BlockPosition{X: 5, Y: 6})

	assert.Equal(t, []string{"a", "b"}, s.IDs)
	require.Equal(t, 2, s.Len())
	for _, id := range s.IDs {
		_, okB := s.Block(id)
		p, okP := s.Position(id)
		assert.True(t, okB)
		assert.True(t, okP)
		assert.Equal(t, id, p.ID)
	}
	b, _ := s.Block("a")
	assert.Equal(t, "replaced", b.Text)
}

func TestBoardState_FromSavedLeavesSizesEmpty(t *testing.T) {
	s := domain.BoardStateFromSaved([]domain.SavedBlock{
		{ID: "x", Type: domain.BlockTypeLabel, Text: "hi", X: 10, Y: 20, Width: 50, Height: 30},
	})
	p, ok := s.Position("x")
	require.True(t, ok)
	assert.Equal(t, domain.Size{Width: 50, Height: 30}, p.Size)
	assert.Empty(t, s.Sizes)
}

func TestBoardState_SettersRejectUnknownIDs(t *testing.T) {
	s := domain.NewBoardState()
	assert.False(t, s.SetPosition("ghost", 1, 1))
	assert.False(t, s.SetSize("ghost", domain.Size{Width: 1}))
	assert.False(t, s.SetText("ghost", "boo"))
}

func TestViewState_ExpandedAndTransforms(t *testing.T) {
	v := domain.NewViewState(domain.Point{X: 100, Y: 200}, domain.Size{Width: 800, Height: 600})
	assert.Equal(t, domain.Point{X: 900, Y: 800}, v.Viewport)

	r := v.Expanded(300)
	assert.Equal(t, domain.Rect{MinX: -200, MinY: -100, MaxX: 1200, MaxY: 1100}, r)
	assert.True(t, r.Contains(domain.Point{X: -200, Y: 1100}))
	assert.False(t, r.Contains(domain.Point{X: -201, Y: 0}))

	w := v.ToWorld(domain.Point{X: 10, Y: 10})
	assert.Equal(t, domain.Point{X: 110, Y: 210}, w)
	assert.Equal(t, domain.Point{X: 10, Y: 10}, v.ToScreen(w))

	v.Pan(domain.Point{X: -50, Y: 25})
	assert.Equal(t, domain.Size{Width: 800, Height: 600}, v.Screen())
}

func TestViewState_ResizeClampsNegative(t *testing.T) {
	v := domain.NewViewState(domain.Point{X: 5, Y: 5}, domain.Size{Width: -10, Height: -1})
	assert.Equal(t, v.Offset, v.Viewport)
}

func TestStorageError_Unwraps(t *testing.T) {
	err := domain.NewStorageError("insert", io.ErrUnexpectedEOF)
	var se *domain.StorageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "insert", se.Op)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NoError(t, domain.NewStorageError("noop", nil))
}
