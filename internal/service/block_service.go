package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"boardx/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Block Service: business logic for board blocks
// ─────────────────────────────────────────────────────────────

// DefaultPlaceholder is the text given to a label created without any.
const DefaultPlaceholder = "Edit this text"

// BlockService manages the lifecycle of board blocks.
type BlockService struct {
	store       domain.BlockStore
	placeholder string
}

// NewBlockService creates a BlockService. An empty placeholder falls back to DefaultPlaceholder.
func NewBlockService(store domain.BlockStore, placeholder string) *BlockService {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return &BlockService{store: store, placeholder: placeholder}
}

// NewLabel builds an unsaved label at world position (x, y) with a fresh id.
func (s *BlockService) NewLabel(x, y float64, text string) domain.SavedBlock {
	if text == "" {
		text = s.placeholder
	}
	return domain.SavedBlock{
		ID:   uuid.New().String(),
		Type: domain.BlockTypeLabel,
		Text: text,
		X:    x,
		Y:    y,
	}
}

// CreateLabel builds and persists a new label.
func (s *BlockService) CreateLabel(ctx context.Context, x, y float64, text string) (domain.SavedBlock, error) {
	b := s.NewLabel(x, y, text)
	if err := s.store.Insert(ctx, b); err != nil {
		return domain.SavedBlock{}, fmt.Errorf("create label: %w", err)
	}
	return b, nil
}

// Insert persists a block built elsewhere (e.g. locally on the board).
func (s *BlockService) Insert(ctx context.Context, b domain.SavedBlock) error {
	if !b.Type.Valid() {
		return fmt.Errorf("insert block %s: unknown type %q", b.ID, b.Type)
	}
	return s.store.Insert(ctx, b)
}

// GetBlock returns a block by ID.
func (s *BlockService) GetBlock(ctx context.Context, id string) (*domain.SavedBlock, error) {
	return s.store.Get(ctx, id)
}

// Query returns the blocks intersecting r.
func (s *BlockService) Query(ctx context.Context, r domain.Rect) ([]domain.SavedBlock, error) {
	if r.MinX > r.MaxX || r.MinY > r.MaxY {
		return nil, fmt.Errorf("query: inverted rectangle %+v", r)
	}
	return s.store.QueryByBounds(ctx, r)
}

func (s *BlockService) Move(ctx context.Context, id string, x, y float64) error {
	return s.store.UpdatePosition(ctx, id, x, y)
}

func (s *BlockService) Resize(ctx context.Context, id string, width, height float64) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("resize %s: negative size %.0fx%.0f", id, width, height)
	}
	return s.store.UpdateSize(ctx, id, width, height)
}

func (s *BlockService) EditText(ctx context.Context, id, text string) error {
	return s.store.UpdateText(ctx, id, text)
}
