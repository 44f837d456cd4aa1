package domain

import "context"

type BlockType string

const (
	BlockTypeLabel BlockType = "label"
	// BlockTypeButton is persisted and loaded but has no interactive behavior.
	BlockTypeButton BlockType = "button"
)

// Valid reports whether t is a known block type.
func (t BlockType) Valid() bool {
	return t == BlockTypeLabel || t == BlockTypeButton
}

// Block is the content half of a board item: what it is and what it says.
type Block struct {
	ID   string    `json:"id"`
	Type BlockType `json:"type"`
	Text string    `json:"text"`
}

// BlockPosition is the world-space placement of a block, co-indexed with Block by ID.
// Size is zero until the block has been measured.
type BlockPosition struct {
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size Size    `json:"size"`
}

// Bounds returns the block's box in world space.
func (p BlockPosition) Bounds() Rect {
	return Rect{MinX: p.X, MinY: p.Y, MaxX: p.X + p.Size.Width, MaxY: p.Y + p.Size.Height}
}

// SavedBlock is the durable representation of a block, one row in the blocks table.
type SavedBlock struct {
	ID     string    `db:"id" json:"id"`
	Type   BlockType `db:"type" json:"type"`
	Text   string    `db:"data" json:"text"`
	X      float64   `db:"x" json:"x"`
	Y      float64   `db:"y" json:"y"`
	Width  float64   `db:"width" json:"width"`
	Height float64   `db:"height" json:"height"`
}

// Split returns the in-memory halves of a saved row.
func (s SavedBlock) Split() (Block, BlockPosition) {
	return Block{ID: s.ID, Type: s.Type, Text: s.Text},
		BlockPosition{ID: s.ID, X: s.X, Y: s.Y, Size: Size{Width: s.Width, Height: s.Height}}
}

// BlockStore is the durable, bounds-queryable home of blocks.
type BlockStore interface {
	Insert(ctx context.Context, b SavedBlock) error
	Get(ctx context.Context, id string) (*SavedBlock, error)
	UpdatePosition(ctx context.Context, id string, x, y float64) error
	UpdateSize(ctx context.Context, id string, width, height float64) error
	UpdateText(ctx context.Context, id, text string) error
	QueryByBounds(ctx context.Context, r Rect) ([]SavedBlock, error)
}
