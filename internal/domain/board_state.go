package domain

// BoardState is the working set of blocks currently loaded for rendering.
// IDs defines iteration and hit-test order. Every id in IDs has exactly one
// entry in Positions and Blocks. Sizes caches first-layout measurements so
// the render loop does not recompute them every frame.
type BoardState struct {
	IDs       []string                 `json:"ids"`
	Positions map[string]BlockPosition `json:"positions"`
	Blocks    map[string]Block         `json:"blocks"`
	Sizes     map[string]Size          `json:"sizes"`
}

func NewBoardState() *BoardState {
	return &BoardState{
		Positions: make(map[string]BlockPosition),
		Blocks:    make(map[string]Block),
		Sizes:     make(map[string]Size),
	}
}

// BoardStateFromSaved builds a snapshot from stored rows, preserving their order.
// Sizes starts empty: measurement happens on first paint.
func BoardStateFromSaved(rows []SavedBlock) *BoardState {
	s := NewBoardState()
	for _, r := range rows {
		b, p := r.Split()
		s.Add(b, p)
	}
	return s
}

// Add appends a block. Adding an id that is already present replaces its
// entries without changing its position in IDs.
func (s *BoardState) Add(b Block, p BlockPosition) {
	if _, ok := s.Blocks[b.ID]; !ok {
		s.IDs = append(s.IDs, b.ID)
	}
	p.ID = b.ID
	s.Blocks[b.ID] = b
	s.Positions[b.ID] = p
}

func (s *BoardState) Has(id string) bool {
	_, ok := s.Blocks[id]
	return ok
}

func (s *BoardState) Len() int {
	return len(s.IDs)
}

func (s *BoardState) Block(id string) (Block, bool) {
	b, ok := s.Blocks[id]
	return b, ok
}

func (s *BoardState) Position(id string) (BlockPosition, bool) {
	p, ok := s.Positions[id]
	return p, ok
}

// SetPosition moves a resident block. It reports false for unknown ids.
func (s *BoardState) SetPosition(id string, x, y float64) bool {
	p, ok := s.Positions[id]
	if !ok {
		return false
	}
	p.X, p.Y = x, y
	s.Positions[id] = p
	return true
}

// SetSize records a measured or resized size for a resident block.
func (s *BoardState) SetSize(id string, size Size) bool {
	p, ok := s.Positions[id]
	if !ok {
		return false
	}
	p.Size = size
	s.Positions[id] = p
	s.Sizes[id] = size
	return true
}

func (s *BoardState) SetText(id, text string) bool {
	b, ok := s.Blocks[id]
	if !ok {
		return false
	}
	b.Text = text
	s.Blocks[id] = b
	return true
}

// Saved returns the durable form of a resident block.
func (s *BoardState) Saved(id string) (SavedBlock, bool) {
	b, ok := s.Blocks[id]
	if !ok {
		return SavedBlock{}, false
	}
	p := s.Positions[id]
	return SavedBlock{
		ID: id, Type: b.Type, Text: b.Text,
		X: p.X, Y: p.Y, Width: p.Size.Width, Height: p.Size.Height,
	}, true
}
