package domain

// ViewState is the visible region of world space.
// Offset is the top-left world coordinate, Viewport the bottom-right
// (Offset + screen size), so Viewport >= Offset on both axes.
// Seq numbers requests sent to the viewport worker; responses echo it.
type ViewState struct {
	Seq      uint64 `json:"seq"`
	Offset   Point  `json:"offset"`
	Viewport Point  `json:"viewport"`
}

func NewViewState(offset Point, screen Size) ViewState {
	v := ViewState{Offset: offset}
	v.Resize(screen)
	return v
}

// Screen returns the screen size the view currently spans.
func (v ViewState) Screen() Size {
	return Size{Width: v.Viewport.X - v.Offset.X, Height: v.Viewport.Y - v.Offset.Y}
}

// Resize keeps the offset and recomputes the viewport for a new screen size.
// Negative sizes are clamped to zero.
func (v *ViewState) Resize(screen Size) {
	w, h := max(screen.Width, 0), max(screen.Height, 0)
	v.Viewport = Point{X: v.Offset.X + w, Y: v.Offset.Y + h}
}

// Pan shifts the whole view by d in world units.
func (v *ViewState) Pan(d Point) {
	v.Offset = v.Offset.Add(d)
	v.Viewport = v.Viewport.Add(d)
}

// Rect returns the visible world rectangle.
func (v ViewState) Rect() Rect {
	return Rect{MinX: v.Offset.X, MinY: v.Offset.Y, MaxX: v.Viewport.X, MaxY: v.Viewport.Y}
}

// Expanded returns the visible rectangle grown by margin on every side:
// the region the worker loads.
func (v ViewState) Expanded(margin float64) Rect {
	return v.Rect().Grow(margin)
}

func (v ViewState) ToWorld(screen Point) Point {
	return screen.Add(v.Offset)
}

func (v ViewState) ToScreen(world Point) Point {
	return world.Sub(v.Offset)
}
