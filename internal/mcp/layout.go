package mcpserver

import (
	"math"

	"boardx/internal/domain"
)

const (
	GridSize = 30.0
	Padding  = 30.0 // one grid cell between labels
	MaxRowW  = 1800.0
	// Footprint assumed for blocks that have not been measured yet.
	UnmeasuredW = 300.0
	UnmeasuredH = 30.0
)

// LayoutEngine places labels created by agents without explicit
// coordinates so that they don't land on top of existing blocks.
type LayoutEngine struct {
	gridSize float64
	padding  float64
	maxRowW  float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		gridSize: GridSize,
		padding:  Padding,
		maxRowW:  MaxRowW,
	}
}

// snap rounds v to the nearest grid point.
func (le *LayoutEngine) snap(v float64) float64 {
	return math.Round(v/le.gridSize) * le.gridSize
}

// footprint returns the box a saved block occupies, padded on every side.
func (le *LayoutEngine) footprint(b domain.SavedBlock) domain.Rect {
	w, h := b.Width, b.Height
	if w == 0 && h == 0 {
		w, h = UnmeasuredW, UnmeasuredH
	}
	return domain.Rect{MinX: b.X, MinY: b.Y, MaxX: b.X + w, MaxY: b.Y + h}.Grow(le.padding)
}

// NextPosition finds the first grid position at or after origin (scanning
// rows top-to-bottom, columns left-to-right) where a block of size fits
// without touching any existing block.
func (le *LayoutEngine) NextPosition(existing []domain.SavedBlock, origin domain.Point, size domain.Size) domain.Point {
	start := domain.Point{X: le.snap(origin.X), Y: le.snap(origin.Y)}
	if len(existing) == 0 {
		return start
	}

	occupied := make([]domain.Rect, len(existing))
	for i, b := range existing {
		occupied[i] = le.footprint(b)
	}

	maxY := start.Y
	for _, r := range occupied {
		maxY = math.Max(maxY, r.MaxY)
	}

	for y := start.Y; y <= maxY; y += le.gridSize {
		for x := start.X; x < start.X+le.maxRowW; x += le.gridSize {
			candidate := domain.Rect{MinX: x, MinY: y, MaxX: x + size.Width, MaxY: y + size.Height}
			free := true
			for _, occ := range occupied {
				if candidate.Intersects(occ) {
					free = false
					break
				}
			}
			if free {
				return domain.Point{X: x, Y: y}
			}
		}
	}

	// Below everything else.
	return domain.Point{X: start.X, Y: le.snap(maxY + le.gridSize)}
}

// SearchArea is the region whose blocks can influence a placement at origin.
func (le *LayoutEngine) SearchArea(origin domain.Point) domain.Rect {
	return domain.Rect{
		MinX: origin.X - UnmeasuredW - le.padding,
		MinY: origin.Y - UnmeasuredH - le.padding,
		MaxX: origin.X + le.maxRowW + le.padding,
		MaxY: origin.Y + le.maxRowW,
	}
}
