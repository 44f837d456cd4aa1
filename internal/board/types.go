package board

import (
	"time"

	"boardx/internal/domain"
	"boardx/internal/viewport"
)

// Syncer is the render loop's handle on the viewport worker.
type Syncer interface {
	Request(v domain.ViewState)
	Poll() (viewport.Snapshot, bool, error)
}

// Persister receives single-record writes. Implementations must not block.
// Progress counts writes in FIFO slots: once applied reaches the enqueued
// value observed right after a write, that write (or one that replaced it)
// has been applied or dropped.
type Persister interface {
	Insert(b domain.SavedBlock)
	Move(id string, x, y float64)
	Resize(id string, width, height float64)
	EditText(id, text string)
	Progress() (enqueued, applied uint64)
}

// LabelFactory builds new, unsaved labels with fresh ids.
type LabelFactory interface {
	NewLabel(x, y float64, text string) domain.SavedBlock
}

type Options struct {
	BufferMargin     float64
	DebounceInterval time.Duration
	DoubleClick      time.Duration
	MaxLabelWidth    float64
}

func DefaultOptions() Options {
	return Options{
		BufferMargin:     300,
		DebounceInterval: 100 * time.Millisecond,
		DoubleClick:      350 * time.Millisecond,
		MaxLabelWidth:    300,
	}
}

// Input is one frame's worth of host input. Pointer is in screen space;
// Delta is the pointer movement since the previous frame.
type Input struct {
	Pointer     domain.Point `json:"pointer"`
	HasPointer  bool         `json:"hasPointer"`
	PrimaryDown bool         `json:"primaryDown"`
	Delta       domain.Point `json:"delta"`
	Scroll      domain.Point `json:"scroll"`
	Screen      domain.Size  `json:"screen"`
}

// Visible is a block to draw this frame, in screen coordinates.
type Visible struct {
	ID       string           `json:"id"`
	Type     domain.BlockType `json:"type"`
	Text     string           `json:"text"`
	Rect     domain.Rect      `json:"rect"`
	Measured bool             `json:"measured"`
	Hovered  bool             `json:"hovered"`
	Selected bool             `json:"selected"`
}

// Frame is what the host draws after a pass.
type Frame struct {
	Offset        domain.Point `json:"offset"`
	Blocks        []Visible    `json:"blocks"`
	Hovered       string       `json:"hovered"`
	Selected      string       `json:"selected"`
	Dragging      bool         `json:"dragging"`
	MaxLabelWidth float64      `json:"maxLabelWidth"`
	Degraded      bool         `json:"degraded"`
	Err           string       `json:"error,omitempty"`
}
