// Package board is the per-frame interaction loop: it turns host input into
// view pans, block drags, selection, creation and text edits, and decides
// when the viewport worker should reload.
package board

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"boardx/internal/domain"
	"boardx/internal/viewport"
)

var (
	ErrNoSelection = errors.New("no block selected")
	ErrNotEditable = errors.New("block is not editable")
)

// Controller owns the view and board state. It is not safe for concurrent
// use; the host drives it from one goroutine (or behind one lock).
type Controller struct {
	opts     Options
	view     domain.ViewState
	board    *domain.BoardState
	syncer   Syncer
	writes   Persister
	labels   LabelFactory
	debounce *viewport.Debouncer
	logger   *logrus.Logger

	seq      uint64 // last request sent
	applied  uint64 // last snapshot applied
	degraded bool

	prevDown  bool
	panning   bool
	lastPress time.Time
	hovered   string
	selected  string
	dragging  string
	editText  string // selected block's text as of the last persisted edit

	// Local truth for blocks whose writes may not be in the store yet, and the
	// write-queue applied count when each outstanding request was sent.
	pending     map[string]pendingWrite
	sentApplied map[uint64]uint64
}

// pendingWrite is a locally written row and the write-queue ticket that
// makes it durable.
type pendingWrite struct {
	row    domain.SavedBlock
	ticket uint64
}

func NewController(opts Options, offset domain.Point, syncer Syncer, writes Persister, labels LabelFactory, logger *logrus.Logger) *Controller {
	c := &Controller{
		opts:        opts,
		view:        domain.NewViewState(offset, domain.Size{}),
		board:       domain.NewBoardState(),
		syncer:      syncer,
		writes:      writes,
		labels:      labels,
		debounce:    viewport.NewDebouncer(opts.BufferMargin, opts.DebounceInterval),
		logger:      logger,
		pending:     make(map[string]pendingWrite),
		sentApplied: make(map[uint64]uint64),
	}
	c.debounce.Force()
	return c
}

// View returns the current view state.
func (c *Controller) View() domain.ViewState { return c.view }

// Board returns the live board state. Callers must not keep it across frames.
func (c *Controller) Board() *domain.BoardState { return c.board }

func (c *Controller) Selected() string { return c.selected }
func (c *Controller) Degraded() bool { return c.degraded }

// ForceResync makes the next frame reload the viewport regardless of movement.
func (c *Controller) ForceResync() {
	c.debounce.Force()
}

// Frame runs one interaction pass at time now.
func (c *Controller) Frame(in Input, now time.Time) Frame {
	pollErr := c.poll()

	if in.Screen != c.view.Screen() {
		c.view.Resize(in.Screen)
	}

	pressed := in.PrimaryDown && !c.prevDown
	released := !in.PrimaryDown && c.prevDown
	c.prevDown = in.PrimaryDown

	world := c.view.ToWorld(in.Pointer)
	hit := ""
	if c.dragging == "" && in.HasPointer {
		hit = c.HitTest(world)
	}
	if !in.PrimaryDown {
		c.hovered = hit
	}

	if pressed && in.HasPointer {
		c.press(hit, world, now)
	}

	if in.PrimaryDown && in.Delta != (domain.Point{}) {
		switch {
		case c.dragging != "":
			c.drag(in.Delta)
		case c.panning:
			c.view.Pan(domain.Point{X: -in.Delta.X, Y: -in.Delta.Y})
			// A press that became a pan is not a click.
			c.lastPress = time.Time{}
		}
	}
	if in.Scroll != (domain.Point{}) {
		c.view.Pan(domain.Point{X: -in.Scroll.X, Y: -in.Scroll.Y})
	}

	if released {
		c.dragging = ""
		c.panning = false
	}

	c.maybeResync(now)
	return c.render(pollErr)
}

// HitTest returns the first block in board order whose box contains the
// world point, or "". Overlapping blocks resolve to the earliest inserted.
func (c *Controller) HitTest(world domain.Point) string {
	for _, id := range c.board.IDs {
		p := c.board.Positions[id]
		if p.Bounds().Contains(world) {
			return id
		}
	}
	return ""
}

func (c *Controller) press(hit string, world domain.Point, now time.Time) {
	if hit != "" {
		c.selectBlock(hit)
		c.dragging = hit
		c.lastPress = time.Time{}
		return
	}

	c.selected = ""
	if !c.lastPress.IsZero() && now.Sub(c.lastPress) <= c.opts.DoubleClick {
		c.lastPress = time.Time{}
		c.createLabel(world)
		return
	}
	c.lastPress = now
	c.panning = true
}

func (c *Controller) selectBlock(id string) {
	c.selected = id
	b, _ := c.board.Block(id)
	c.editText = b.Text
}

func (c *Controller) createLabel(world domain.Point) {
	saved := c.labels.NewLabel(world.X, world.Y, "")
	b, p := saved.Split()
	c.board.Add(b, p)
	c.writes.Insert(saved)
	c.touch(saved.ID)
	c.selectBlock(saved.ID)
	c.logger.WithFields(logrus.Fields{"block_id": saved.ID, "x": world.X, "y": world.Y}).Debug("label created")
}

func (c *Controller) drag(delta domain.Point) {
	p, ok := c.board.Position(c.dragging)
	if !ok {
		c.dragging = ""
		return
	}
	x, y := p.X+delta.X, p.Y+delta.Y
	c.board.SetPosition(c.dragging, x, y)
	c.writes.Move(c.dragging, x, y)
	c.touch(c.dragging)
}

// EditSelected replaces the selected label's text. The write is issued only
// when the text differs from what was last persisted.
func (c *Controller) EditSelected(text string) error {
	if c.selected == "" {
		return ErrNoSelection
	}
	b, ok := c.board.Block(c.selected)
	if !ok {
		c.selected = ""
		return ErrNoSelection
	}
	if b.Type != domain.BlockTypeLabel {
		return fmt.Errorf("edit %s: %w", c.selected, ErrNotEditable)
	}
	if text == c.editText {
		return nil
	}
	c.board.SetText(c.selected, text)
	c.writes.EditText(c.selected, text)
	c.editText = text
	c.touch(c.selected)
	return nil
}

// Measure records a block's first-layout size. Width is capped at the max
// label width. Blocks that already carry a size (persisted or resized by hand)
// keep it; only freshly measured sizes are written back.
func (c *Controller) Measure(id string, width, height float64) bool {
	if _, done := c.board.Sizes[id]; done {
		return false
	}
	p, ok := c.board.Position(id)
	if !ok {
		return false
	}
	if !p.Size.IsZero() {
		c.board.Sizes[id] = p.Size
		return false
	}
	size := domain.Size{Width: min(width, c.opts.MaxLabelWidth), Height: height}
	c.board.SetSize(id, size)
	c.writes.Resize(id, size.Width, size.Height)
	c.touch(id)
	return true
}

// Resize applies a manual resize. It is not capped.
func (c *Controller) Resize(id string, width, height float64) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("resize %s: negative size", id)
	}
	if !c.board.SetSize(id, domain.Size{Width: width, Height: height}) {
		return fmt.Errorf("resize %s: %w", id, domain.ErrNotFound)
	}
	c.writes.Resize(id, width, height)
	c.touch(id)
	return nil
}

func (c *Controller) touch(id string) {
	if s, ok := c.board.Saved(id); ok {
		enqueued, _ := c.writes.Progress()
		c.pending[id] = pendingWrite{row: s, ticket: enqueued}
	}
}

func (c *Controller) maybeResync(now time.Time) {
	if c.degraded || c.syncer == nil {
		return
	}
	if !c.debounce.ShouldSend(c.view, now) {
		return
	}
	c.seq++
	v := c.view
	v.Seq = c.seq
	_, applied := c.writes.Progress()
	c.sentApplied[v.Seq] = applied
	c.syncer.Request(v)
	c.debounce.MarkSent(v)
}

// poll drains worker responses, applying only snapshots newer than the last
// one applied.
func (c *Controller) poll() error {
	if c.syncer == nil {
		return nil
	}
	var snapErr error
	for {
		snap, ok, err := c.syncer.Poll()
		if err != nil {
			if !c.degraded {
				c.logger.WithError(err).Error("viewport reloads disabled")
				c.degraded = true
			}
			return err
		}
		if !ok {
			return snapErr
		}
		if snap.Seq <= c.applied {
			c.logger.WithFields(logrus.Fields{"seq": snap.Seq, "applied": c.applied}).Debug("stale snapshot discarded")
			continue
		}
		c.applied = snap.Seq
		settled := c.sentApplied[snap.Seq]
		for seq := range c.sentApplied {
			if seq <= snap.Seq {
				delete(c.sentApplied, seq)
			}
		}
		if snap.Err != nil {
			snapErr = snap.Err
			continue
		}
		c.apply(snap, settled)
	}
}

// apply swaps in a worker snapshot, re-applying local writes the store may
// not have seen yet. settled is how many queued writes had been applied
// before the snapshot's query was requested; rows written up to that point
// are read back from the store as-is, including changes made by others.
func (c *Controller) apply(snap viewport.Snapshot, settled uint64) {
	next := snap.Board
	for id, pw := range c.pending {
		want := pw.row
		got, ok := next.Saved(id)
		switch {
		case pw.ticket <= settled && id != c.dragging:
			delete(c.pending, id)
		case ok && got == want:
			delete(c.pending, id)
		case ok || snap.Rect.Intersects(boxOf(want)) || id == c.dragging:
			b, p := want.Split()
			next.Add(b, p)
		default:
			delete(c.pending, id)
		}
	}
	if !next.Has(c.hovered) {
		c.hovered = ""
	}
	if !next.Has(c.selected) {
		c.selected = ""
	}
	c.board = next
}

func boxOf(s domain.SavedBlock) domain.Rect {
	return domain.Rect{MinX: s.X, MinY: s.Y, MaxX: s.X + s.Width, MaxY: s.Y + s.Height}
}

func (c *Controller) render(err error) Frame {
	f := Frame{
		Offset:        c.view.Offset,
		Hovered:       c.hovered,
		Selected:      c.selected,
		Dragging:      c.dragging != "",
		MaxLabelWidth: c.opts.MaxLabelWidth,
		Degraded:      c.degraded,
	}
	if err != nil {
		f.Err = err.Error()
	}
	visible := c.view.Rect()
	for _, id := range c.board.IDs {
		p := c.board.Positions[id]
		box := p.Bounds()
		if !box.Intersects(visible) {
			continue
		}
		b := c.board.Blocks[id]
		_, measured := c.board.Sizes[id]
		tl := c.view.ToScreen(domain.Point{X: box.MinX, Y: box.MinY})
		f.Blocks = append(f.Blocks, Visible{
			ID:       id,
			Type:     b.Type,
			Text:     b.Text,
			Rect:     domain.Rect{MinX: tl.X, MinY: tl.Y, MaxX: tl.X + p.Size.Width, MaxY: tl.Y + p.Size.Height},
			Measured: measured,
			Hovered:  id == c.hovered,
			Selected: id == c.selected,
		})
	}
	return f
}
