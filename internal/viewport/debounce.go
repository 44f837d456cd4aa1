package viewport

import (
	"math"
	"time"

	"golang.org/x/time/rate"

	"boardx/internal/domain"
)

// Debouncer decides when the render loop should ask the worker for a reload.
// A view is sent only when it moved by more than the margin on some axis since
// the last send and at least one interval has passed since then.
type Debouncer struct {
	margin  float64
	limiter *rate.Limiter
	last    domain.ViewState
	sent    bool
	forced  bool
}

func NewDebouncer(margin float64, interval time.Duration) *Debouncer {
	return &Debouncer{
		margin:  margin,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Force makes the next ShouldSend ignore displacement. Used at startup and
// when the store changed underneath the board.
func (d *Debouncer) Force() {
	d.forced = true
}

// ShouldSend reports whether v should be sent at now. A true result consumes
// the interval; the caller is expected to send and then call MarkSent.
func (d *Debouncer) ShouldSend(v domain.ViewState, now time.Time) bool {
	if !d.forced && d.sent && !d.displaced(v) {
		return false
	}
	return d.limiter.AllowN(now, 1)
}

// MarkSent records v as the baseline for future displacement checks.
func (d *Debouncer) MarkSent(v domain.ViewState) {
	d.last = v
	d.sent = true
	d.forced = false
}

func (d *Debouncer) displaced(v domain.ViewState) bool {
	return math.Abs(v.Offset.X-d.last.Offset.X) > d.margin ||
		math.Abs(v.Offset.Y-d.last.Offset.Y) > d.margin ||
		math.Abs(v.Viewport.X-d.last.Viewport.X) > d.margin ||
		math.Abs(v.Viewport.Y-d.last.Viewport.Y) > d.margin
}
