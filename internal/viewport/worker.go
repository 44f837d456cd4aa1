// Package viewport keeps bounding-box queries off the render loop. The render
// loop posts ViewState requests, a single Worker goroutine answers each one with
// a fresh BoardState for the expanded viewport, and the render loop polls for
// answers without blocking.
package viewport

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"boardx/internal/domain"
)

// BoundsQuerier is the slice of the block store the worker needs.
type BoundsQuerier interface {
	QueryByBounds(ctx context.Context, r domain.Rect) ([]domain.SavedBlock, error)
}

// Snapshot is the worker's answer to one request.
// Seq echoes the request; Rect is the world region that was loaded.
type Snapshot struct {
	Seq   uint64
	Rect  domain.Rect
	Board *domain.BoardState
	Err   error
}

// Worker answers viewport requests one at a time. Requests and responses each
// travel through a one-slot mailbox: a newer value replaces an unread older
// one, so a burst of pans collapses to the most recent view.
type Worker struct {
	store     BoundsQuerier
	margin    float64
	logger    *logrus.Logger
	requests  chan domain.ViewState
	responses chan Snapshot
}

// NewWorker creates a worker that loads margin world units beyond every edge
// of the requested viewport.
func NewWorker(store BoundsQuerier, margin float64, logger *logrus.Logger) *Worker {
	return &Worker{
		store:     store,
		margin:    margin,
		logger:    logger,
		requests:  make(chan domain.ViewState, 1),
		responses: make(chan Snapshot, 1),
	}
}

// Request posts a view for loading without blocking. Must be called from a
// single goroutine (the render loop).
func (w *Worker) Request(v domain.ViewState) {
	for {
		select {
		case w.requests <- v:
			return
		default:
		}
		select {
		case stale := <-w.requests:
			w.logger.WithField("seq", stale.Seq).Debug("viewport request superseded")
		default:
		}
	}
}

// Poll returns the latest unread snapshot, if any. Once the worker has
// exited it returns domain.ErrWorkerStopped.
func (w *Worker) Poll() (Snapshot, bool, error) {
	select {
	case s, ok := <-w.responses:
		if !ok {
			return Snapshot{}, false, domain.ErrWorkerStopped
		}
		return s, true, nil
	default:
		return Snapshot{}, false, nil
	}
}

// Run serves requests until ctx is done. It closes the response channel on
// exit, including after a panic in the store, so the render loop can detect
// the loss and switch to degraded mode.
func (w *Worker) Run(ctx context.Context) (err error) {
	defer close(w.responses)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("viewport worker panic: %v", r)
			w.logger.WithError(err).Error("viewport worker stopped")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case v := <-w.requests:
			w.publish(w.load(ctx, v))
		}
	}
}

func (w *Worker) load(ctx context.Context, v domain.ViewState) Snapshot {
	r := v.Expanded(w.margin)
	rows, err := w.store.QueryByBounds(ctx, r)
	if err != nil {
		w.logger.WithError(err).WithField("seq", v.Seq).Warn("viewport query failed")
		return Snapshot{Seq: v.Seq, Rect: r, Err: err}
	}
	w.logger.WithFields(logrus.Fields{"seq": v.Seq, "blocks": len(rows)}).Debug("viewport loaded")
	return Snapshot{Seq: v.Seq, Rect: r, Board: domain.BoardStateFromSaved(rows)}
}

// publish is the only sender on responses.
func (w *Worker) publish(s Snapshot) {
	for {
		select {
		case w.responses <- s:
			return
		default:
		}
		select {
		case <-w.responses:
		default:
		}
	}
}
