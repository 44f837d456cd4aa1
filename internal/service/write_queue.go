package service

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"boardx/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// WriteQueue: single-record writes off the render thread
// ─────────────────────────────────────────────────────────────

type writeKind int

const (
	writeInsert writeKind = iota
	writeMove
	writeResize
	writeText
)

func (k writeKind) String() string {
	switch k {
	case writeInsert:
		return "insert"
	case writeMove:
		return "move"
	case writeResize:
		return "resize"
	case writeText:
		return "text"
	}
	return "unknown"
}

type write struct {
	kind  writeKind
	id    string
	block domain.SavedBlock
	a, b  float64 // x/y for moves, width/height for resizes
	text  string
}

type flushWaiter struct {
	target uint64
	done   chan struct{}
}

// WriteQueue applies inserts, moves, resizes and text edits in FIFO order on
// its own goroutine. Enqueueing never blocks. A move, resize or text edit that
// directly follows one of the same kind for the same block replaces it.
type WriteQueue struct {
	blocks  *BlockService
	emitter EventEmitter
	logger  *logrus.Logger

	mu       sync.Mutex
	pending  []write
	enqueued uint64
	applied  uint64
	waiters  []flushWaiter
	wake     chan struct{}
}

func NewWriteQueue(blocks *BlockService, emitter EventEmitter, logger *logrus.Logger) *WriteQueue {
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	return &WriteQueue{
		blocks:  blocks,
		emitter: emitter,
		logger:  logger,
		wake:    make(chan struct{}, 1),
	}
}

func (q *WriteQueue) Insert(b domain.SavedBlock) {
	q.push(write{kind: writeInsert, id: b.ID, block: b})
}

func (q *WriteQueue) Move(id string, x, y float64) {
	q.push(write{kind: writeMove, id: id, a: x, b: y})
}

func (q *WriteQueue) Resize(id string, width, height float64) {
	q.push(write{kind: writeResize, id: id, a: width, b: height})
}

func (q *WriteQueue) EditText(id, text string) {
	q.push(write{kind: writeText, id: id, text: text})
}

// Progress returns the number of write slots enqueued and applied so far.
// A write coalesced into a queued one shares its slot.
func (q *WriteQueue) Progress() (enqueued, applied uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enqueued, q.applied
}

// Pending returns the number of writes not yet applied.
func (q *WriteQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int(q.enqueued - q.applied)
}

func (q *WriteQueue) push(w write) {
	q.mu.Lock()
	if n := len(q.pending); n > 0 && w.kind != writeInsert {
		last := &q.pending[n-1]
		if last.kind == w.kind && last.id == w.id {
			*last = w
			q.mu.Unlock()
			return
		}
	}
	q.pending = append(q.pending, w)
	q.enqueued++
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Run applies queued writes until ctx is done, then drains what is left.
func (q *WriteQueue) Run(ctx context.Context) error {
	for {
		select {
		case <-q.wake:
			q.drain(ctx)
		case <-ctx.Done():
			// Writes queued before shutdown are still applied.
			q.drain(context.Background())
			return nil
		}
	}
}

// Flush blocks until every write enqueued before the call has been applied,
// or ctx is done.
func (q *WriteQueue) Flush(ctx context.Context) error {
	q.mu.Lock()
	if q.applied >= q.enqueued {
		q.mu.Unlock()
		return nil
	}
	w := flushWaiter{target: q.enqueued, done: make(chan struct{})}
	q.waiters = append(q.waiters, w)
	q.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *WriteQueue) drain(ctx context.Context) {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		w := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.apply(ctx, w)

		q.mu.Lock()
		q.applied++
		kept := q.waiters[:0]
		for _, fw := range q.waiters {
			if q.applied >= fw.target {
				close(fw.done)
				continue
			}
			kept = append(kept, fw)
		}
		q.waiters = kept
		q.mu.Unlock()
	}
}

func (q *WriteQueue) apply(ctx context.Context, w write) {
	var err error
	switch w.kind {
	case writeInsert:
		err = q.blocks.Insert(ctx, w.block)
	case writeMove:
		err = q.blocks.Move(ctx, w.id, w.a, w.b)
	case writeResize:
		err = q.blocks.Resize(ctx, w.id, w.a, w.b)
	case writeText:
		err = q.blocks.EditText(ctx, w.id, w.text)
	}
	if err == nil {
		return
	}

	log := q.logger.WithFields(logrus.Fields{"op": w.kind.String(), "block_id": w.id})
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn("stale block reference, write ignored")
		return
	}
	log.WithError(err).Error("block write dropped")
	q.emitter.Emit(ctx, EventStorageError, map[string]string{
		"op":      w.kind.String(),
		"blockId": w.id,
		"error":   err.Error(),
	})
}
