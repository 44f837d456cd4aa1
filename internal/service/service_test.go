package service_test

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boardx/internal/domain"
	"boardx/internal/service"
	"boardx/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "board.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Setup(context.Background()))
	return db
}

// countingStore wraps a real store and counts move calls.
type countingStore struct {
	domain.BlockStore
	moves int
	fail  error
}

func (c *countingStore) UpdatePosition(ctx context.Context, id string, x, y float64) error {
	c.moves++
	return c.BlockStore.UpdatePosition(ctx, id, x, y)
}

func (c *countingStore) UpdateText(ctx context.Context, id, text string) error {
	if c.fail != nil {
		return c.fail
	}
	return c.BlockStore.UpdateText(ctx, id, text)
}

// ─────────────────────────────────────────────────────────────
// BlockService
// ─────────────────────────────────────────────────────────────

func TestBlockService_CreateLabelDefaultsPlaceholder(t *testing.T) {
	ctx := context.Background()
	svc := service.NewBlockService(storage.NewBlockStore(openDB(t)), "")

	b, err := svc.CreateLabel(ctx, 120, 80, "")
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, service.DefaultPlaceholder, b.Text)
	assert.Equal(t, domain.BlockTypeLabel, b.Type)

	got, err := svc.GetBlock(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b, *got)
}

func TestBlockService_NewLabelIDsAreUnique(t *testing.T) {
	svc := service.NewBlockService(nil, "x")
	a := svc.NewLabel(0, 0, "")
	b := svc.NewLabel(0, 0, "")
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, "x", a.Text)
}

func TestBlockService_Validation(t *testing.T) {
	ctx := context.Background()
	svc := service.NewBlockService(storage.NewBlockStore(openDB(t)), "")

	_, err := svc.Query(ctx, domain.Rect{MinX: 10, MaxX: 0})
	assert.Error(t, err)
	assert.Error(t, svc.Resize(ctx, "any", -1, 5))
	assert.Error(t, svc.Insert(ctx, domain.SavedBlock{ID: "x", Type: "widget"}))
}

// ─────────────────────────────────────────────────────────────
// WriteQueue
// ─────────────────────────────────────────────────────────────

func startQueue(t *testing.T, store domain.BlockStore, emitter service.EventEmitter) *service.WriteQueue {
	t.Helper()
	q := service.NewWriteQueue(service.NewBlockService(store, ""), emitter, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return q
}

func flush(t *testing.T, q *service.WriteQueue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, q.Flush(ctx))
}

func TestWriteQueue_AppliesInOrder(t *testing.T) {
	ctx := context.Background()
	store := storage.NewBlockStore(openDB(t))
	q := startQueue(t, store, nil)

	q.Insert(domain.SavedBlock{ID: "a", Type: domain.BlockTypeLabel, Text: "one"})
	q.Move("a", 10, 20)
	q.EditText("a", "two")
	q.Resize("a", 300, 40)
	flush(t, q)

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.SavedBlock{ID: "a", Type: domain.BlockTypeLabel, Text: "two", X: 10, Y: 20, Width: 300, Height: 40}, *got)
	assert.Zero(t, q.Pending())
}

func TestWriteQueue_CoalescesConsecutiveMoves(t *testing.T) {
	ctx := context.Background()
	inner := storage.NewBlockStore(openDB(t))
	require.NoError(t, inner.Insert(ctx, domain.SavedBlock{ID: "m", Type: domain.BlockTypeLabel}))
	store := &countingStore{BlockStore: inner}

	// Not running yet: everything stays pending so coalescing is deterministic.
	q := service.NewWriteQueue(service.NewBlockService(store, ""), nil, quietLogger())
	for i := 1; i <= 10; i++ {
		q.Move("m", float64(i), float64(i))
	}
	assert.Equal(t, 1, q.Pending())
	enqueued, applied := q.Progress()
	assert.Equal(t, uint64(1), enqueued, "coalesced moves share one slot")
	assert.Zero(t, applied)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() { q.Run(runCtx); close(done) }()
	cancel()
	<-done

	assert.Equal(t, 1, store.moves)
	_, applied = q.Progress()
	assert.Equal(t, uint64(1), applied)
	got, err := inner.Get(ctx, "m")
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.X)
}

func TestWriteQueue_NotFoundIsIgnored(t *testing.T) {
	emitter := &service.MockEmitter{}
	q := startQueue(t, storage.NewBlockStore(openDB(t)), emitter)

	q.Move("ghost", 1, 1)
	q.EditText("ghost", "boo")
	flush(t, q)

	assert.Empty(t, emitter.Recorded())
}

func TestWriteQueue_StorageErrorIsEmitted(t *testing.T) {
	ctx := context.Background()
	inner := storage.NewBlockStore(openDB(t))
	require.NoError(t, inner.Insert(ctx, domain.SavedBlock{ID: "e", Type: domain.BlockTypeLabel}))
	store := &countingStore{BlockStore: inner, fail: domain.NewStorageError("update text", io.ErrClosedPipe)}
	emitter := &service.MockEmitter{}
	q := startQueue(t, store, emitter)

	q.EditText("e", "lost")
	q.Move("e", 5, 5)
	flush(t, q)

	events := emitter.Recorded()
	require.Len(t, events, 1)
	assert.Equal(t, service.EventStorageError, events[0].Event)
	data := events[0].Data.(map[string]string)
	assert.Equal(t, "text", data["op"])
	assert.Equal(t, "e", data["blockId"])

	got, err := inner.Get(ctx, "e")
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.X, "writes after a failure still apply")
}

func TestWriteQueue_FlushHonoursContext(t *testing.T) {
	q := service.NewWriteQueue(service.NewBlockService(nil, ""), nil, quietLogger())
	q.Move("never", 1, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Flush(ctx), context.DeadlineExceeded)
}

// ─────────────────────────────────────────────────────────────
// ViewSettingsService
// ─────────────────────────────────────────────────────────────

func TestViewSettings_RoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := service.NewViewSettingsService(storage.NewSettingsStore(openDB(t)))

	assert.Equal(t, service.DefaultOffset, svc.LoadOffset(ctx))
	require.NoError(t, svc.SaveOffset(ctx, domain.Point{X: -120.5, Y: 3000}))
	assert.Equal(t, domain.Point{X: -120.5, Y: 3000}, svc.LoadOffset(ctx))
}

func TestViewSettings_NilStore(t *testing.T) {
	svc := service.NewViewSettingsService(nil)
	assert.Equal(t, service.DefaultOffset, svc.LoadOffset(context.Background()))
	assert.Error(t, svc.SaveOffset(context.Background(), domain.Point{}))
}

func TestWindowSettings(t *testing.T) {
	ctx := context.Background()
	svc := service.NewWindowSettingsService(storage.NewSettingsStore(openDB(t)))

	assert.Equal(t, service.WindowSize{Width: 1920, Height: 1080}, svc.LoadWindowSize(ctx))

	require.NoError(t, svc.SaveWindowSize(ctx, 1280, 720))
	assert.Equal(t, service.WindowSize{Width: 1280, Height: 720}, svc.LoadWindowSize(ctx))

	// Implausibly small sizes fall back to defaults.
	require.NoError(t, svc.SaveWindowSize(ctx, 200, 100))
	assert.Equal(t, service.WindowSize{Width: 1920, Height: 1080}, svc.LoadWindowSize(ctx))
}

// ─────────────────────────────────────────────────────────────
// MockEmitter
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordsEvents(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "test:event", map[string]string{"foo": "bar"})
	m.Emit(ctx, "test:event2", nil)

	if len(m.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(m.Events))
	}
	if m.Events[0].Event != "test:event" {
		t.Errorf("expected 'test:event', got %q", m.Events[0].Event)
	}
}
