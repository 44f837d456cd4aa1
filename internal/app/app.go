package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
	"golang.org/x/sync/errgroup"

	"boardx/internal/board"
	"boardx/internal/config"
	"boardx/internal/service"
	"boardx/internal/storage"
	"boardx/internal/viewport"
)

const shutdownFlushTimeout = 5 * time.Second

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx    context.Context
	cfg    *config.Config
	logger *logrus.Logger
	emit   func(ctx context.Context, event string, data any)

	db      *storage.DB
	blocks  *service.BlockService
	writes  *service.WriteQueue
	views   *service.ViewSettingsService
	windows *service.WindowSettingsService
	worker  *viewport.Worker

	cancel context.CancelFunc
	group  errgroup.Group

	// The controller is driven from bound calls, which Wails runs concurrently.
	mu           sync.Mutex
	controller   *board.Controller
	degradedSent bool
	startErr     error
}

// New creates a new App.
func New(cfg *config.Config, logger *logrus.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		emit: func(ctx context.Context, event string, data any) {
			wailsRuntime.EventsEmit(ctx, event, data)
		},
	}
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	if err := a.start(ctx); err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to start board: %v", err)
		a.mu.Lock()
		a.startErr = err
		a.mu.Unlock()
		return
	}

	size := a.windows.LoadWindowSize(ctx)
	wailsRuntime.WindowSetSize(ctx, size.Width, size.Height)
}

// BeforeClose records the window size while the window still exists.
func (a *App) BeforeClose(ctx context.Context) bool {
	if a.windows != nil {
		w, h := wailsRuntime.WindowGetSize(ctx)
		if err := a.windows.SaveWindowSize(ctx, w, h); err != nil {
			a.logger.WithError(err).Warn("save window size")
		}
	}
	return false
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	a.stop()
}

// start opens the database and launches the background goroutines:
// viewport worker, write queue, WAL maintenance and the external-change watcher.
func (a *App) start(ctx context.Context) error {
	db, err := storage.New(a.cfg.Database.Path)
	if err != nil {
		return err
	}
	if err := db.Setup(ctx); err != nil {
		db.Close()
		return err
	}
	a.db = db

	store := storage.NewBlockStore(db)
	settings := storage.NewSettingsStore(db)
	a.blocks = service.NewBlockService(store, a.cfg.Layout.PlaceholderText)
	a.views = service.NewViewSettingsService(settings)
	a.windows = service.NewWindowSettingsService(settings)
	a.writes = service.NewWriteQueue(a.blocks, a, a.logger)
	a.worker = viewport.NewWorker(store, a.cfg.Viewport.BufferMargin, a.logger)

	offset := a.views.LoadOffset(ctx)
	a.mu.Lock()
	a.controller = board.NewController(a.cfg.BoardOptions(), offset, a.worker, a.writes, a.blocks, a.logger)
	a.mu.Unlock()

	runCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.group.Go(func() error { return a.worker.Run(runCtx) })
	a.group.Go(func() error { return a.writes.Run(runCtx) })

	if m, err := storage.NewMaintenance(db, a.cfg.Maintenance.CheckpointSchedule, a.logger); err != nil {
		a.logger.WithError(err).Warn("WAL maintenance disabled")
	} else {
		a.group.Go(func() error { return m.Run(runCtx) })
	}

	if w, err := board.NewDBWatcher(runCtx, db.Path(), db, a.onExternalChange, a.logger); err != nil {
		a.logger.WithError(err).Warn("external change watcher disabled")
	} else {
		a.group.Go(func() error { return w.Run(runCtx) })
	}

	a.logger.WithFields(logrus.Fields{
		"db":     db.Path(),
		"offset": offset,
	}).Info("board started")
	return nil
}

// stop saves the view offset, drains pending writes and closes the database.
func (a *App) stop() {
	if a.db == nil {
		return
	}

	a.mu.Lock()
	offset := a.controller.View().Offset
	a.mu.Unlock()
	if err := a.views.SaveOffset(context.Background(), offset); err != nil {
		a.logger.WithError(err).Warn("save view offset")
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownFlushTimeout)
	if err := a.writes.Flush(flushCtx); err != nil {
		a.logger.WithError(err).Warn("pending writes not flushed")
	}
	cancel()

	a.cancel()
	if err := a.group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.WithError(err).Error("background task failed")
	}
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Warn("close database")
	}
	a.db = nil
}

// Emit forwards service events to the frontend.
func (a *App) Emit(_ context.Context, event string, data any) {
	// Writes may be drained after the caller's context is gone; always use
	// the app context.
	if a.ctx == nil || a.emit == nil {
		return
	}
	a.emit(a.ctx, event, data)
}

func (a *App) onExternalChange() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.controller != nil {
		a.controller.ForceResync()
	}
}

// ============================================================
// Board bindings
// ============================================================

// Frame runs one interaction pass for the frontend's input snapshot.
func (a *App) Frame(in board.Input) board.Frame {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.controller == nil {
		msg := "board not started"
		if a.startErr != nil {
			msg = a.startErr.Error()
		}
		return board.Frame{Degraded: true, Err: msg}
	}

	f := a.controller.Frame(in, time.Now())
	if f.Degraded && !a.degradedSent {
		a.degradedSent = true
		a.Emit(a.ctx, service.EventDegraded, f.Err)
	}
	return f
}

// EditSelected replaces the selected block's text.
func (a *App) EditSelected(text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.controller == nil {
		return fmt.Errorf("board not started")
	}
	return a.controller.EditSelected(text)
}

// Measure reports the rendered size of a block. It returns false when the
// block already has a size.
func (a *App) Measure(id string, width, height float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.controller == nil {
		return false
	}
	return a.controller.Measure(id, width, height)
}

// Resize sets a block's size explicitly.
func (a *App) Resize(id string, width, height float64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.controller == nil {
		return fmt.Errorf("board not started")
	}
	return a.controller.Resize(id, width, height)
}
