package board

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// VersionSource reports a counter that changes when another connection commits.
type VersionSource interface {
	DataVersion(ctx context.Context) (int64, error)
}

// DBWatcher notices commits made to the database file by other processes
// (e.g. the headless MCP server) and reports them so the board can reload.
// File events alone are not enough: our own writes touch the same files, so
// each event is confirmed against the connection's data_version.
type DBWatcher struct {
	watcher  *fsnotify.Watcher
	db       VersionSource
	base     string
	onChange func()
	logger   *logrus.Logger
	last     int64
}

func NewDBWatcher(ctx context.Context, dbPath string, db VersionSource, onChange func(), logger *logrus.Logger) (*DBWatcher, error) {
	absPath, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, err
	}
	last, err := db.DataVersion(ctx)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: SQLite replaces and truncates the -wal/-shm files.
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(absPath), err)
	}

	return &DBWatcher{
		watcher:  watcher,
		db:       db,
		base:     filepath.Base(absPath),
		onChange: onChange,
		logger:   logger,
		last:     last,
	}, nil
}

// Run handles file events until ctx is done.
func (w *DBWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.HasPrefix(filepath.Base(event.Name), w.base) {
				continue
			}
			w.check(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("db watcher error")
		}
	}
}

func (w *DBWatcher) check(ctx context.Context) {
	v, err := w.db.DataVersion(ctx)
	if err != nil {
		w.logger.WithError(err).Warn("db watcher: read data_version")
		return
	}
	if v == w.last {
		return
	}
	w.last = v
	w.logger.WithField("data_version", v).Debug("external change detected")
	if w.onChange != nil {
		w.onChange()
	}
}
