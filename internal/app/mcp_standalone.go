package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"boardx/internal/config"
	mcpserver "boardx/internal/mcp"
	"boardx/internal/service"
	"boardx/internal/storage"
)

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no GUI.
// It shares the board's database file; a running board sees its writes
// through the external-change watcher.
func ServeMCP(cfg *config.Config, logger *logrus.Logger) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// stdout carries the protocol.
	logger.SetOutput(os.Stderr)

	db, err := storage.New(cfg.Database.Path)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open database")
	}
	defer db.Close()
	if err := db.Setup(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to set up database")
	}

	blocks := service.NewBlockService(storage.NewBlockStore(db), cfg.Layout.PlaceholderText)
	srv := mcpserver.New(blocks, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.WithError(err).Error("MCP server error")
		}
	case <-ctx.Done():
		logger.Info("[MCP] Interrupted, shutting down")
	}
}
