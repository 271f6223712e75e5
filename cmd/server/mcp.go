package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/fraction12/wireflow/internal/config"
	"github.com/fraction12/wireflow/internal/engine"
	"github.com/fraction12/wireflow/internal/mcpserver"
)

// serveMCP runs the bridge over stdio. Stdout carries the protocol, so
// logs go to stderr.
func serveMCP(ctx context.Context, _ *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	notifier := engine.NotifierFunc(func(n engine.Notice) {
		logger.Info("notice", "level", n.Level, "message", n.Message)
	})
	a, err := newApp(ctx, cfg, logger, notifier)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.close(flushCtx)
	}()

	logger.Info("MCP server starting on stdio", "document_id", cfg.DocumentID)
	return mcpserver.New(a.bridge, version).ServeStdio()
}
