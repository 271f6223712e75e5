package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/fraction12/wireflow/internal/config"
	"github.com/fraction12/wireflow/internal/export"
)

func exportFrame(ctx context.Context, cmd *cli.Command) error {
	out := cmd.Args().First()
	if out == "" {
		return fmt.Errorf("usage: wireflow export [--frame id] [--scale n] <output.png>")
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	a, err := newApp(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.store.Close()

	view, ok := a.bridge.FrameView(cmd.String("frame"))
	if !ok {
		return fmt.Errorf("frame %q not found", cmd.String("frame"))
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()

	if err := export.NewRenderer(a.fonts).PNG(f, view, export.Options{Scale: cmd.Float("scale")}); err != nil {
		return err
	}
	logger.Info("frame exported", "frame", view.Frame.ID, "name", view.Frame.Name, "path", out)
	return f.Close()
}
