package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fraction12/wireflow/internal/bridge"
	"github.com/fraction12/wireflow/internal/config"
	"github.com/fraction12/wireflow/internal/engine"
	"github.com/fraction12/wireflow/internal/snap"
	"github.com/fraction12/wireflow/internal/store"
	"github.com/fraction12/wireflow/internal/templates"
	"github.com/fraction12/wireflow/internal/typography"
)

// app is the engine with its persistence, shared by every command.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     store.Store
	fonts     *typography.Measurer
	templates *templates.Registry
	engine    *engine.Engine
	bridge    *bridge.Bridge
	autosaver *store.Autosaver
}

// newApp opens the store, loads the saved document and registers
// autosave. notifier receives engine and autosave notices.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, notifier engine.Notifier) (*app, error) {
	s, err := store.Open(ctx, store.Options{
		Driver:      store.Driver(cfg.StoreDriver),
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.SQLitePath,
		DocumentID:  cfg.DocumentID,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	fonts := typography.Default()
	registry := templates.NewRegistry(fonts)
	if cfg.TemplatesPath != "" {
		if err := registry.LoadFile(cfg.TemplatesPath); err != nil {
			logger.Warn("templates not loaded, using defaults", "path", cfg.TemplatesPath, "error", err)
		}
	}

	snapping := snap.DefaultSettings()
	snapping.GridSize = cfg.GridSize

	e := engine.New(engine.Options{
		Measurer:     fonts,
		Notifier:     notifier,
		Logger:       logger,
		Templates:    registry,
		Snap:         snapping,
		HistoryDepth: cfg.HistoryDepth,
		DeletePolicy: engine.DeletePolicy{BackspaceRequiresDirectSelection: cfg.BackspaceDirectOnly},
	})

	state, err := s.Load(ctx)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("load document: %w", err)
	}
	if state != nil {
		report := e.LoadState(state)
		logger.Info("document loaded",
			"frames", len(state.Frames),
			"orphaned_instances", report.OrphanedInstances,
			"dangling_refs", report.DanglingRefs)
	} else {
		logger.Info("no saved document, starting empty")
	}

	autosaver := store.NewAutosaver(s, cfg.AutosaveDelay, notifier, logger)
	e.OnCommit(autosaver.Schedule)

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     s,
		fonts:     fonts,
		templates: registry,
		engine:    e,
		bridge:    bridge.New(e, logger),
		autosaver: autosaver,
	}, nil
}

// close writes any pending autosave and releases the store.
func (a *app) close(ctx context.Context) {
	if err := a.autosaver.Flush(ctx); err != nil {
		a.logger.Error("final save failed", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("close store", "error", err)
	}
}
