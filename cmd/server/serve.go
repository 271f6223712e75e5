package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/fraction12/wireflow/internal/auth"
	"github.com/fraction12/wireflow/internal/bridge"
	"github.com/fraction12/wireflow/internal/collab"
	"github.com/fraction12/wireflow/internal/config"
	"github.com/fraction12/wireflow/internal/engine"
	"github.com/fraction12/wireflow/internal/export"
	mw "github.com/fraction12/wireflow/internal/middleware"
)

func serve(ctx context.Context, _ *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.String("http_address", cfg.Address()),
		slog.String("store_driver", cfg.StoreDriver),
		slog.String("document_id", cfg.DocumentID),
		slog.Bool("auth_enabled", cfg.BridgeSecret != ""))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The hub needs the bridge, which needs the engine, which takes the
	// notifier; bind the hub once it exists.
	var hub *collab.Hub
	notifier := engine.NotifierFunc(func(n engine.Notice) {
		logger.Info("notice", "level", n.Level, "message", n.Message)
		if hub != nil {
			hub.Notify(n)
		}
	})

	a, err := newApp(ctx, cfg, logger, notifier)
	if err != nil {
		return err
	}
	hub = collab.NewHub(a.bridge, cfg.Origins(), logger)
	a.engine.OnCommit(hub.DocumentChanged)

	authService := auth.NewService(cfg.BridgeSecret, cfg.JWTSecret, auth.DefaultTokenTTL)
	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newRouter(cfg, a, hub, authService),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gCtx)
		return nil
	})

	if cfg.TemplatesPath != "" {
		g.Go(func() error {
			if err := a.templates.Watch(gCtx, cfg.TemplatesPath, logger); err != nil {
				logger.Warn("templates watcher failed", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("starting HTTP server", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		a.close(shutdownCtx)
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("server stopped")
	return nil
}

func newRouter(cfg *config.Config, a *app, hub *collab.Hub, authService *auth.Service) *mux.Router {
	authHandler := auth.NewHandler(authService)
	bridgeHandler := bridge.NewHandler(a.bridge)
	exportHandler := export.NewHandler(a.bridge, export.NewRenderer(a.fonts))

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/auth/token", authHandler.Token).Methods("POST", "OPTIONS")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("/document", bridgeHandler.Document).Methods("GET")
	api.HandleFunc("/ops", bridgeHandler.Apply).Methods("POST", "OPTIONS")
	api.HandleFunc("/frames", bridgeHandler.Frames).Methods("GET")
	api.HandleFunc("/frames/{frameId}", bridgeHandler.Frame).Methods("GET")
	api.HandleFunc("/frames/{frameId}/export.png", exportHandler.ExportPNG).Methods("GET")

	// Browsers cannot set headers on websocket upgrades; the token may
	// come from the query string.
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		session, err := authService.Authenticate(r)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		hub.ServeWS(w, r, session.ID, session.Name)
	})

	return r
}
