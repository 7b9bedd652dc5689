package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotdeck/internal/broker"
	"hotdeck/internal/config"
	"hotdeck/internal/hotkey"
	"hotdeck/internal/httpapi"
	"hotdeck/internal/settings"
	"hotdeck/internal/store"
	"hotdeck/internal/util"
	"hotdeck/internal/watch"
)

func main() {
	cfgPath := "config/hotdeck.yaml"
	if p := os.Getenv("HOTDECK_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	// Settings store holds accounts and presets; reloaded on file change.
	st := settings.NewStore(cfg.Settings.Path, logger)

	registry := broker.NewRegistry(nil)

	dispatcher := hotkey.NewDispatcher(registry, logger)
	service := hotkey.NewService(dispatcher,
		time.Duration(cfg.Hotkeys.CooldownMs)*time.Millisecond, logger)

	history, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening execution history store: %v", err)
	}
	defer history.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var watcher *watch.Watcher
	if cfg.Watch.Enabled {
		watcher = watch.New(st, registry,
			time.Duration(cfg.Watch.IntervalSec)*time.Second,
			cfg.Watch.RateLimitPerMin, logger)
		go func() {
			if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("order watcher stopped", "error", err)
			}
		}()
	}

	go func() {
		if err := st.Watch(ctx, logger); err != nil && ctx.Err() == nil {
			logger.Error("settings watcher stopped", "error", err)
		}
	}()

	srv := httpapi.NewDashboardServer(st, registry, service, history, watcher, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	go func() {
		logger.Info("hotdeck server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down hotdeck server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
