// Copyright (c) 2026 Plaquier. All rights reserved.
// Author: m.joris.pro@gmail.com

// Command console is the entry point for the Plaquier console backend.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Build the inventory service client.
//  4. Wire the engine: catalog cache, resolver, aggregate service, plate
//     registry, list controller.
//  5. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mjoris/plaquier/internal/api"
	"github.com/mjoris/plaquier/internal/catalog"
	"github.com/mjoris/plaquier/internal/conception"
	"github.com/mjoris/plaquier/internal/concern"
	"github.com/mjoris/plaquier/internal/listing"
	"github.com/mjoris/plaquier/internal/plate"
	"github.com/mjoris/plaquier/internal/platform/config"
	"github.com/mjoris/plaquier/internal/platform/constants"
	"github.com/mjoris/plaquier/internal/remote"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("inventory_base_url", cfg.InventoryBaseURL),
	)

	// Root context that cancels the rate limiter's janitor on shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// ── 3. Inventory client ───────────────────────────────────────────────
	inventory := remote.NewClient(cfg.InventoryBaseURL, &http.Client{
		Timeout: cfg.InventoryTimeout,
	}, log)

	// ── 4. Engine wiring ──────────────────────────────────────────────────
	catalogCache := catalog.NewCache(catalog.NewRemoteLoader(inventory), log)
	resolver := concern.NewResolver(catalogCache, log)

	conceptionRepo := conception.NewRemoteRepository(inventory)
	conceptionService := conception.NewService(conceptionRepo, catalogCache, log)

	plateRepo := plate.NewRemoteRepository(inventory)
	registry := plate.NewRegistry(plateRepo, log)

	directory := listing.NewRemoteDirectory(inventory)
	controller := listing.NewController(directory, plateRepo, registry, log, cfg.PageSize, cfg.DebounceWindow)
	defer controller.Close()

	// ── 5. Health handlers (wired with the real dependency checker) ───────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckInventory: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return inventory.Ping(pingCtx)
		},
	}, log)

	// ── 6. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Catalog:    catalog.NewHandler(catalogCache),
		Conception: conception.NewHandler(conceptionService, resolver),
		View:       listing.NewHandler(controller),
		Plate:      plate.NewHandler(registry, plateRepo),
	}

	server := api.NewServer(rootCtx, cfg, log, handlers)

	// ── 7. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
