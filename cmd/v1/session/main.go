package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/listenroom/backend/internal/v1/bus"
	"github.com/listenroom/backend/internal/v1/clock"
	"github.com/listenroom/backend/internal/v1/config"
	"github.com/listenroom/backend/internal/v1/coordinator"
	"github.com/listenroom/backend/internal/v1/httpapi"
	"github.com/listenroom/backend/internal/v1/logging"
	"github.com/listenroom/backend/internal/v1/youtube"
)

func main() {
	// Load .env file for local development; a missing file is fine in
	// any deployed environment where config comes from the process env.
	envPaths := []string{".env", "../../../.env", "../../.env"}
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			slog.Info("loaded environment from", "path", path)
			break
		}
	}

	cfg, err := config.ValidateEnv()
	if err != nil {
		slog.Error("invalid environment configuration", "error", err)
		os.Exit(1)
	}

	if err := logging.Initialize(cfg.GoEnv != "production"); err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}

	var roomBus *bus.Service
	if cfg.BusEnabled {
		roomBus, err = bus.NewService(cfg.BusAddr, cfg.BusPassword)
		if err != nil {
			slog.Error("failed to connect to room bus", "error", err)
			os.Exit(1)
		}
	}

	resolver := youtube.NewClient()
	co := coordinator.New(clock.New(), roomBus, resolver)
	router := httpapi.Router(cfg, co, resolver, roomBus)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Port),
		Handler: router,
	}

	go func() {
		slog.Info("listenroom server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	co.Shutdown()
	if roomBus != nil {
		if err := roomBus.Close(); err != nil {
			slog.Error("failed to close room bus", "error", err)
		}
	}

	slog.Info("server exiting")
}
