package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vesperhq/vesper/internal/api"
	"github.com/vesperhq/vesper/internal/config"
	"github.com/vesperhq/vesper/internal/service"
	"github.com/vesperhq/vesper/internal/store"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "vesper",
	Short: "Vesper - spiritual practice companion service",
	RunE:  run,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	// 1. Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 3. Initialize logger
	slog.SetDefault(newLogger(cfg.Log))
	slog.Info("configuration loaded", "level", cfg.Log.Level)

	// 4. Open store (migrations run on open)
	gw := store.NewGateway(cfg.Database.Path)
	if err := gw.Open(ctx); err != nil {
		return err
	}
	slog.Info("store opened", "path", cfg.Database.Path)

	habits := store.NewHabitRepository(gw)
	logs := store.NewHabitLogRepository(gw)
	gratitude := store.NewGratitudeRepository(gw)
	prayers := store.NewPrayerRepository(gw)
	habitSvc := service.NewHabitService(habits)

	// 5. Seed defaults on an empty store
	if cfg.Database.SeedDefaults {
		if err := habitSvc.SeedDefaults(ctx); err != nil {
			return err
		}
	}

	// 6. Initialize services and router
	handler := api.NewHandler(
		habitSvc,
		service.NewHabitLogService(habits, logs),
		service.NewAnalyticsService(habits, logs),
		service.NewGratitudeService(gratitude),
		service.NewPrayerService(prayers),
		Version,
	)
	router := api.NewRouter(handler)
	slog.Info("router initialized")

	// 7. Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// 8. Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		// ErrServerClosed is the expected error when Shutdown() is called
		// gracefully. Anything else is an actual failure.
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	// 9. Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// 10. Graceful shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// 10a. Stop HTTP server (drains in-flight requests)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// 10b. Close store last
	if err := gw.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
