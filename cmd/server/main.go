package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vuxuanquyet204/webantoan/internal/config"
	"github.com/vuxuanquyet204/webantoan/internal/db"
	"github.com/vuxuanquyet204/webantoan/internal/handlers/auth"
	"github.com/vuxuanquyet204/webantoan/internal/handlers/crack"
	"github.com/vuxuanquyet204/webantoan/internal/handlers/diagnostics"
	"github.com/vuxuanquyet204/webantoan/internal/hardware"
	"github.com/vuxuanquyet204/webantoan/internal/repository"
	"github.com/vuxuanquyet204/webantoan/internal/routes"
	"github.com/vuxuanquyet204/webantoan/internal/services"
	"github.com/vuxuanquyet204/webantoan/internal/wordlist"
	"github.com/vuxuanquyet204/webantoan/pkg/debug"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		debug.Error("Server exited: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	database, err := db.Connect(ctx, cfg.DatabaseURL, cfg.StartupRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	catalog := wordlist.NewCatalog(cfg.WordlistDir, nil)
	if err := catalog.EnsureDefaults(); err != nil {
		return err
	}

	potfile, err := services.NewPotfileService(cfg.PotfilePath())
	if err != nil {
		return err
	}

	jobRepo := repository.NewCrackJobRepository(database)
	userRepo := repository.NewUserRepository(database)

	if err := services.NewJobCleanupService(jobRepo).CleanupStaleJobsOnStartup(ctx); err != nil {
		return err
	}

	hub := services.NewJobEventHub()
	hub.Start()
	defer hub.Stop()

	crackService := services.NewCrackService(jobRepo, userRepo, catalog, cfg.MaxConcurrentJobs, cfg.TerminateGrace)
	crackService.SetNotifier(hub)
	crackService.SetPasswordRecorder(potfile)

	timeouts := services.NewJobTimeoutService(jobRepo, crackService, cfg.WorkerTimeout, cfg.TimeoutSweepSchedule)
	if err := timeouts.Start(); err != nil {
		return err
	}
	defer timeouts.Stop()

	stats := services.NewStatsService(jobRepo, newHostProbe())
	userService := services.NewUserService(userRepo)

	router := routes.NewRouter(
		auth.NewHandler(userService),
		crack.NewHandler(crackService, stats, catalog, potfile, hub),
		diagnostics.NewLogsHandler(),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		debug.Info("HTTP server listening on %s (max concurrent jobs: %d)", server.Addr, cfg.MaxConcurrentJobs)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
		debug.Info("Shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		debug.Warning("HTTP server shutdown: %v", err)
	}
	crackService.Shutdown(shutdownCtx)
	debug.Info("Server stopped")
	return nil
}

// newHostProbe returns the gopsutil monitor, or the mock monitor when
// USE_MOCK_HARDWARE is set or host detection fails
func newHostProbe() services.HostProbe {
	if os.Getenv("USE_MOCK_HARDWARE") == "true" {
		return hardware.NewMockMonitor()
	}
	monitor, err := hardware.NewMonitor()
	if err != nil {
		debug.Warning("Host monitor unavailable, using mock values: %v", err)
		return hardware.NewMockMonitor()
	}
	return monitor
}
