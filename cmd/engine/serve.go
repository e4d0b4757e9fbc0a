package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DanielPopoola/ficmart-payment-engine/internal/interfaces/rest/docs"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/ficmart-payment-engine/internal/worker/reauthorize"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook endpoint, the job runner and the re-authorization scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(migrate)
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply database migrations before starting")

	return cmd
}

func runServe(migrate bool) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	logger.Info("starting payment engine",
		"port", cfg.Server.Port,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()

	if migrate && cfg.Database.Driver == "postgres" {
		if err := applyMigrations(ctx, cfg, logger); err != nil {
			return err
		}
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := docs.Load(ctx)
	if err != nil {
		return err
	}

	h := handlers.NewHandlers(a.webhooks, doc, logger)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handlers.NewRouter(h, cfg.Server.ReadTimeout, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	go a.newRunner().Start(workerCtx)

	if cfg.Reauthorization.Enabled {
		scheduler := reauthorize.NewScheduler(a.queue, cfg.Reauthorization.Interval, logger.With("component", "reauthorize_scheduler"))
		go scheduler.Start(workerCtx)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		logger.Error("server error", "error", err)
		cancelWorkers()
		return err
	}

	logger.Info("shutting down server...")

	cancelWorkers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
	return nil
}
