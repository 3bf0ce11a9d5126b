package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	appoutbox "luxrent/internal/app/outbox"
	"luxrent/internal/infra/config"
	ginserver "luxrent/internal/infra/http/gin"
	"luxrent/internal/infra/obs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API, outbox worker and schedulers",
	RunE:  runServe,
}

func init() {
	flags := serveCmd.Flags()
	flags.String("http-addr", "", "listen address, e.g. :8080")
	flags.String("storage", "", "storage mode: memory or mongo")
	flags.String("fixtures", "", "cars fixtures file for memory storage")
	mustBind(settings.BindPFlag("http_addr", flags.Lookup("http-addr")))
	mustBind(settings.BindPFlag("storage_mode", flags.Lookup("storage")))
	mustBind(settings.BindPFlag("cars_fixtures", flags.Lookup("fixtures")))
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(settings)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		app.close(shutdownCtx, logger)
	}()

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger, Propagate: appoutbox.WithCorrelationID}, obs.HealthHandlers{Checks: app.checks}, app.handlers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := app.worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("outbox worker: %w", err)
		}
		return nil
	})
	if app.consumer != nil {
		g.Go(func() error {
			logger.Info("kafka consumer starting", "topics", app.topics, "group", cfg.KafkaGroupID)
			if err := app.consumer.Run(gctx, app.topics); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("kafka consumer: %w", err)
			}
			return nil
		})
	}
	app.scheduler.Start()
	defer app.scheduler.Stop()

	err = g.Wait()
	logger.Info("HTTP server stopped")
	return err
}
