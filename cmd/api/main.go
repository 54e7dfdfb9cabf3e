package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"akasync/internal/interfaces/scheduler"
	"akasync/internal/shared/config"
	"akasync/internal/shared/logger"
	"akasync/internal/shared/telemetry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "application error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	ctx := context.Background()

	var shutdownTelemetry func(context.Context) error
	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err = telemetry.Init(ctx, telemetry.Config{
			ServiceName:  cfg.Telemetry.ServiceName,
			OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
			MetricsPort:  cfg.Telemetry.MetricsPort,
		}, log)
		if err != nil {
			return err
		}
	}

	deps, err := NewDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	sched := scheduler.New(scheduler.Config{
		Interval:     cfg.Sync.Interval,
		RunOnStartup: cfg.Sync.RunOnStartup,
		Workers:      cfg.Sync.Workers,
		QueueSize:    cfg.Sync.QueueSize,
	}, func() scheduler.Job {
		return scheduler.NewSyncJob(deps.Reconciler)
	}, log)
	sched.Start()

	handler := SetupRoutes(deps, sched, cfg, log)
	srv := StartServer(cfg.Server.Host+":"+cfg.Server.Port, handler, log)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	GracefulShutdown(srv, sched, 30*time.Second, log)

	if shutdownTelemetry != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("telemetry shutdown error")
		}
	}

	return nil
}
