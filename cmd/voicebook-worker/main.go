package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"voicebook/internal/amqp"
	"voicebook/internal/backend"
	"voicebook/internal/cli"
	applog "voicebook/internal/log"
	"voicebook/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL")).WithComponent(applog.ComponentWorker)
	logger.Info("Starting voicebook-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	// The worker reads the store; it consumes notifications instead of
	// publishing them, so the backend is opened without AMQP.
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	bcfg.AMQPURL = ""
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", bcfg.Type)
		os.Exit(1)
	}
	defer res.Cleanup()

	exporter, err := cli.NewSheetsExporter(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	if exporter == nil {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	} else {
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	w := worker.NewSummaryWorker(res.Store, exporter, cfg.Clock())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Catch up once so the mirror reflects changes made while the worker was down.
		if err := w.HandleChange(gctx, &amqp.LedgerChangeMessage{Op: applog.OpStartup}); err != nil {
			logger.Error("Startup refresh failed", applog.FieldError, err)
		}
		return nil
	})
	g.Go(func() error {
		return client.ConsumeLedgerChanges(gctx, w.HandleChange)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
