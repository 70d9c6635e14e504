package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"voicebook/internal/cli"
	apphttp "voicebook/internal/http"
	applog "voicebook/internal/log"
)

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	cfg, res, logger := cli.Bootstrap(ctx)
	svc := cli.NewService(cfg, res)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close ledger", applog.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		RateLimitPerMin: cfg.RateLimitPerMin,
		TrustedProxies:  cfg.TrustedProxies,
		Logger:          logger,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting voicebook server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"notifications", res.Notifier != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
