package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"miadmin/internal/amqp"
	"miadmin/internal/backend"
	"miadmin/internal/cli"
	"miadmin/internal/log"
	"miadmin/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap()
	logger.Info("Starting miadmin-events")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to consume ledger events")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Read-only access to the ledger; this process never publishes.
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	bcfg.AMQPURL = ""
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to open ledger backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer res.Cleanup()

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer consumer.Close()

	audit := worker.NewAuditWorker(res.Repository, logger, cfg.Location())

	logger.Info("Performing startup ledger check...")
	if _, err := audit.Check(ctx); err != nil {
		logger.Error("Startup ledger check failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.ConsumeLedgerEvents(gctx, func(ev *amqp.LedgerEvent) error {
			return audit.HandleLedgerEvent(gctx, ev)
		})
	})
	g.Go(func() error {
		return audit.RunPeriodic(gctx, cfg.AuditInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumer stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("miadmin-events stopped")
}
