package main

import (
	"context"
	"os"
	"time"

	"ledgerbot/internal/cli"
	"ledgerbot/internal/engine"
	"ledgerbot/internal/gateway"
	"ledgerbot/internal/ledger"
	"ledgerbot/internal/ledger/memory"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting ledgerbot")

	cfg := cli.LoadAndValidateConfig(logger)

	var store ledger.Store
	closeStore := func() error { return nil }
	switch cfg.DataBackend {
	case "memory":
		store = memory.New()
		logger.Info("Initialized memory ledger backend")
	default:
		repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
		store = repo
		closeStore = repo.Close
		logger.Info("Initialized SQLite ledger backend", "path", cfg.SQLiteDBPath)
	}

	client, err := gateway.NewClient(cfg.AMQPURL, cfg.AMQPExchange,
		cfg.AMQPInboundQueue, cfg.AMQPOutboundQueue, cfg.AMQPExportQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP gateway", "error", err)
		os.Exit(1)
	}

	eng := engine.New(store, client)
	dispatcher := gateway.NewDispatcher(eng, client)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		client.Close()
		if err := closeStore(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	})

	dispatcher.Start(ctx)

	go func() {
		err := client.ConsumeInbound(ctx, func(msg *gateway.InboundMessage) error {
			return dispatcher.Dispatch(msg)
		})
		if err != nil && err != context.Canceled {
			logger.Error("Chat event consumption failed", "error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	if err := dispatcher.Wait(); err != nil {
		logger.Error("Dispatcher stopped with error", "error", err)
	}
	logger.Info("ledgerbot stopped")
}
