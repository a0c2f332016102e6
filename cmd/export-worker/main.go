package main

import (
	"context"
	"os"
	"time"

	"ledgerbot/internal/cli"
	"ledgerbot/internal/gateway"
	gsheet "ledgerbot/internal/sheets/google"
	"ledgerbot/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting export-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	// The worker reads the durable ledger regardless of the bot's backend.
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	var sheetsClient *gsheet.Client
	if cfg.GoogleSpreadsheetID != "" {
		var err error
		sheetsClient, err = gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := gateway.NewClient(cfg.AMQPURL, cfg.AMQPExchange,
		cfg.AMQPInboundQueue, cfg.AMQPOutboundQueue, cfg.AMQPExportQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		amqpClient.Close()
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close store", "error", err)
		}
	})

	if sheetsClient == nil {
		logger.Info("Skipping report export - no sheets client available")
		cli.WaitForShutdown(ctx, done)
		return
	}

	exportWorker := worker.NewExportWorker(repo, sheetsClient)

	go func() {
		err := amqpClient.ConsumeReportRequests(ctx, func(msg *gateway.ReportRequestMessage) error {
			return exportWorker.HandleReportRequest(ctx, msg)
		})
		if err != nil && err != context.Canceled {
			logger.Error("Report request consumption failed", "error", err)
		}
	}()

	// Periodic backup export of the current month.
	go func() {
		ticker := time.NewTicker(cfg.ExportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := exportWorker.ExportCurrentMonth(ctx); err != nil {
					logger.Error("Periodic export failed", "error", err)
				}
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("export-worker stopped")
}
