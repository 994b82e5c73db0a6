package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/clock"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/sheets/google"
	"fintrack/internal/worker"
)

func main() {
	reconcileDays := flag.Int("reconcile-days", 0,
		"on startup, append transactions of the last N days missing from the sheet (0 disables)")
	flag.Parse()

	cfg, logger := cli.Bootstrap(log.ComponentWorker)
	if err := cfg.ValidateSync(); err != nil {
		logger.Error("Sync configuration invalid", log.FieldError, err, "error_type", log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	logger.Info("Starting fintrack-worker",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName,
		"queue", cfg.AMQPQueue)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	sheetsClient, err := google.New(ctx, google.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}
	syncWorker := worker.NewSyncWorker(sheetsClient, sheetsClient)

	if *reconcileDays > 0 {
		reconcile(ctx, logger, cfg, syncWorker, *reconcileDays)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer cli.Close(logger.Logger, "amqp", amqpClient.Close)

	logger.Info("Consuming transaction events", log.FieldOperation, log.OpSync)
	err = amqpClient.ConsumeTransactionCreated(ctx, syncWorker.HandleTransactionCreated)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		cli.Close(logger.Logger, "amqp", amqpClient.Close)
		os.Exit(1)
	}
	logger.Info("Fintrack-worker shutdown complete")
}

// reconcile opens the configured store only for the duration of the pass.
func reconcile(ctx context.Context, logger *log.Logger, cfg *config.Config, w *worker.SyncWorker, days int) {
	storeOnly := *cfg
	storeOnly.AMQPURL = ""
	be := cli.OpenBackend(ctx, logger, &storeOnly, false)
	defer cli.Close(logger.Logger, "backend", be.Cleanup)

	today := clock.System{}.Today()
	from, to := today.AddDays(-days), today.AddDays(1)

	start := time.Now()
	res, err := w.Reconcile(ctx, be.Store, from, to)
	if err != nil {
		logger.Error("Ledger reconcile failed", log.FieldError, err, log.FieldOperation, log.OpSync)
		return
	}
	logger.Info("Ledger reconcile finished",
		"from", from.String(),
		"to", to.String(),
		"checked", res.Checked,
		"appended", res.Appended,
		"errors", res.Errors,
		log.FieldDuration, time.Since(start).Milliseconds())
}
