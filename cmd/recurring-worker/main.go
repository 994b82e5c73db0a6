package main

import (
	"context"
	"os"

	"fintrack/internal/cli"
	"fintrack/internal/clock"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentScheduler)
	logger.Info("Starting recurring-worker", "schedule", cfg.RecurringSchedule, "backend", cfg.DataBackend)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	be := cli.OpenBackend(ctx, logger, cfg, false)
	defer cli.Close(logger.Logger, "backend", be.Cleanup)
	if be.Publisher == nil {
		logger.Info("AMQP disabled - materialised transactions will not sync to Google Sheets")
	}

	engine := services.NewRecurrenceEngine(be.Store, clock.System{}, be.Publisher)
	scheduler := services.NewRecurringScheduler(engine, services.SchedulerConfig{
		Spec:       cfg.RecurringSchedule,
		RunOnStart: true,
	})
	if err := scheduler.Start(ctx); err != nil {
		logger.Error("Failed to start scheduler", log.FieldError, err, "schedule", cfg.RecurringSchedule)
		cli.Close(logger.Logger, "backend", be.Cleanup)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Shutting down recurring-worker...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer stopCancel()
	if err := scheduler.Stop(stopCtx); err != nil {
		logger.Warn("Scheduler did not stop cleanly", log.FieldError, err)
	}
	logger.Info("Recurring-worker shutdown complete")
}
