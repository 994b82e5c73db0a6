package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/clock"
	apphttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/rates"
	"fintrack/internal/services"
)

const cacheSweepInterval = 5 * time.Minute

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentApp)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	be := cli.OpenBackend(ctx, logger, cfg, false)
	defer cli.Close(logger.Logger, "backend", be.Cleanup)

	clk := clock.System{}
	store := be.Store
	transactions := services.NewTransactionService(store, clk, be.Publisher)
	budgets := services.NewBudgetService(store, clk)
	savings := services.NewSavingsService(store, clk)
	engine := services.NewRecurrenceEngine(store, clk, be.Publisher)
	categories := services.NewCategoryService(store)

	caches := cache.NewManager()
	rateClient := rates.New(rates.Config{
		BaseURL:  cfg.ExchangeRateBaseURL,
		Timeout:  cfg.ExchangeRateTimeout,
		CacheTTL: cfg.ExchangeRateCacheTTL,
	})
	caches.Register(rateClient.Cache())
	caches.StartCleanup(cacheSweepInterval)
	defer caches.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Users:        store,
		Registration: services.NewRegistration(store),
		Transactions: transactions,
		Categories:   categories,
		Budgets:      budgets,
		Savings:      savings,
		Recurring:    engine,
		Stats:        services.NewStatsService(transactions, categories, budgets, savings, engine, clk),
		Admin:        services.NewAdminService(store, engine),
		Rates:        rateClient,
		Clock:        clk,
		Ready:        be.Ping,
	}, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger.WithComponent(log.ComponentHTTP),
		Caches:             caches,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting fintrack server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"events", be.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			cli.Close(logger.Logger, "backend", be.Cleanup)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err, log.FieldOperation, log.OpShutdown)
	}
	logger.Info("Server stopped gracefully")
}
