package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"moneta/internal/amqp"
	"moneta/internal/cli"
	"moneta/internal/log"
	"moneta/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentRecurring)

	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	location := cfg.Location()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Without the queue the sweep still materializes transactions; only the
	// notification emails are skipped.
	var publisher services.NotificationPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, continuing without notifications", log.FieldError, err)
	} else {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	processor := services.NewRecurringProcessor(repo, publisher, location)
	reminder := services.NewEventReminder(repo, publisher, location)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Recurring sweep configured",
		"interval", cfg.RecurringInterval.String(),
		"timezone", location.String(),
		"sqlite_db", cfg.SQLiteDBPath)

	sweep := func() {
		count, err := processor.ProcessDue(ctx)
		if err != nil {
			logger.Error("Recurring sweep failed", log.FieldError, err)
		} else if count > 0 {
			logger.Info("Recurring sweep complete", log.FieldProcessed, count)
		}

		reminded, err := reminder.RemindDue(ctx)
		if err != nil {
			logger.Error("Event reminder sweep failed", log.FieldError, err)
		} else if reminded > 0 {
			logger.Info("Event reminders queued", log.FieldCount, reminded)
		}
	}

	// Run once on startup, then on the ticker.
	sweep()

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Recurring-worker shutting down")
			return
		case <-ticker.C:
			sweep()
		}
	}
}
