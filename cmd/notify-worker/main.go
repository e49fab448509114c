package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"moneta/internal/amqp"
	"moneta/internal/cli"
	"moneta/internal/log"
	"moneta/internal/mail"
	"moneta/internal/mail/gmail"
	"moneta/internal/mail/memory"
	"moneta/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)

	logger.Info("Starting notify-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// Gmail when a sender address is configured, otherwise the in-memory
	// recorder so local runs consume the queue without sending anything.
	var mailer mail.Sender
	if cfg.GmailSender != "" {
		client, err := gmail.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Gmail client", log.FieldError, err)
			os.Exit(1)
		}
		mailer = client
		logger.Info("Gmail sender initialized", "sender", cfg.GmailSender)
	} else {
		mailer = memory.New()
		logger.Warn("GMAIL_SENDER not set, emails are recorded in memory only")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	notifyWorker := worker.NewNotifyWorker(repo, mailer, cfg.AppBaseURL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Consuming notification messages", "queue", cfg.AMQPQueue)
	err = amqpClient.ConsumeNotifications(ctx, func(msg *amqp.NotificationMessage) error {
		return notifyWorker.HandleMessage(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Notify-worker stopped")
}
