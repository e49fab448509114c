package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"moneta/internal/amqp"
	"moneta/internal/auth"
	"moneta/internal/chat"
	"moneta/internal/cli"
	apphttp "moneta/internal/http"
	"moneta/internal/log"
	"moneta/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)

	cfg := cli.LoadAndValidateConfig(logger)
	location := cfg.Location()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	// The notification queue is optional: without it the API still works,
	// emails are just never sent.
	var publisher services.NotificationPublisher
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("AMQP unavailable, notifications disabled", log.FieldError, err)
	} else {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	hasher := auth.NewHasher(cfg.BcryptCost)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	analysisService := services.NewAnalysisService(repo, location)
	authService := services.NewAuthService(repo, hasher, tokens, publisher)
	transactionService := services.NewTransactionService(repo, analysisService)
	categoryService := services.NewCategoryService(repo)
	eventService := services.NewEventService(repo, location)
	adminService := services.NewAdminService(repo)
	recurringProcessor := services.NewRecurringProcessor(repo, publisher, location)
	chatClient := chat.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:         authService,
		Transactions: transactionService,
		Categories:   categoryService,
		Analysis:     analysisService,
		Events:       eventService,
		Admin:        adminService,
		Chat:         chatClient,
		Recurring:    recurringProcessor,
		CronSecret:   cfg.CronSecret,
		Logger:       logger,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting moneta server", "port", cfg.Port, "timezone", location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
