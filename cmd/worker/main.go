package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-pos/odyssey-pos/internal/app"
	"github.com/odyssey-pos/odyssey-pos/internal/dashboard"
	jobmetrics "github.com/odyssey-pos/odyssey-pos/internal/jobs"
	"github.com/odyssey-pos/odyssey-pos/internal/platform/cache"
	"github.com/odyssey-pos/odyssey-pos/internal/platform/db"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/transactions"
	"github.com/odyssey-pos/odyssey-pos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg).With(slog.String("component", "worker"))

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := jobmetrics.NewMetrics(nil)

	dashboardService := dashboard.NewService(
		dashboard.NewRepository(pool),
		dashboard.NewCache(redisClient, cfg.DashboardCacheTTL),
		dashboard.Config{Location: cfg.Location(), TopSellingLimit: cfg.TopSellingLimit},
		logger,
	)
	warmupJob := &jobs.DashboardWarmupJob{Dashboard: dashboardService, Logger: logger, Metrics: metrics}

	receiptJob := &jobs.ReceiptEmailJob{
		Transactions: transactions.NewService(transactions.NewRepository(pool), transactions.Deps{Logger: logger}),
		Mailer:       jobs.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom),
		StoreName:    cfg.StoreName,
		Logger:       logger,
		Metrics:      metrics,
	}

	cleanupJob := &jobs.IdempotencyCleanupJob{
		Store:   shared.NewIdempotencyStore(),
		DB:      pool,
		Logger:  logger,
		Metrics: metrics,
	}

	warmupTask, err := jobs.NewDashboardWarmupTask(jobs.DashboardWarmupPayload{Source: "schedule"})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Location:    cfg.Location(),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReceiptEmail, Handler: receiptJob.Handle},
			{Type: jobs.TaskDashboardWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: jobs.NightlyWarmupSpec, Task: warmupTask, Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
			{Spec: "30 3 * * *", Task: jobs.NewIdempotencyCleanupTask(), Options: []asynq.Option{asynq.Queue(jobs.QueueDefault)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
