package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-pos/odyssey-pos/internal/app"
	"github.com/odyssey-pos/odyssey-pos/internal/auth"
	"github.com/odyssey-pos/odyssey-pos/internal/dashboard"
	dashboardhttp "github.com/odyssey-pos/odyssey-pos/internal/dashboard/http"
	"github.com/odyssey-pos/odyssey-pos/internal/masterdata"
	"github.com/odyssey-pos/odyssey-pos/internal/observability"
	"github.com/odyssey-pos/odyssey-pos/internal/platform/cache"
	"github.com/odyssey-pos/odyssey-pos/internal/platform/db"
	"github.com/odyssey-pos/odyssey-pos/internal/rbac"
	"github.com/odyssey-pos/odyssey-pos/internal/shared"
	"github.com/odyssey-pos/odyssey-pos/internal/transactions"
	"github.com/odyssey-pos/odyssey-pos/internal/users"
	"github.com/odyssey-pos/odyssey-pos/internal/view"
	"github.com/odyssey-pos/odyssey-pos/jobs"
	"github.com/odyssey-pos/odyssey-pos/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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

	sessionManager := shared.NewSessionManager(redisClient, "pos_session", cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	rbacService := rbac.NewService(dbpool)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}
	responder := view.Responder{
		Logger:    logger,
		Templates: templates,
		CSRF:      csrfManager,
		Permissions: func(r *http.Request) []string {
			perms, _ := rbac.PermissionsFromContext(r.Context())
			return perms
		},
	}
	metrics := observability.NewMetrics()

	dashboardCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)
	dashboardService := dashboard.NewService(dashboard.NewRepository(dbpool), dashboardCache, dashboard.Config{
		Location:        cfg.Location(),
		TopSellingLimit: cfg.TopSellingLimit,
	}, logger)
	go func() {
		err := dashboardCache.ListenForInvalidation(ctx, func(version int64) {
			logger.Info("dashboard cache invalidated", slog.Int64("version", version))
		})
		if err != nil && ctx.Err() == nil {
			logger.Warn("dashboard invalidation listener", slog.Any("error", err))
		}
	}()

	catalog := masterdata.NewServices(dbpool, dashboardService, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	var pdf transactions.PDFRenderer
	var pdfPing app.Pinger
	if cfg.GotenbergURL != "" {
		client := report.NewClient(cfg.GotenbergURL, report.ReceiptPaper)
		pdf, pdfPing = client, client
	}

	transactionService := transactions.NewService(transactions.NewRepository(dbpool), transactions.Deps{
		Logger:      logger,
		Audit:       shared.NewAuditLogger(dbpool),
		Invalidator: dashboardService,
		Notifier:    jobClient,
		Metrics:     metrics,
		StockPolicy: transactions.ParseStockPolicy(cfg.CheckoutStockPolicy),
	})
	transactionHandler := transactions.NewHandler(logger, transactionService, transactions.Options{
		Products:       catalog.Products,
		Discounts:      catalog.Discounts,
		PaymentMethods: catalog.PaymentMethods,
	}, pdf, responder, rbacMiddleware)

	usersService := users.NewService(users.NewRepository(dbpool), dashboardService, logger)
	authService := auth.NewService(auth.NewRepository(dbpool), logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Responder:      responder,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		RBACMiddleware: rbacMiddleware,
		Metrics:        metrics,
		HealthChecks: []app.HealthCheck{
			{Name: "postgres", Pinger: app.PingFunc(dbpool.Ping)},
			{Name: "redis", Pinger: app.PingFunc(func(ctx context.Context) error { return redisPing(ctx, redisClient) })},
			{Name: "gotenberg", Pinger: pdfPing, Optional: true},
		},
		AuthHandler:         auth.NewHandler(logger, authService, responder, sessionManager),
		UsersHandler:        users.NewHandler(logger, usersService, rbacService, responder, rbacMiddleware),
		MasterDataHandler:   masterdata.NewHandler(logger, catalog, responder, rbacMiddleware),
		TransactionsHandler: transactionHandler,
		DashboardHandler:    dashboardhttp.NewHandler(logger, dashboardService, responder, rbacMiddleware),
		JobHandler:          jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("timezone", cfg.Location().String()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

func redisPing(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
