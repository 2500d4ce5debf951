package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/rs/cors"
	"github.com/shopspring/decimal"

	"github.com/bizquote/backend/internal/auth"
	"github.com/bizquote/backend/internal/businesses"
	"github.com/bizquote/backend/internal/config"
	"github.com/bizquote/backend/internal/database"
	"github.com/bizquote/backend/internal/middleware"
	"github.com/bizquote/backend/internal/notify"
	"github.com/bizquote/backend/internal/payments"
	"github.com/bizquote/backend/internal/quotes"
	"github.com/bizquote/backend/internal/referrals"
	"github.com/bizquote/backend/internal/repository"
	"github.com/bizquote/backend/internal/router"
	"github.com/bizquote/backend/internal/subscriptions"
	"github.com/bizquote/backend/internal/wallet"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL (connection refused or invalid). Ensure Postgres is running, e.g. make dev-up or docker-compose up -d", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL database successfully!")

	if err := database.EnsureSchema(ctx, pool); err != nil {
		slog.Error("Schema setup failed", "error", err)
		os.Exit(1)
	}

	// River migrations
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed. If the error is 'connection refused', start PostgreSQL first (e.g. make dev-up)", "error", err)
		os.Exit(1)
	}
	slog.Info("River migrations applied")

	// Repositories
	walletRepo := repository.NewWalletRepo(pool)
	entryRepo := repository.NewEntryRepo(pool)
	withdrawalRepo := repository.NewWithdrawalRepo(pool)
	businessRepo := repository.NewBusinessRepo(pool)
	requestRepo := repository.NewQuoteRequestRepo(pool)
	responseRepo := repository.NewQuoteResponseRepo(pool)
	referralRepo := repository.NewReferralRepo(pool)
	transactionRepo := repository.NewTransactionRepo(pool)
	subscriptionRepo := repository.NewSubscriptionRepo(pool)

	// River insert funcs are set after the client is created (breaks the
	// init cycle between services, workers and the client).
	var insertMu sync.Mutex
	var insertNotifyFn notify.InsertFunc
	insertNotify := func(ctx context.Context, args notify.NotificationArgs) error {
		insertMu.Lock()
		fn := insertNotifyFn
		insertMu.Unlock()
		if fn == nil {
			panic("river insert not wired")
		}
		return fn(ctx, args)
	}
	var insertSettleFn payments.InsertSettleTxFunc
	insertSettle := func(ctx context.Context, tx pgx.Tx, args referrals.SettleCommissionArgs) error {
		insertMu.Lock()
		fn := insertSettleFn
		insertMu.Unlock()
		if fn == nil {
			panic("river insert not wired")
		}
		return fn(ctx, tx, args)
	}

	// Services
	walletSvc := wallet.NewService(pool, walletRepo, entryRepo, withdrawalRepo)
	notifier := notify.NewEnqueuer(insertNotify, logger)
	matcher := quotes.NewMatcher(requestRepo)
	quotesSvc := quotes.NewService(pool, requestRepo, responseRepo, walletSvc, walletSvc, notifier)
	rate := decimal.NewFromFloat(cfg.ReferralCommissionRate)
	referralsSvc := referrals.NewService(pool, transactionRepo, referralRepo, walletSvc, walletSvc, rate)
	paymentsSvc := payments.NewService(pool, transactionRepo, walletSvc, walletSvc, insertSettle)
	subsSvc := subscriptions.NewService(pool, subscriptionRepo, walletSvc, walletSvc)
	businessSvc := businesses.NewService(businessRepo)

	// Workers
	workers := river.NewWorkers()
	river.AddWorker(workers, quotes.NewExpireWorker(requestRepo, notifier, logger))
	river.AddWorker(workers, subscriptions.NewExpireWorker(subscriptionRepo, logger))
	river.AddWorker(workers, referrals.NewSettleWorker(referralsSvc, logger))
	river.AddWorker(workers, notify.NewDeliverWorker(cfg.NotifySinkURL, cfg.NotifyTimeout, logger))

	periodic := []*river.PeriodicJob{
		river.NewPeriodicJob(
			river.PeriodicInterval(cfg.SweepInterval),
			func() (river.JobArgs, *river.InsertOpts) { return quotes.ExpireRequestsArgs{}, nil },
			&river.PeriodicJobOpts{RunOnStart: true},
		),
		river.NewPeriodicJob(
			river.PeriodicInterval(cfg.SweepInterval),
			func() (river.JobArgs, *river.InsertOpts) { return subscriptions.ExpireSubscriptionsArgs{}, nil },
			&river.PeriodicJobOpts{RunOnStart: true},
		),
	}

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers:      workers,
		PeriodicJobs: periodic,
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	insertMu.Lock()
	insertNotifyFn = func(ctx context.Context, args notify.NotificationArgs) error {
		_, err := riverClient.Insert(ctx, args, nil)
		return err
	}
	insertSettleFn = func(ctx context.Context, tx pgx.Tx, args referrals.SettleCommissionArgs) error {
		_, err := riverClient.InsertTx(ctx, tx, args, nil)
		return err
	}
	insertMu.Unlock()

	// Auth & handlers
	authRepo := auth.NewRepository(pool)
	authSvc := auth.NewService(authRepo, cfg.JWTSecret, cfg.WalletCurrency)
	authHandler := auth.NewHandler(authSvc, logger)
	businessHandler := businesses.NewHandler(businessSvc, logger)
	quotesHandler := quotes.NewHandler(quotesSvc, matcher, logger)
	walletHandler := wallet.NewHandler(walletSvc, logger)
	paymentsHandler := payments.NewHandler(paymentsSvc, logger)
	subsHandler := subscriptions.NewHandler(subsSvc, logger)

	authMW := middleware.Auth(authSvc, authRepo)
	businessMW := middleware.RequireBusiness(businessRepo)

	apiRouter := router.New(authHandler, businessHandler, quotesHandler, walletHandler, paymentsHandler, subsHandler, authMW, businessMW)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
	}).Handler(apiRouter)

	// Start River client (processes jobs and periodic sweeps)
	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	serverAddr := "0.0.0.0:" + cfg.Port
	slog.Info("Starting HTTP server", "addr", serverAddr)
	if err := http.ListenAndServe(serverAddr, corsHandler); err != nil {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
}
