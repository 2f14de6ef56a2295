package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	paymentapp "coin-wallet/internal/application/payment"
	"coin-wallet/internal/domain/coin"
	"coin-wallet/internal/domain/service"
	"coin-wallet/internal/infrastructure/config"
	"coin-wallet/internal/infrastructure/gateway/midtrans"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
	"coin-wallet/internal/infrastructure/persistence/mysql"
	"coin-wallet/internal/infrastructure/queue"
	"coin-wallet/internal/infrastructure/scheduler"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if !cfg.Redis.Enabled {
		log.Fatalf("REDIS_ENABLED must be true to run the worker")
	}
	if !cfg.Gateway.Enabled {
		log.Fatalf("MIDTRANS_ENABLED must be true to run the worker")
	}

	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown tracer: %v", err)
		}
	}()

	meterShutdown, err := otelinfra.InitMeter(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterShutdown(ctx); err != nil {
			log.Printf("Failed to shutdown meter: %v", err)
		}
	}()

	logger := otelinfra.NewLogger(otelinfra.Tracer("coin-wallet-worker")).WithService("coin-wallet-worker")
	logger.SetLevel(otelinfra.ParseLogLevel(cfg.LogLevel))
	metrics, err := otelinfra.NewMetrics("coin-wallet-worker")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	db, err := mysql.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	walletRepo := mysql.NewWalletRepository(db)
	transactionRepo := mysql.NewTransactionRepository(db)
	creditService := service.NewCreditService(walletRepo, transactionRepo, mysql.NewTransactionManager(db))

	// ワーカー自身は通知を受けないためキューは渡さない
	paymentAppService := paymentapp.NewPaymentApplicationService(
		mysql.NewPaymentRepository(db),
		mysql.NewPackageRepository(db),
		creditService,
		midtrans.NewGateway(&cfg.Gateway, logger),
		nil,
		paymentapp.Settings{
			TopUpBounds: coin.TopUpBounds{
				Min: decimal.NewFromInt(cfg.Wallet.TopUpMinRupees),
				Max: decimal.NewFromInt(cfg.Wallet.TopUpMaxRupees),
			},
			PaymentExpiry: cfg.Wallet.PaymentExpiry,
		},
		logger,
		metrics,
	)

	srv := asynq.NewServer(queue.RedisOpt(&cfg.Redis), asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			queue.QueueCritical: 6,
			queue.QueueDefault:  3,
		},
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	expiry, err := scheduler.New(cfg.Wallet.ExpirySchedule, paymentAppService, logger)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	mux := queue.NewServeMux(queue.NewHandler(paymentAppService, logger))
	if err := srv.Start(mux); err != nil {
		log.Fatalf("Failed to start worker: %v", err)
	}
	expiry.Start()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Worker started", map[string]interface{}{
		"expiry_schedule": cfg.Wallet.ExpirySchedule,
	})
	<-ctx.Done()

	logger.Info(context.Background(), "Shutting down worker", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := expiry.Stop(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Scheduler did not stop in time", err, nil)
	}
	srv.Shutdown()
	logger.Info(context.Background(), "Worker stopped", nil)
}
