package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	authapp "coin-wallet/internal/application/auth"
	currencyapp "coin-wallet/internal/application/currency"
	historyapp "coin-wallet/internal/application/history"
	paymentapp "coin-wallet/internal/application/payment"
	rewardapp "coin-wallet/internal/application/reward"
	"coin-wallet/internal/domain/coin"
	"coin-wallet/internal/domain/service"
	"coin-wallet/internal/infrastructure/config"
	"coin-wallet/internal/infrastructure/gateway/midtrans"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
	"coin-wallet/internal/infrastructure/persistence/mysql"
	"coin-wallet/internal/infrastructure/queue"
	grpcserver "coin-wallet/internal/presentation/grpc"
	"coin-wallet/internal/presentation/rest"

	"github.com/shopspring/decimal"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// OpenTelemetryの初期化
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

	// ロガーとメトリクスの初期化
	tracer := otelinfra.Tracer("coin-wallet")
	logger := otelinfra.NewLogger(tracer).WithService("coin-wallet-api")
	logger.SetLevel(otelinfra.ParseLogLevel(cfg.LogLevel))
	metrics, err := otelinfra.NewMetrics("coin-wallet")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	// データベース接続の初期化
	db, err := mysql.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// リポジトリの初期化
	walletRepo := mysql.NewWalletRepository(db)
	transactionRepo := mysql.NewTransactionRepository(db)
	packageRepo := mysql.NewPackageRepository(db)
	paymentRepo := mysql.NewPaymentRepository(db)
	taskRepo := mysql.NewRewardTaskRepository(db)
	txManager := mysql.NewTransactionManager(db)

	// ドメインサービスの初期化
	creditService := service.NewCreditService(walletRepo, transactionRepo, txManager)

	// 決済ゲートウェイと確定キュー（無効な場合は nil のまま渡す）
	var gateway paymentapp.Gateway
	if cfg.Gateway.Enabled {
		gateway = midtrans.NewGateway(&cfg.Gateway, logger)
	} else {
		logger.Warn(context.Background(), "Payment gateway disabled, purchases will be rejected", nil)
	}

	var settlementQueue paymentapp.SettlementQueue
	if cfg.Redis.Enabled {
		queueClient := queue.NewClient(&cfg.Redis, logger)
		defer queueClient.Close()
		settlementQueue = queueClient
	}

	// アプリケーションサービスの初期化
	authAppService := authapp.NewAuthApplicationService(&cfg.JWT, logger)
	currencyAppService := currencyapp.NewCurrencyApplicationService(walletRepo, packageRepo, logger, metrics)
	historyAppService := historyapp.NewHistoryApplicationService(transactionRepo, logger, metrics, cfg.Wallet.HistoryMaxLimit)
	paymentAppService := paymentapp.NewPaymentApplicationService(
		paymentRepo,
		packageRepo,
		creditService,
		gateway,
		settlementQueue,
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
	rewardAppService := rewardapp.NewRewardApplicationService(taskRepo, creditService, logger, metrics)

	// REST APIルーターの初期化
	router, err := rest.NewRouter(cfg, logger, metrics, rest.Services{
		Auth:     authAppService,
		Currency: currencyAppService,
		History:  historyAppService,
		Payment:  paymentAppService,
		Reward:   rewardAppService,
	}, db)
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	// gRPCサーバーの初期化
	grpcSrv, err := grpcserver.NewServer(cfg, logger, grpcserver.Services{
		Auth:     authAppService,
		Currency: currencyAppService,
		History:  historyAppService,
		Payment:  paymentAppService,
		Reward:   rewardAppService,
	})
	if err != nil {
		log.Fatalf("Failed to create gRPC server: %v", err)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go grpcSrv.WatchDatabase(ctx, db, 15*time.Second)

	// REST APIサーバーを別ゴルーチンで起動
	go func() {
		logger.Info(ctx, "REST API server starting", map[string]interface{}{
			"address": httpServer.Addr,
		})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "REST API server error", err, nil)
			stop()
		}
	}()

	// gRPCサーバーを別ゴルーチンで起動
	go func() {
		if err := grpcSrv.Start(); err != nil {
			logger.Error(ctx, "gRPC server error", err, nil)
			stop()
		}
	}()

	// シグナルを待機
	<-ctx.Done()
	logger.Info(context.Background(), "Shutting down servers", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Error shutting down REST API server", err, nil)
	}
	if err := grpcSrv.Stop(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Error shutting down gRPC server", err, nil)
	}

	logger.Info(context.Background(), "Servers stopped", nil)
}
