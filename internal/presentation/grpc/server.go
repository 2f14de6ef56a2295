package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	currencyapp "coin-wallet/internal/application/currency"
	historyapp "coin-wallet/internal/application/history"
	paymentapp "coin-wallet/internal/application/payment"
	rewardapp "coin-wallet/internal/application/reward"
	"coin-wallet/internal/infrastructure/config"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
	"coin-wallet/internal/presentation/grpc/handler"
	"coin-wallet/internal/presentation/grpc/interceptor"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// Services gRPCで公開するアプリケーションサービス
type Services struct {
	Auth     interceptor.TokenValidator
	Currency *currencyapp.CurrencyApplicationService
	History  *historyapp.HistoryApplicationService
	Payment  *paymentapp.PaymentApplicationService
	Reward   *rewardapp.RewardApplicationService
}

// Pinger ヘルスチェックで疎通を確認する依存先
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server gRPCサーバー
type Server struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
	port     int
	logger   *otelinfra.Logger
}

// NewServer 新しいgRPCサーバーを作成
func NewServer(cfg *config.Config, logger *otelinfra.Logger, services Services) (*Server, error) {
	address := fmt.Sprintf(":%d", cfg.Server.GRPCPort)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	return NewServerWithListener(cfg, logger, services, listener)
}

// NewServerWithListener リスナーを指定してgRPCサーバーを作成（テスト用）
func NewServerWithListener(cfg *config.Config, logger *otelinfra.Logger, services Services, listener net.Listener) (*Server, error) {
	if services.Auth == nil {
		return nil, errors.New("auth service is required")
	}

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			interceptor.LoggingInterceptor(logger),
			interceptor.AuthInterceptor(services.Auth, logger, "/"+handler.WalletServiceName+"/"),
			interceptor.APIKeyInterceptor(&cfg.AdminAPI, logger, "/"+handler.AdminServiceName+"/"),
		),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     15 * time.Second,
			MaxConnectionAge:      30 * time.Second,
			MaxConnectionAgeGrace: 5 * time.Second,
			Time:                  5 * time.Second,
			Timeout:               1 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	}

	grpcServer := grpc.NewServer(opts...)

	grpcServer.RegisterService(&handler.WalletServiceDesc, handler.NewWalletHandler(
		services.Currency,
		services.History,
		services.Payment,
		services.Reward,
	))
	grpcServer.RegisterService(&handler.AdminServiceDesc, handler.NewAdminHandler(
		services.Currency,
		services.Payment,
	))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(handler.WalletServiceName, healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(handler.AdminServiceName, healthpb.HealthCheckResponse_SERVING)

	// リフレクションを有効化（開発環境用）
	if cfg.Environment == "development" {
		reflection.Register(grpcServer)
	}

	port := 0
	if addr, ok := listener.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}

	return &Server{
		server:   grpcServer,
		health:   healthServer,
		listener: listener,
		port:     port,
		logger:   logger,
	}, nil
}

// Start サーバーを起動
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "gRPC server starting", map[string]interface{}{
		"port": s.port,
	})
	if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// SetServing 全サービスのヘルス状態を更新
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(handler.WalletServiceName, st)
	s.health.SetServingStatus(handler.AdminServiceName, st)
}

// WatchDatabase ctx が終わるまで interval ごとにDB疎通を確認し、ヘルス状態に反映する
func (s *Server) WatchDatabase(ctx context.Context, db Pinger, interval time.Duration) {
	check := func() {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			s.logger.Warn(ctx, "Database ping failed", map[string]interface{}{
				"error": err.Error(),
			})
			s.SetServing(false)
			return
		}
		s.SetServing(true)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

// Stop サーバーを停止
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info(ctx, "Stopping gRPC server", nil)
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		s.logger.Info(ctx, "gRPC server stopped", nil)
		return nil
	case <-ctx.Done():
		// タイムアウトした場合は強制停止
		s.logger.Warn(ctx, "gRPC server shutdown timeout, forcing stop", nil)
		s.server.Stop()
		return ctx.Err()
	}
}

// Port サーバーのポート番号を返す
func (s *Server) Port() int {
	return s.port
}
