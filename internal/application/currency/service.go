package currency

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coin-wallet/internal/domain/coin"
	"coin-wallet/internal/domain/wallet"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

// CurrencyApplicationService コイン残高とパッケージカタログのアプリケーションサービス
type CurrencyApplicationService struct {
	walletRepo  wallet.WalletRepository
	packageRepo coin.PackageRepository
	logger      *otelinfra.Logger
	metrics     *otelinfra.Metrics
	tracer      trace.Tracer
}

// NewCurrencyApplicationService 新しいCurrencyApplicationServiceを作成
func NewCurrencyApplicationService(
	walletRepo wallet.WalletRepository,
	packageRepo coin.PackageRepository,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *CurrencyApplicationService {
	return &CurrencyApplicationService{
		walletRepo:  walletRepo,
		packageRepo: packageRepo,
		logger:      logger,
		metrics:     metrics,
		tracer:      otel.Tracer("currency-service"),
	}
}

// GetBalance 残高を取得（ウォレット未作成のユーザーは0）
func (s *CurrencyApplicationService) GetBalance(ctx context.Context, req *GetBalanceRequest) (*GetBalanceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CurrencyApplicationService.GetBalance")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
	)

	var balance int64
	w, err := s.walletRepo.FindByUserID(ctx, req.UserID)
	switch {
	case errors.Is(err, wallet.ErrWalletNotFound):
		balance = 0
	case err != nil:
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to find wallet", err, map[string]interface{}{
			"user_id": req.UserID,
		})
		return nil, fmt.Errorf("failed to find wallet: %w", err)
	default:
		balance = w.Balance()
	}

	s.metrics.RecordWalletBalance(ctx, req.UserID, balance)
	span.SetAttributes(attribute.Int64("balance", balance))
	span.SetStatus(otelcodes.Ok, "balance retrieved")

	return &GetBalanceResponse{
		UserID:     req.UserID,
		Balance:    balance,
		RupeeValue: coin.CoinsToRupees(balance),
	}, nil
}

// ListPackages 販売中のパッケージを表示順で取得
func (s *CurrencyApplicationService) ListPackages(ctx context.Context) (*ListPackagesResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CurrencyApplicationService.ListPackages")
	defer span.End()

	packages, err := s.packageRepo.FindActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to list packages", err, nil)
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}

	resp := &ListPackagesResponse{Packages: make([]PackageDTO, 0, len(packages))}
	for _, p := range packages {
		resp.Packages = append(resp.Packages, PackageDTO{
			PackageID:  p.ID(),
			Name:       p.Name(),
			CoinAmount: p.CoinAmount(),
			BonusCoins: p.BonusCoins(),
			TotalCoins: p.TotalCoins(),
			RupeePrice: p.RupeePrice(),
			IsPopular:  p.IsPopular(),
		})
	}

	span.SetAttributes(attribute.Int("package_count", len(resp.Packages)))
	span.SetStatus(otelcodes.Ok, "packages listed")
	return resp, nil
}
