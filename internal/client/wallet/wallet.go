package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"coin-wallet/internal/client/api"
	"coin-wallet/internal/client/balance"
	"coin-wallet/internal/client/catalog"
	"coin-wallet/internal/client/fetch"
	"coin-wallet/internal/client/gateway"
	"coin-wallet/internal/client/ledger"
	"coin-wallet/internal/client/purchase"
	"coin-wallet/internal/client/reward"
	"coin-wallet/internal/domain/coin"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

// Config ウォレットクライアントの設定
type Config struct {
	API            api.Options
	Customer       gateway.Customer
	FetchPolicy    fetch.Policy
	ScriptTimeout  time.Duration
	CheckoutWindow time.Duration
	SuccessDelay   time.Duration
	TopUpBounds    coin.TopUpBounds
	TopUpTiers     []decimal.Decimal
	PageSize       int
	Logger         *otelinfra.Logger
}

// Wallet 残高・履歴・報酬・購入フローをまとめたクライアント
type Wallet struct {
	Client  *api.Client
	Balance *balance.Store
	Gateway *gateway.Adapter
	Catalog *catalog.Loader
	Ledger  *ledger.Ledger
	Rewards *reward.Engine

	cfg    Config
	logger *otelinfra.Logger
}

// New 新しいWalletを作成
func New(cfg Config) *Wallet {
	if cfg.ScriptTimeout <= 0 {
		cfg.ScriptTimeout = 15 * time.Second
	}
	if cfg.CheckoutWindow <= 0 {
		cfg.CheckoutWindow = 15 * time.Minute
	}
	if cfg.FetchPolicy == (fetch.Policy{}) {
		cfg.FetchPolicy = fetch.DefaultPolicy()
	}
	if cfg.API.Logger == nil {
		cfg.API.Logger = cfg.Logger
	}

	client := api.NewClient(cfg.API)
	store := balance.NewStore(client)
	return &Wallet{
		Client:  client,
		Balance: store,
		Gateway: gateway.NewAdapter(client, cfg.ScriptTimeout, cfg.CheckoutWindow, cfg.Logger),
		Catalog: catalog.NewLoader(client, cfg.FetchPolicy, cfg.Logger),
		Ledger:  ledger.NewLedger(client, cfg.PageSize, cfg.FetchPolicy, cfg.Logger),
		Rewards: reward.NewEngine(client, store, cfg.FetchPolicy, cfg.Logger),
		cfg:     cfg,
		logger:  cfg.Logger,
	}
}

// Start 残高を取得し、決済スクリプトの読み込みを始める
func (w *Wallet) Start(ctx context.Context) error {
	go func() {
		_ = w.Gateway.LoadSDK(context.WithoutCancel(ctx))
	}()
	_, err := fetch.Do(ctx, w.cfg.FetchPolicy, w.Balance.Refresh)
	return err
}

// NewPurchaseFlow パッケージ購入フローを作成
func (w *Wallet) NewPurchaseFlow() *purchase.Orchestrator {
	return w.newFlow(purchase.ModePackages)
}

// NewTopUpFlow チャージフローを作成
func (w *Wallet) NewTopUpFlow() *purchase.Orchestrator {
	return w.newFlow(purchase.ModeTopUp)
}

func (w *Wallet) newFlow(mode purchase.Mode) *purchase.Orchestrator {
	return purchase.NewOrchestrator(w.Catalog, w.Gateway, w.Balance, purchase.Options{
		Mode:               mode,
		Tiers:              w.cfg.TopUpTiers,
		Bounds:             w.cfg.TopUpBounds,
		SuccessDelay:       w.cfg.SuccessDelay,
		Identity:           func() gateway.Customer { return w.cfg.Customer },
		OnPurchaseComplete: w.onPurchaseComplete,
		Logger:             w.logger,
	})
}

func (w *Wallet) onPurchaseComplete(totalCoins int64) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := w.Ledger.Refresh(ctx); err != nil && !errors.Is(err, ledger.ErrStaleResponse) {
			w.logger.Warn(ctx, "Failed to refresh transactions after purchase", map[string]interface{}{
				"total_coins": totalCoins,
				"error":       err.Error(),
			})
		}
	}()
}
