package purchase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"coin-wallet/internal/client/balance"
	"coin-wallet/internal/client/gateway"
	"coin-wallet/internal/client/walleterr"
	"coin-wallet/internal/domain/coin"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

// DefaultSuccessDelay 成功表示から自動で閉じるまでの時間
const DefaultSuccessDelay = 2 * time.Second

// GatewayUnavailableMessage 決済スクリプトを読み込めなかったときの表示
const GatewayUnavailableMessage = "Payment service could not be loaded. Please retry."

var (
	// ErrInvalidState 現在の状態では実行できない操作
	ErrInvalidState = errors.New("operation not allowed in current state")
)

// Catalog パッケージ一覧の取得
type Catalog interface {
	Load(ctx context.Context) ([]*coin.Package, error)
}

// Gateway 決済ゲートウェイ
type Gateway interface {
	LoadSDK(ctx context.Context) error
	Loaded() bool
	InitiatePayment(ctx context.Context, req gateway.Request)
}

// Credits 共有残高ストア
type Credits interface {
	Credit(amount int64, reason string) balance.CreditID
	Refresh(ctx context.Context) (balance.Snapshot, error)
}

// Options 購入フローの設定
type Options struct {
	Mode               Mode
	Tiers              []decimal.Decimal // トップアップの固定金額
	Bounds             coin.TopUpBounds
	SuccessDelay       time.Duration
	RefreshTimeout     time.Duration
	Identity           func() gateway.Customer
	OnPurchaseComplete func(totalCoins int64)
	Logger             *otelinfra.Logger
}

// DefaultTiers トップアップの既定金額
func DefaultTiers() []decimal.Decimal {
	return []decimal.Decimal{
		decimal.NewFromInt(100),
		decimal.NewFromInt(500),
		decimal.NewFromInt(1000),
	}
}

// Orchestrator 購入フローの状態機械
type Orchestrator struct {
	catalog Catalog
	gateway Gateway
	credits Credits
	opts    Options
	logger  *otelinfra.Logger

	mu           sync.Mutex
	state        State
	session      uint64
	cancelFetch  context.CancelFunc
	packages     []*coin.Package
	selection    *Selection
	err          error
	catalogError bool
	gatewayErr   error
	validation   string
	credited     int64
	closeTimer   *time.Timer
	subscribers  map[int]func(Snapshot)
	nextSubID    int
}

// NewOrchestrator 新しいOrchestratorを作成
func NewOrchestrator(catalog Catalog, gw Gateway, credits Credits, opts Options) *Orchestrator {
	if opts.SuccessDelay <= 0 {
		opts.SuccessDelay = DefaultSuccessDelay
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = 10 * time.Second
	}
	if opts.Bounds.Min.IsZero() && opts.Bounds.Max.IsZero() {
		opts.Bounds = coin.DefaultTopUpBounds()
	}
	if opts.Mode == ModeTopUp && len(opts.Tiers) == 0 {
		opts.Tiers = DefaultTiers()
	}
	if opts.Identity == nil {
		opts.Identity = func() gateway.Customer { return gateway.Customer{} }
	}
	return &Orchestrator{
		catalog:     catalog,
		gateway:     gw,
		credits:     credits,
		opts:        opts,
		logger:      opts.Logger,
		state:       StateIdle,
		subscribers: make(map[int]func(Snapshot)),
	}
}

// Open 購入フローを開始する。カタログ取得と決済スクリプトの読み込みを並行して行う
func (o *Orchestrator) Open(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return fmt.Errorf("failed to open purchase flow in state %s: %w", o.state, ErrInvalidState)
	}
	o.session++
	session := o.session
	o.state = StateLoading

	if o.opts.Mode == ModeTopUp {
		o.state = StateSelecting
	} else {
		fetchCtx, cancel := context.WithCancel(ctx)
		o.cancelFetch = cancel
		go o.fetchCatalog(fetchCtx, session)
	}
	o.mu.Unlock()
	o.publish()

	go o.loadGateway(ctx, session)
	return nil
}

// loadGateway 決済スクリプトを読み込み、失敗した場合は Retry されるまで決済を無効にする
func (o *Orchestrator) loadGateway(ctx context.Context, session uint64) {
	err := o.gateway.LoadSDK(ctx)
	if err != nil {
		o.logger.Warn(ctx, "Payment gateway unavailable", map[string]interface{}{
			"error": err.Error(),
		})
	}

	o.mu.Lock()
	if o.session != session {
		o.mu.Unlock()
		return
	}
	o.gatewayErr = err
	o.mu.Unlock()
	o.publish()
}

func (o *Orchestrator) fetchCatalog(ctx context.Context, session uint64) {
	packages, err := o.catalog.Load(ctx)

	o.mu.Lock()
	if o.session != session || o.state != StateLoading {
		// 閉じられたセッションの遅れた結果は捨てる
		o.mu.Unlock()
		return
	}
	o.cancelFetch = nil
	if err != nil {
		o.state = StateError
		o.err = err
		o.catalogError = true
	} else {
		o.state = StateSelecting
		o.packages = packages
	}
	o.mu.Unlock()
	o.publish()
}

// Select パッケージを選択する
func (o *Orchestrator) Select(packageID string) error {
	o.mu.Lock()
	if o.state != StateSelecting || o.opts.Mode != ModePackages {
		o.mu.Unlock()
		return ErrInvalidState
	}
	var pkg *coin.Package
	for _, p := range o.packages {
		if p.ID() == packageID {
			pkg = p
			break
		}
	}
	if pkg == nil {
		o.mu.Unlock()
		return fmt.Errorf("failed to select package %s: %w", packageID, coin.ErrPackageNotFound)
	}
	o.selection = &Selection{
		PackageID:  pkg.ID(),
		Amount:     pkg.RupeePrice(),
		TotalCoins: pkg.TotalCoins(),
	}
	o.validation = ""
	o.mu.Unlock()
	o.publish()
	return nil
}

// SelectTier 固定金額を選択する
func (o *Orchestrator) SelectTier(amount decimal.Decimal) error {
	o.mu.Lock()
	if o.state != StateSelecting || o.opts.Mode != ModeTopUp {
		o.mu.Unlock()
		return ErrInvalidState
	}
	found := false
	for _, tier := range o.opts.Tiers {
		if tier.Equal(amount) {
			found = true
			break
		}
	}
	if !found {
		o.mu.Unlock()
		return walleterr.Validation("Please choose one of the listed amounts")
	}
	o.setAmountLocked(amount, false)
	o.mu.Unlock()
	o.publish()
	return nil
}

// SetCustomAmount 任意金額を入力する。範囲の検証は Confirm で行う
func (o *Orchestrator) SetCustomAmount(amount decimal.Decimal) error {
	o.mu.Lock()
	if o.state != StateSelecting || o.opts.Mode != ModeTopUp {
		o.mu.Unlock()
		return ErrInvalidState
	}
	o.setAmountLocked(amount, true)
	o.mu.Unlock()
	o.publish()
	return nil
}

func (o *Orchestrator) setAmountLocked(amount decimal.Decimal, custom bool) {
	o.selection = &Selection{
		Amount:     amount,
		TotalCoins: coin.RupeesToCoins(amount),
		Custom:     custom,
	}
	o.validation = ""
}

// Confirm 決済を開始する。前提条件を満たさない場合は選択状態のまま検証エラーを返す
func (o *Orchestrator) Confirm(ctx context.Context) error {
	o.mu.Lock()
	if o.state != StateSelecting {
		o.mu.Unlock()
		return fmt.Errorf("failed to confirm purchase in state %s: %w", o.state, ErrInvalidState)
	}

	customer := o.opts.Identity()
	if err := o.checkPreconditionsLocked(customer); err != nil {
		o.validation = walleterr.Message(err)
		o.mu.Unlock()
		o.publish()
		return err
	}

	o.state = StateProcessing
	o.validation = ""
	session := o.session
	sel := *o.selection
	o.mu.Unlock()
	o.publish()

	o.logger.Info(ctx, "Starting payment", map[string]interface{}{
		"package_id":  sel.PackageID,
		"amount":      sel.Amount.StringFixed(2),
		"total_coins": sel.TotalCoins,
	})

	// 決済中はキャンセルできないため呼び出し元のキャンセルを伝播しない
	o.gateway.InitiatePayment(context.WithoutCancel(ctx), gateway.Request{
		CheckoutRequest: gateway.CheckoutRequest{
			Amount:     sel.Amount,
			TotalCoins: sel.TotalCoins,
			PackageID:  sel.PackageID,
			Customer:   customer,
		},
		OnSuccess: func(c gateway.Confirmation) {
			o.handleSuccess(session, c)
		},
		OnFailure: func(f gateway.Failure) {
			o.handleFailure(session, f)
		},
	})
	return nil
}

func (o *Orchestrator) checkPreconditionsLocked(customer gateway.Customer) error {
	if o.selection == nil {
		if o.opts.Mode == ModeTopUp {
			return walleterr.Validation("Please choose an amount")
		}
		return walleterr.Validation("Please select a coin package")
	}
	if o.opts.Mode == ModeTopUp {
		if err := o.opts.Bounds.Validate(o.selection.Amount); err != nil {
			return walleterr.Validation(fmt.Sprintf("Amount must be between %s and %s",
				coin.FormatRupees(o.opts.Bounds.Min), coin.FormatRupees(o.opts.Bounds.Max)))
		}
		// サーバーは端数のある金額を受け付けない
		if !o.selection.Amount.Equal(o.selection.Amount.Truncate(0)) {
			return walleterr.Validation("Please enter a whole rupee amount")
		}
	}
	if o.selection.TotalCoins <= 0 {
		return walleterr.Validation("Please choose a valid amount")
	}
	if o.gatewayErr != nil {
		return walleterr.New(walleterr.KindGatewayUnavailable, GatewayUnavailableMessage, o.gatewayErr)
	}
	if !o.gateway.Loaded() {
		return walleterr.Validation("Payment service is still loading. Please wait a moment.")
	}
	return customer.Validate()
}

func (o *Orchestrator) handleSuccess(session uint64, c gateway.Confirmation) {
	o.mu.Lock()
	if o.session != session || o.state != StateProcessing {
		o.mu.Unlock()
		return
	}
	o.state = StateSuccess
	o.credited = c.TotalCoins
	o.mu.Unlock()

	o.credits.Credit(c.TotalCoins, "purchase "+c.Token)
	o.publish()

	o.logger.Info(context.Background(), "Payment completed", map[string]interface{}{
		"order_id":    c.Token,
		"total_coins": c.TotalCoins,
	})
	if o.opts.OnPurchaseComplete != nil {
		o.opts.OnPurchaseComplete(c.TotalCoins)
	}

	o.mu.Lock()
	if o.session == session && o.state == StateSuccess {
		o.closeTimer = time.AfterFunc(o.opts.SuccessDelay, func() {
			o.autoClose(session)
		})
	}
	o.mu.Unlock()
}

func (o *Orchestrator) handleFailure(session uint64, f gateway.Failure) {
	o.mu.Lock()
	if o.session != session || o.state != StateProcessing {
		o.mu.Unlock()
		return
	}
	o.state = StateError
	o.err = &f
	o.catalogError = false
	o.mu.Unlock()
	o.publish()

	o.logger.Warn(context.Background(), "Payment failed", map[string]interface{}{
		"reason":      string(f.Reason),
		"description": f.Description,
	})
}

func (o *Orchestrator) autoClose(session uint64) {
	o.mu.Lock()
	if o.session != session || o.state != StateSuccess {
		o.mu.Unlock()
		return
	}
	o.teardownLocked()
	o.mu.Unlock()
	o.publish()
	o.refreshBalance()
}

func (o *Orchestrator) refreshBalance() {
	ctx, cancel := context.WithTimeout(context.Background(), o.opts.RefreshTimeout)
	defer cancel()
	if _, err := o.credits.Refresh(ctx); err != nil {
		o.logger.Warn(ctx, "Failed to refresh balance after purchase", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// Retry エラーから選択状態に戻る。決済は再実行しない。カタログ取得の失敗時は全体を再読み込みする
// 決済スクリプトの読み込みに失敗している場合は選択状態のままでも呼べて、読み込みをやり直す
func (o *Orchestrator) Retry(ctx context.Context) error {
	o.mu.Lock()
	gatewayFailed := o.gatewayErr != nil
	if o.state != StateError && !(o.state == StateSelecting && gatewayFailed) {
		o.mu.Unlock()
		return ErrInvalidState
	}
	if o.catalogError {
		o.mu.Unlock()
		return o.Reload(ctx)
	}
	o.state = StateSelecting
	o.err = nil
	session := o.session
	if gatewayFailed {
		o.gatewayErr = nil
		o.validation = ""
	}
	o.mu.Unlock()
	o.publish()

	if gatewayFailed {
		go o.loadGateway(ctx, session)
	}
	return nil
}

// Reload セッションを破棄して最初から開き直す
func (o *Orchestrator) Reload(ctx context.Context) error {
	if !o.Close() {
		return fmt.Errorf("failed to reload purchase flow: %w", ErrInvalidState)
	}
	return o.Open(ctx)
}

// Close フローを閉じる。決済中は無視して false を返す
func (o *Orchestrator) Close() bool {
	o.mu.Lock()
	switch o.state {
	case StateProcessing:
		o.mu.Unlock()
		return false
	case StateIdle:
		o.mu.Unlock()
		return true
	}
	wasSuccess := o.state == StateSuccess
	o.teardownLocked()
	o.mu.Unlock()
	o.publish()

	if wasSuccess {
		go o.refreshBalance()
	}
	return true
}

func (o *Orchestrator) teardownLocked() {
	if o.cancelFetch != nil {
		o.cancelFetch()
		o.cancelFetch = nil
	}
	if o.closeTimer != nil {
		o.closeTimer.Stop()
		o.closeTimer = nil
	}
	o.session++
	o.state = StateIdle
	o.packages = nil
	o.selection = nil
	o.err = nil
	o.catalogError = false
	o.gatewayErr = nil
	o.validation = ""
	o.credited = 0
}

// State 現在の状態を返す
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Snapshot 現在の状態を返す
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:             o.state,
		Mode:              o.opts.Mode,
		Err:               o.err,
		ValidationMessage: o.validation,
		GatewayErr:        o.gatewayErr,
		CanPay:            o.gatewayErr == nil && o.gateway.Loaded(),
		CreditedCoins:     o.credited,
	}
	if o.packages != nil {
		snap.Packages = append([]*coin.Package(nil), o.packages...)
	}
	if o.opts.Mode == ModeTopUp {
		snap.Tiers = append([]decimal.Decimal(nil), o.opts.Tiers...)
	}
	if o.selection != nil {
		sel := *o.selection
		snap.Selection = &sel
	}
	if o.err != nil {
		snap.ErrorMessage = walleterr.Message(o.err)
	}
	return snap
}

// Subscribe 状態の変化を購読する。戻り値の関数で購読を解除する
func (o *Orchestrator) Subscribe(fn func(Snapshot)) func() {
	o.mu.Lock()
	id := o.nextSubID
	o.nextSubID++
	o.subscribers[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subscribers, id)
		o.mu.Unlock()
	}
}

func (o *Orchestrator) publish() {
	o.mu.Lock()
	snap := o.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(o.subscribers))
	for _, fn := range o.subscribers {
		subs = append(subs, fn)
	}
	o.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
