package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"coin-wallet/internal/client/fetch"
	"coin-wallet/internal/client/walleterr"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

// Checkout 外部チェックアウトSDK
type Checkout interface {
	// LoadScript チェックアウトスクリプトを取得する
	LoadScript(ctx context.Context) error
	// Run チェックアウトを実行し、終了状態になるまで待つ
	Run(ctx context.Context, req CheckoutRequest) (*Confirmation, error)
}

// NetworkFailureMessage 決済サービスに到達できなかったときの表示
const NetworkFailureMessage = "Could not reach the payment service. Check your connection and try again."

type loadAttempt struct {
	done chan struct{}
	err  error
}

// Adapter ゲートウェイとの唯一の接点
type Adapter struct {
	checkout      Checkout
	loadTimeout   time.Duration
	windowTimeout time.Duration
	grace         time.Duration
	logger        *otelinfra.Logger

	mu   sync.Mutex
	load *loadAttempt
}

// NewAdapter 新しいAdapterを作成
// windowTimeout はチェックアウト画面が開いたままでいられる最大時間
func NewAdapter(checkout Checkout, loadTimeout, windowTimeout time.Duration, logger *otelinfra.Logger) *Adapter {
	return &Adapter{
		checkout:      checkout,
		loadTimeout:   loadTimeout,
		windowTimeout: windowTimeout,
		grace:         5 * time.Second,
		logger:        logger,
	}
}

// LoadSDK スクリプトを一度だけ読み込む。読み込み済み・読み込み中なら同じ結果を返す
func (a *Adapter) LoadSDK(ctx context.Context) error {
	a.mu.Lock()
	attempt := a.load
	if attempt == nil || attempt.failed() {
		attempt = &loadAttempt{done: make(chan struct{})}
		a.load = attempt
		go a.runLoad(attempt)
	}
	a.mu.Unlock()

	select {
	case <-attempt.done:
		return attempt.err
	case <-ctx.Done():
		return walleterr.Network(walleterr.KindGatewayUnavailable, ctx.Err())
	}
}

func (a *loadAttempt) failed() bool {
	select {
	case <-a.done:
		return a.err != nil
	default:
		return false
	}
}

func (a *Adapter) runLoad(attempt *loadAttempt) {
	// 呼び出し元のキャンセルに左右されず、待っている全員が同じ結果を受け取る
	ctx, cancel := context.WithTimeout(context.Background(), a.loadTimeout)
	defer cancel()

	err := a.checkout.LoadScript(ctx)
	if err != nil {
		a.logger.Warn(ctx, "Failed to load checkout script", map[string]interface{}{
			"error": err.Error(),
		})
		err = walleterr.Network(walleterr.KindGatewayUnavailable, err)
	}
	attempt.err = err
	close(attempt.done)
}

// Loaded スクリプトの読み込みが完了しているかを返す
func (a *Adapter) Loaded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.load == nil {
		return false
	}
	select {
	case <-a.load.done:
		return a.load.err == nil
	default:
		return false
	}
}

// InitiatePayment 決済を開始する。同期的な戻り値はなく、OnSuccess/OnFailure のどちらか一方が必ず一度だけ呼ばれる
func (a *Adapter) InitiatePayment(ctx context.Context, req Request) {
	var once sync.Once
	resolve := func(conf *Confirmation, failure *Failure) bool {
		fired := false
		once.Do(func() {
			fired = true
			if failure != nil {
				if req.OnFailure != nil {
					req.OnFailure(*failure)
				}
				return
			}
			if req.OnSuccess != nil {
				req.OnSuccess(*conf)
			}
		})
		return fired
	}

	if !a.Loaded() {
		go resolve(nil, &Failure{Reason: ReasonUnavailable, Description: "Payment service is still loading. Please try again."})
		return
	}

	runCtx, cancel := context.WithTimeout(ctx, a.windowTimeout)
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		defer func() {
			if r := recover(); r != nil {
				resolve(nil, &Failure{Reason: ReasonError, Err: fmt.Errorf("checkout panicked: %v", r)})
			}
		}()

		conf, err := a.checkout.Run(runCtx, req.CheckoutRequest)
		switch {
		case err != nil:
			if !resolve(nil, toFailure(runCtx, err)) {
				a.logger.Warn(ctx, "Discarded late checkout failure", map[string]interface{}{"error": err.Error()})
			}
		case conf == nil:
			resolve(nil, Cancelled("Payment window was closed"))
		default:
			c := *conf
			c.TotalCoins = req.TotalCoins
			if !resolve(&c, nil) {
				a.logger.Warn(ctx, "Discarded late checkout success", map[string]interface{}{"token": c.Token})
			}
		}
	}()

	// チェックアウトが期限後も応答しない場合でもキャンセルとして必ず解決する
	go func() {
		defer cancel()
		select {
		case <-finished:
		case <-runCtx.Done():
			select {
			case <-finished:
			case <-time.After(a.grace):
				resolve(nil, Cancelled("Payment window timed out"))
			}
		}
	}()
}

// Pay 2つのコールバックを1つの結果に変換する
func (a *Adapter) Pay(ctx context.Context, req CheckoutRequest) (*Confirmation, error) {
	type result struct {
		conf    *Confirmation
		failure *Failure
	}
	ch := make(chan result, 1)

	a.InitiatePayment(ctx, Request{
		CheckoutRequest: req,
		OnSuccess: func(c Confirmation) {
			ch <- result{conf: &c}
		},
		OnFailure: func(f Failure) {
			ch <- result{failure: &f}
		},
	})

	r := <-ch
	if r.failure != nil {
		return nil, r.failure
	}
	return r.conf, nil
}

func toFailure(ctx context.Context, err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return &Failure{Reason: ReasonCancelled, Description: "Payment window was closed", Err: err}
	}
	if walleterr.IsNetwork(err) || fetch.IsTemporary(err) {
		return &Failure{Reason: ReasonUnavailable, Description: NetworkFailureMessage, Err: err}
	}
	return &Failure{Reason: ReasonError, Err: err}
}
