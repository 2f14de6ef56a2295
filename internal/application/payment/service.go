package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coin-wallet/internal/domain/coin"
	"coin-wallet/internal/domain/purchase"
	"coin-wallet/internal/domain/service"
	"coin-wallet/internal/domain/transaction"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

const expireBatchSize = 100

// CoinCreditor コイン付与を行うドメインサービス
type CoinCreditor interface {
	Credit(ctx context.Context, req service.CreditRequest) (*service.CreditResult, error)
}

// Settings 購入処理の業務設定
type Settings struct {
	TopUpBounds   coin.TopUpBounds
	PaymentExpiry time.Duration
}

// PaymentApplicationService コイン購入アプリケーションサービス
type PaymentApplicationService struct {
	paymentRepo purchase.PaymentRepository
	packageRepo coin.PackageRepository
	credits     CoinCreditor
	gateway     Gateway
	queue       SettlementQueue
	settings    Settings
	logger      *otelinfra.Logger
	metrics     *otelinfra.Metrics
	tracer      trace.Tracer
	now         func() time.Time
}

// NewPaymentApplicationService 新しいPaymentApplicationServiceを作成
// gateway が nil の場合、購入は ErrGatewayUnavailable になる。queue が nil の場合、通知はその場で確定処理する
func NewPaymentApplicationService(
	paymentRepo purchase.PaymentRepository,
	packageRepo coin.PackageRepository,
	credits CoinCreditor,
	gateway Gateway,
	queue SettlementQueue,
	settings Settings,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *PaymentApplicationService {
	if settings.TopUpBounds.Max.IsZero() {
		settings.TopUpBounds = coin.DefaultTopUpBounds()
	}
	if settings.PaymentExpiry <= 0 {
		settings.PaymentExpiry = 30 * time.Minute
	}
	return &PaymentApplicationService{
		paymentRepo: paymentRepo,
		packageRepo: packageRepo,
		credits:     credits,
		gateway:     gateway,
		queue:       queue,
		settings:    settings,
		logger:      logger,
		metrics:     metrics,
		tracer:      otel.Tracer("payment-service"),
		now:         time.Now,
	}
}

// CreateCheckout 購入を pending で登録し、ゲートウェイの決済セッションを開く
func (s *PaymentApplicationService) CreateCheckout(ctx context.Context, req *CreateCheckoutRequest) (*PurchaseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.CreateCheckout")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
		attribute.String("package_id", req.PackageID),
	)

	if s.gateway == nil {
		return nil, s.fail(span, ErrGatewayUnavailable)
	}
	if err := validateCustomer(req.Customer); err != nil {
		return nil, s.fail(span, err)
	}

	var packageID *string
	var coins int64
	var amount decimal.Decimal
	itemName := ""

	switch {
	case req.PackageID != "" && req.Amount != nil, req.PackageID == "" && req.Amount == nil:
		return nil, s.fail(span, ErrInvalidPurchase)
	case req.PackageID != "":
		pkg, err := s.packageRepo.FindByID(ctx, req.PackageID)
		if err != nil {
			return nil, s.fail(span, err)
		}
		id := pkg.ID()
		packageID = &id
		coins = pkg.TotalCoins()
		amount = pkg.RupeePrice()
		itemName = pkg.Name()
	default:
		if err := s.settings.TopUpBounds.Validate(*req.Amount); err != nil {
			return nil, s.fail(span, err)
		}
		if !req.Amount.Equal(req.Amount.Truncate(0)) {
			return nil, s.fail(span, ErrFractionalAmount)
		}
		amount = *req.Amount
		coins = coin.RupeesToCoins(amount)
		itemName = fmt.Sprintf("%s Coins", coin.FormatCoins(coins))
	}

	orderID := NewOrderID()
	span.SetAttributes(
		attribute.String("order_id", orderID),
		attribute.Int64("coins", coins),
		attribute.String("amount", amount.StringFixed(2)),
	)

	p, err := purchase.NewPayment(orderID, req.UserID, packageID, coins, amount)
	if err != nil {
		return nil, s.fail(span, err)
	}
	if err := s.paymentRepo.Save(ctx, p); err != nil {
		return nil, s.fail(span, fmt.Errorf("failed to save payment: %w", err))
	}

	session, err := s.gateway.CreateSession(ctx, SessionRequest{
		OrderID:  orderID,
		Amount:   amount,
		ItemName: itemName,
		Customer: req.Customer,
		Expiry:   s.settings.PaymentExpiry,
	})
	if err != nil {
		s.abandon(ctx, p, err)
		s.metrics.RecordError(ctx, "checkout_failed")
		return nil, s.fail(span, err)
	}

	p.AttachCheckout(session.Token, session.RedirectURL)
	if err := s.paymentRepo.UpdateCheckout(ctx, p); err != nil {
		return nil, s.fail(span, fmt.Errorf("failed to update checkout: %w", err))
	}

	s.logger.Info(ctx, "Checkout session created", map[string]interface{}{
		"order_id": orderID,
		"user_id":  req.UserID,
		"coins":    coins,
		"amount":   amount.StringFixed(2),
	})

	span.SetStatus(otelcodes.Ok, "checkout created")
	return toResponse(p), nil
}

// GetStatus 購入の状態を返す。pending の場合はゲートウェイに問い合わせて確定処理を行う
func (s *PaymentApplicationService) GetStatus(ctx context.Context, userID, orderID string) (*PurchaseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.GetStatus")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("order_id", orderID),
	)

	p, err := s.paymentRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	if p.UserID() != userID {
		return nil, s.fail(span, purchase.ErrPaymentNotFound)
	}

	if !p.Status().IsFinal() {
		reconciled, err := s.reconcile(ctx, p)
		if err != nil {
			// 問い合わせに失敗しても pending のまま返し、クライアントの再確認に任せる
			s.logger.Warn(ctx, "Failed to reconcile payment", map[string]interface{}{
				"order_id": orderID,
				"error":    err.Error(),
			})
		} else {
			p = reconciled
		}
	}

	span.SetAttributes(attribute.String("status", p.Status().String()))
	span.SetStatus(otelcodes.Ok, "status resolved")
	return toResponse(p), nil
}

// HandleNotification ゲートウェイの通知を検証し、確定処理を行う（キューがあればワーカーに委ねる）
func (s *PaymentApplicationService) HandleNotification(ctx context.Context, n *Notification) error {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.HandleNotification")
	defer span.End()

	span.SetAttributes(
		attribute.String("order_id", n.OrderID),
		attribute.String("transaction_status", n.TransactionStatus),
	)

	if s.gateway == nil {
		return s.fail(span, ErrGatewayUnavailable)
	}
	if !s.gateway.VerifySignature(n) {
		s.metrics.RecordError(ctx, "invalid_notification_signature")
		return s.fail(span, ErrInvalidSignature)
	}

	p, err := s.paymentRepo.FindByOrderID(ctx, n.OrderID)
	if err != nil {
		return s.fail(span, err)
	}
	if p.Status().IsFinal() {
		span.SetStatus(otelcodes.Ok, "payment already final")
		return nil
	}

	if s.queue != nil {
		if err := s.queue.EnqueueSettlement(ctx, n.OrderID); err != nil {
			return s.fail(span, fmt.Errorf("failed to enqueue settlement: %w", err))
		}
		s.logger.Info(ctx, "Settlement enqueued", map[string]interface{}{
			"order_id": n.OrderID,
		})
		span.SetStatus(otelcodes.Ok, "settlement enqueued")
		return nil
	}

	if _, err := s.reconcile(ctx, p); err != nil {
		return s.fail(span, err)
	}
	span.SetStatus(otelcodes.Ok, "notification handled")
	return nil
}

// Reconcile 注文の状態をゲートウェイと突き合わせて確定する
func (s *PaymentApplicationService) Reconcile(ctx context.Context, orderID string) (*PurchaseResponse, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.Reconcile")
	defer span.End()

	span.SetAttributes(attribute.String("order_id", orderID))

	p, err := s.paymentRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	p, err = s.reconcile(ctx, p)
	if err != nil {
		return nil, s.fail(span, err)
	}

	span.SetAttributes(attribute.String("status", p.Status().String()))
	span.SetStatus(otelcodes.Ok, "payment reconciled")
	return toResponse(p), nil
}

// ExpireStale 有効期限を過ぎた pending の購入を期限切れにする。ゲートウェイで完了済みのものは確定する
func (s *PaymentApplicationService) ExpireStale(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "PaymentApplicationService.ExpireStale")
	defer span.End()

	cutoff := s.now().Add(-s.settings.PaymentExpiry)
	span.SetAttributes(attribute.String("cutoff", cutoff.UTC().Format(time.RFC3339)))

	stale, err := s.paymentRepo.FindPendingBefore(ctx, cutoff, expireBatchSize)
	if err != nil {
		return 0, s.fail(span, fmt.Errorf("failed to find stale payments: %w", err))
	}

	expired := 0
	for _, p := range stale {
		if s.gateway != nil {
			reconciled, err := s.reconcile(ctx, p)
			if err != nil {
				s.logger.Warn(ctx, "Skipping stale payment, gateway status unknown", map[string]interface{}{
					"order_id": p.OrderID(),
					"error":    err.Error(),
				})
				continue
			}
			if reconciled.Status().IsFinal() {
				continue
			}
			p = reconciled
		}

		if err := p.Expire(); err != nil {
			continue
		}
		if err := s.paymentRepo.Update(ctx, p); err != nil {
			if errors.Is(err, purchase.ErrPaymentAlreadyFinalized) {
				continue
			}
			return expired, s.fail(span, fmt.Errorf("failed to expire payment: %w", err))
		}
		s.metrics.RecordPaymentOutcome(ctx, p.Status().String())
		expired++
	}

	if expired > 0 {
		s.logger.Info(ctx, "Expired stale payments", map[string]interface{}{
			"expired": expired,
			"scanned": len(stale),
		})
	}
	span.SetAttributes(attribute.Int("expired", expired))
	span.SetStatus(otelcodes.Ok, fmt.Sprintf("expired %d payments", expired))
	return expired, nil
}

func (s *PaymentApplicationService) reconcile(ctx context.Context, p *purchase.Payment) (*purchase.Payment, error) {
	if p.Status().IsFinal() || s.gateway == nil {
		return p, nil
	}

	st, err := s.gateway.CheckStatus(ctx, p.OrderID())
	if err != nil {
		return nil, fmt.Errorf("failed to check gateway status: %w", err)
	}

	switch st.Outcome {
	case OutcomeSettled:
		return s.settle(ctx, p)
	case OutcomeDeclined:
		err = p.Decline(st.Message)
	case OutcomeCancelled:
		err = p.Cancel(st.Message)
	case OutcomeExpired:
		err = p.Expire()
	default:
		return p, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.paymentRepo.Update(ctx, p); err != nil {
		if errors.Is(err, purchase.ErrPaymentAlreadyFinalized) {
			return s.paymentRepo.FindByOrderID(ctx, p.OrderID())
		}
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	s.metrics.RecordPaymentOutcome(ctx, p.Status().String())
	s.logger.Info(ctx, "Payment finalized", map[string]interface{}{
		"order_id": p.OrderID(),
		"status":   p.Status().String(),
	})
	return p, nil
}

// settle コインを付与し、同じDBトランザクションで決済を確定する。確定済みの注文には付与しない
func (s *PaymentApplicationService) settle(ctx context.Context, p *purchase.Payment) (*purchase.Payment, error) {
	rupees := p.RupeeAmount()

	result, err := s.credits.Credit(ctx, service.CreditRequest{
		UserID:      p.UserID(),
		Type:        transaction.TransactionTypePurchase,
		Coins:       p.Coins(),
		RupeeAmount: &rupees,
		Description: fmt.Sprintf("Purchased %s coins", coin.FormatCoins(p.Coins())),
		ReferenceID: p.OrderID(),
		InTx: func(ctx context.Context, txn *transaction.Transaction) error {
			if err := p.Settle(txn.TransactionID()); err != nil {
				return err
			}
			return s.paymentRepo.Update(ctx, p)
		},
	})
	if err != nil {
		if errors.Is(err, purchase.ErrPaymentAlreadyFinalized) || errors.Is(err, transaction.ErrDuplicateTransactionID) {
			s.logger.Info(ctx, "Payment already settled elsewhere", map[string]interface{}{
				"order_id": p.OrderID(),
			})
			return s.paymentRepo.FindByOrderID(ctx, p.OrderID())
		}
		return nil, fmt.Errorf("failed to credit purchase: %w", err)
	}

	s.metrics.RecordTransaction(ctx, transaction.TransactionTypePurchase.String(), p.Coins())
	s.metrics.RecordWalletBalance(ctx, p.UserID(), result.BalanceAfter)
	s.metrics.RecordPaymentOutcome(ctx, purchase.PaymentStatusSettled.String())
	s.logger.Info(ctx, "Payment settled", map[string]interface{}{
		"order_id":       p.OrderID(),
		"user_id":        p.UserID(),
		"coins":          p.Coins(),
		"transaction_id": result.Transaction.TransactionID(),
		"balance_after":  result.BalanceAfter,
	})
	return p, nil
}

// abandon セッションを開けなかった購入を確定させる
func (s *PaymentApplicationService) abandon(ctx context.Context, p *purchase.Payment, cause error) {
	var err error
	if errors.Is(cause, ErrCheckoutRejected) {
		err = p.Decline(cause.Error())
	} else {
		err = p.Cancel("payment gateway unavailable")
	}
	if err == nil {
		err = s.paymentRepo.Update(ctx, p)
	}
	if err != nil {
		s.logger.Error(ctx, "Failed to close abandoned payment", err, map[string]interface{}{
			"order_id": p.OrderID(),
		})
	}
}

func (s *PaymentApplicationService) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	return err
}

func validateCustomer(c Customer) error {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Email) == "" || strings.TrimSpace(c.Phone) == "" {
		return ErrIncompleteProfile
	}
	return nil
}

func toResponse(p *purchase.Payment) *PurchaseResponse {
	resp := &PurchaseResponse{
		OrderID:     p.OrderID(),
		Status:      p.Status().String(),
		Coins:       p.Coins(),
		Amount:      p.RupeeAmount(),
		SnapToken:   p.SnapToken(),
		RedirectURL: p.RedirectURL(),
		Message:     p.GatewayMessage(),
		CreatedAt:   p.CreatedAt(),
	}
	if p.TransactionID() != nil {
		resp.TransactionID = *p.TransactionID()
	}
	return resp
}

// NewOrderID 注文IDを生成
func NewOrderID() string {
	return "ord_" + uuid.NewString()
}
