package midtrans

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coin-wallet/internal/application/payment"
	"coin-wallet/internal/infrastructure/config"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

// snapAPI Snap API のうち利用する操作
type snapAPI interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// coreAPI Core API のうち利用する操作
type coreAPI interface {
	CheckTransaction(param string) (*coreapi.TransactionStatusResponse, *midtrans.Error)
}

// Gateway Midtrans を使った決済ゲートウェイ
type Gateway struct {
	snap      snapAPI
	core      coreAPI
	serverKey string
	logger    *otelinfra.Logger
	tracer    trace.Tracer
}

// NewGateway 新しいGatewayを作成
func NewGateway(cfg *config.GatewayConfig, logger *otelinfra.Logger) *Gateway {
	env := midtrans.Sandbox
	if cfg.Production {
		env = midtrans.Production
	}

	// クライアント作成前に設定する必要がある
	midtrans.DefaultGoHttpClient = &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	var s snap.Client
	s.New(cfg.ServerKey, env)
	var c coreapi.Client
	c.New(cfg.ServerKey, env)

	return newGateway(&s, &c, cfg.ServerKey, logger)
}

func newGateway(s snapAPI, c coreAPI, serverKey string, logger *otelinfra.Logger) *Gateway {
	return &Gateway{
		snap:      s,
		core:      c,
		serverKey: serverKey,
		logger:    logger,
		tracer:    otel.Tracer("midtrans-gateway"),
	}
}

// CreateSession Snap の決済セッションを作成
func (g *Gateway) CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	ctx, span := g.tracer.Start(ctx, "MidtransGateway.CreateSession")
	defer span.End()

	span.SetAttributes(
		attribute.String("gateway.order_id", req.OrderID),
		attribute.String("gateway.amount", req.Amount.StringFixed(2)),
	)

	grossAmount := req.Amount.IntPart()
	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: grossAmount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    req.OrderID,
				Name:  truncate(req.ItemName, 50),
				Price: grossAmount,
				Qty:   1,
			},
		},
	}
	if req.Expiry > 0 {
		snapReq.Expiry = &snap.ExpiryDetails{
			Unit:     "minute",
			Duration: int64(req.Expiry / time.Minute),
		}
	}

	resp, mErr := g.snap.CreateTransaction(snapReq)
	if mErr != nil {
		err := classify(mErr)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		g.logger.Error(ctx, "Failed to create snap transaction", err, map[string]interface{}{
			"order_id":    req.OrderID,
			"status_code": mErr.GetStatusCode(),
		})
		return nil, err
	}

	span.SetStatus(otelcodes.Ok, "session created")
	return &payment.Session{
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
	}, nil
}

// CheckStatus Core API で注文の決済状態を取得
func (g *Gateway) CheckStatus(ctx context.Context, orderID string) (*payment.GatewayStatus, error) {
	ctx, span := g.tracer.Start(ctx, "MidtransGateway.CheckStatus")
	defer span.End()

	span.SetAttributes(attribute.String("gateway.order_id", orderID))

	resp, mErr := g.core.CheckTransaction(orderID)
	if mErr != nil {
		// 決済画面を開いていない注文はゲートウェイ上に存在しない
		if mErr.GetStatusCode() == http.StatusNotFound {
			span.SetStatus(otelcodes.Ok, "transaction not found at gateway")
			return &payment.GatewayStatus{OrderID: orderID, Outcome: payment.OutcomePending}, nil
		}
		err := classify(mErr)
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	if resp.StatusCode == "404" {
		span.SetStatus(otelcodes.Ok, "transaction not found at gateway")
		return &payment.GatewayStatus{OrderID: orderID, Outcome: payment.OutcomePending}, nil
	}

	status := &payment.GatewayStatus{
		OrderID:              orderID,
		Outcome:              MapStatus(resp.TransactionStatus, resp.FraudStatus),
		Message:              resp.StatusMessage,
		GatewayTransactionID: resp.TransactionID,
	}

	g.logger.Debug(ctx, "Gateway status checked", map[string]interface{}{
		"order_id":           orderID,
		"transaction_status": resp.TransactionStatus,
		"fraud_status":       resp.FraudStatus,
		"outcome":            string(status.Outcome),
	})

	span.SetAttributes(attribute.String("gateway.outcome", string(status.Outcome)))
	span.SetStatus(otelcodes.Ok, "status checked")
	return status, nil
}

// VerifySignature 通知の signature_key を検証する
// signature_key = SHA512(order_id + status_code + gross_amount + server_key)
func (g *Gateway) VerifySignature(n *payment.Notification) bool {
	if n == nil || n.SignatureKey == "" {
		return false
	}
	expected := Signature(n.OrderID, n.StatusCode, n.GrossAmount, g.serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(n.SignatureKey))) == 1
}

// Signature 通知署名を計算する
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// MapStatus Midtrans の transaction_status / fraud_status を購入結果に変換する
func MapStatus(transactionStatus, fraudStatus string) payment.Outcome {
	switch transactionStatus {
	case "settlement":
		return payment.OutcomeSettled
	case "capture":
		switch fraudStatus {
		case "", "accept":
			return payment.OutcomeSettled
		case "deny":
			return payment.OutcomeDeclined
		default:
			// challenge は加盟店の判断待ち
			return payment.OutcomePending
		}
	case "pending", "authorize":
		return payment.OutcomePending
	case "deny", "failure":
		return payment.OutcomeDeclined
	case "cancel":
		return payment.OutcomeCancelled
	case "expire":
		return payment.OutcomeExpired
	default:
		return payment.OutcomeUnknown
	}
}

// classify 4xx はゲートウェイによる拒否、それ以外は接続障害として扱う
func classify(mErr *midtrans.Error) error {
	code := mErr.GetStatusCode()
	if code >= http.StatusBadRequest && code < http.StatusInternalServerError && code != http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", payment.ErrCheckoutRejected, mErr.GetMessage())
	}
	return fmt.Errorf("%w: %s", payment.ErrGatewayUnavailable, mErr.GetMessage())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
