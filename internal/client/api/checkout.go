package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"coin-wallet/internal/client/gateway"
)

// 決済状態（サーバーの purchase.PaymentStatus と同じ値）
const (
	paymentPending   = "pending"
	paymentSettled   = "settled"
	paymentDeclined  = "declined"
	paymentCancelled = "cancelled"
	paymentExpired   = "expired"
)

// LoadScript 決済スクリプトを取得して利用可能か確認する
func (c *Client) LoadScript(ctx context.Context) error {
	if c.scriptURL == "" {
		return errors.New("checkout script url is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.scriptURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create script request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Network: true, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return &Error{StatusCode: resp.StatusCode, Code: "script_unavailable"}
	}
	return nil
}

// Run サーバーで決済セッションを作成し、終了状態になるまで状態を確認する
func (c *Client) Run(ctx context.Context, req gateway.CheckoutRequest) (*gateway.Confirmation, error) {
	body := purchaseRequest{
		PackageID: req.PackageID,
		Customer: customerBody{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
			Phone: req.Customer.Phone,
		},
	}
	if req.PackageID == "" {
		body.Amount = req.Amount.StringFixed(2)
	}

	var created purchaseResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/purchases", nil, body, &created); err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			return nil, &gateway.Failure{Reason: gateway.ReasonDeclined, Description: apiErr.Message, Err: err}
		}
		return nil, err
	}

	c.logger.Info(ctx, "Checkout session created", map[string]interface{}{
		"order_id": created.OrderID,
	})
	if c.onRedirect != nil && created.RedirectURL != "" {
		c.onRedirect(created.OrderID, created.RedirectURL)
	}

	status := created
	for {
		if conf, failure, done := outcome(status); done {
			if failure != nil {
				return nil, failure
			}
			return conf, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}

		next, err := c.purchaseStatus(ctx, created.OrderID)
		if err != nil {
			var apiErr *Error
			if errors.As(err, &apiErr) && apiErr.Temporary() {
				c.logger.Warn(ctx, "Failed to poll payment status", map[string]interface{}{
					"order_id": created.OrderID,
					"error":    err.Error(),
				})
				continue
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, err
		}
		status = *next
	}
}

func (c *Client) purchaseStatus(ctx context.Context, orderID string) (*purchaseResponse, error) {
	var resp purchaseResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/purchases/"+url.PathEscape(orderID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func outcome(p purchaseResponse) (*gateway.Confirmation, *gateway.Failure, bool) {
	switch p.Status {
	case paymentSettled:
		return &gateway.Confirmation{Token: p.OrderID, TotalCoins: p.Coins}, nil, true
	case paymentDeclined:
		return nil, gateway.Declined(p.Message), true
	case paymentCancelled, paymentExpired:
		return nil, gateway.Cancelled(p.Message), true
	default:
		return nil, nil, false
	}
}
