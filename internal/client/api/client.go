package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

const maxErrorBodyBytes = 64 << 10

// Options APIクライアントの設定
type Options struct {
	BaseURL      string
	Token        string
	ScriptURL    string        // 決済スクリプトのURL
	Timeout      time.Duration // HTTPクライアント全体のタイムアウト
	PollInterval time.Duration // 決済状態の確認間隔
	HTTPClient   *http.Client
	OnRedirect   func(orderID, redirectURL string) // 決済画面のURLを利用者に提示する
	Logger       *otelinfra.Logger
}

// Client ウォレットAPIのHTTPクライアント
type Client struct {
	baseURL      string
	scriptURL    string
	pollInterval time.Duration
	http         *http.Client
	onRedirect   func(orderID, redirectURL string)
	logger       *otelinfra.Logger

	mu    sync.RWMutex
	token string
}

// NewClient 新しいClientを作成
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		scriptURL:    opts.ScriptURL,
		pollInterval: pollInterval,
		http:         httpClient,
		onRedirect:   opts.OnRedirect,
		logger:       opts.Logger,
		token:        opts.Token,
	}
}

// SetToken 認証トークンを設定する
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// IssueToken ユーザーIDから認証トークンを発行し、以降のリクエストで使う
func (c *Client) IssueToken(ctx context.Context, userID string) (string, error) {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/token", nil, tokenRequest{UserID: userID}, &resp); err != nil {
		return "", err
	}
	c.SetToken(resp.Token)
	return resp.Token, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Network: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &Error{StatusCode: resp.StatusCode}
		var eb errorBody
		if decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBodyBytes)).Decode(&eb); decodeErr == nil {
			apiErr.Code = eb.Error
			apiErr.Message = eb.Message
		}
		c.logger.Debug(ctx, "API request failed", map[string]interface{}{
			"method":      method,
			"path":        path,
			"status_code": resp.StatusCode,
			"code":        apiErr.Code,
		})
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
