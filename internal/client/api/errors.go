package api

import (
	"fmt"
	"net/http"
)

// Error APIの呼び出しエラー
type Error struct {
	StatusCode int
	Code       string // サーバーのエラーコード（insufficient_balance など）
	Message    string
	Network    bool // 応答を受け取れなかった
	Err        error
}

// Error error インターフェースの実装
func (e *Error) Error() string {
	if e.Network {
		return fmt.Sprintf("api request failed: %v", e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d %s", e.StatusCode, e.Code)
}

// Unwrap 原因エラーを返す
func (e *Error) Unwrap() error {
	return e.Err
}

// Temporary 再試行で回復しうるかを返す
func (e *Error) Temporary() bool {
	return e.Network || e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}
