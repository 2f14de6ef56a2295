package auth

import "github.com/golang-jwt/jwt/v5"

// GenerateTokenRequest トークン生成リクエスト
type GenerateTokenRequest struct {
	UserID string
}

// GenerateTokenResponse トークン生成レスポンス
type GenerateTokenResponse struct {
	Token     string
	ExpiresIn int64  // 秒単位
	TokenType string // "Bearer"
}

// Claims ウォレットAPIのJWTクレーム
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
