package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"coin-wallet/internal/infrastructure/config"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

var (
	// ErrInvalidUserID ユーザーIDが無効
	ErrInvalidUserID = errors.New("user_id is required")
	// ErrInvalidToken トークンが無効または期限切れ
	ErrInvalidToken = errors.New("invalid or expired token")
)

var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@]{1,255}$`)

// AuthApplicationService 認証アプリケーションサービス
type AuthApplicationService struct {
	jwtConfig *config.JWTConfig
	logger    *otelinfra.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewAuthApplicationService 新しいAuthApplicationServiceを作成
func NewAuthApplicationService(jwtConfig *config.JWTConfig, logger *otelinfra.Logger) *AuthApplicationService {
	return &AuthApplicationService{
		jwtConfig: jwtConfig,
		logger:    logger,
		tracer:    otel.Tracer("auth-service"),
		now:       time.Now,
	}
}

// GenerateToken JWTトークンを生成
func (s *AuthApplicationService) GenerateToken(ctx context.Context, req *GenerateTokenRequest) (*GenerateTokenResponse, error) {
	ctx, span := s.tracer.Start(ctx, "AuthApplicationService.GenerateToken")
	defer span.End()

	span.SetAttributes(
		attribute.String("user_id", req.UserID),
	)

	if !userIDRegex.MatchString(req.UserID) {
		span.RecordError(ErrInvalidUserID)
		span.SetStatus(codes.Error, ErrInvalidUserID.Error())
		s.logger.Warn(ctx, "Invalid user id for token", nil)
		return nil, ErrInvalidUserID
	}

	now := s.now()
	expiresAt := now.Add(s.jwtConfig.Expiration)

	claims := Claims{
		UserID: req.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   req.UserID,
			Issuer:    s.jwtConfig.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error(ctx, "Failed to generate token", err, map[string]interface{}{
			"user_id": req.UserID,
		})
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info(ctx, "Token generated successfully", map[string]interface{}{
		"user_id":    req.UserID,
		"expires_at": expiresAt.Unix(),
	})

	return &GenerateTokenResponse{
		Token:     tokenString,
		ExpiresIn: int64(s.jwtConfig.Expiration.Seconds()),
		TokenType: "Bearer",
	}, nil
}

// ValidateToken トークンを検証してユーザーIDを返す
func (s *AuthApplicationService) ValidateToken(ctx context.Context, tokenString string) (string, error) {
	_, span := s.tracer.Start(ctx, "AuthApplicationService.ValidateToken")
	defer span.End()

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtConfig.Secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.jwtConfig.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		span.SetStatus(codes.Error, "invalid token")
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		return "", ErrInvalidToken
	}
	if !userIDRegex.MatchString(claims.UserID) {
		span.SetStatus(codes.Error, "missing user_id claim")
		return "", fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}

	span.SetAttributes(attribute.String("user_id", claims.UserID))
	span.SetStatus(codes.Ok, "token valid")
	return claims.UserID, nil
}
