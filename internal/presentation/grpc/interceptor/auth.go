package interceptor

import (
	"context"
	"strings"

	otelinfra "coin-wallet/internal/infrastructure/observability/otel"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type userIDKey struct{}

// TokenValidator JWTを検証してユーザーIDを返す
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (string, error)
}

// UserIDFromContext 認証済みユーザーIDを取得
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey{}).(string)
	return userID, ok && userID != ""
}

// ContextWithUserID ユーザーIDをコンテキストに設定
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// AuthInterceptor JWT認証インターセプター（servicePrefix で始まるメソッドのみ対象）
func AuthInterceptor(validator TokenValidator, logger *otelinfra.Logger, servicePrefix string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !strings.HasPrefix(info.FullMethod, servicePrefix) {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			logger.Warn(ctx, "Missing metadata", nil)
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		authHeaders := md.Get("authorization")
		if len(authHeaders) == 0 {
			logger.Warn(ctx, "Missing authorization header", nil)
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}

		scheme, token, found := strings.Cut(authHeaders[0], " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			logger.Warn(ctx, "Invalid authorization header format", nil)
			return nil, status.Error(codes.Unauthenticated, "invalid authorization header format")
		}

		userID, err := validator.ValidateToken(ctx, token)
		if err != nil {
			logger.Warn(ctx, "Invalid token", map[string]interface{}{
				"method": info.FullMethod,
			})
			return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
		}

		return handler(ContextWithUserID(ctx, userID), req)
	}
}
