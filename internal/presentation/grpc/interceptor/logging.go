package interceptor

import (
	"context"
	"time"

	otelinfra "coin-wallet/internal/infrastructure/observability/otel"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LoggingInterceptor 呼び出しごとにメソッド・ステータス・処理時間を記録
func LoggingInterceptor(logger *otelinfra.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		fields := map[string]interface{}{
			"method":      info.FullMethod,
			"code":        code.String(),
			"duration_ms": time.Since(start).Milliseconds(),
		}
		switch code {
		case codes.OK:
			logger.Info(ctx, "gRPC request", fields)
		case codes.Internal, codes.Unavailable, codes.Unknown:
			logger.Error(ctx, "gRPC request failed", err, fields)
		default:
			logger.Warn(ctx, "gRPC request rejected", fields)
		}
		return resp, err
	}
}
