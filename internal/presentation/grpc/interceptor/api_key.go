package interceptor

import (
	"context"
	"crypto/subtle"
	"net/netip"
	"strings"

	"coin-wallet/internal/infrastructure/config"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// APIKeyInterceptor 運用サービスのAPIキー認証インターセプター（servicePrefix で始まるメソッドのみ対象）
func APIKeyInterceptor(cfg *config.AdminAPIConfig, logger *otelinfra.Logger, servicePrefix string) grpc.UnaryServerInterceptor {
	allowed := parseAllowedIPs(cfg.AllowedIPs)

	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if !strings.HasPrefix(info.FullMethod, servicePrefix) {
			return handler(ctx, req)
		}

		if !cfg.Enabled {
			logger.Warn(ctx, "Admin API is disabled", nil)
			return nil, status.Error(codes.PermissionDenied, "admin API is disabled")
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			logger.Warn(ctx, "Missing metadata", nil)
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		apiKeys := md.Get("x-api-key")
		if len(apiKeys) == 0 {
			logger.Warn(ctx, "Missing X-API-Key metadata", nil)
			return nil, status.Error(codes.Unauthenticated, "missing X-API-Key metadata")
		}

		if cfg.APIKey == "" || subtle.ConstantTimeCompare([]byte(apiKeys[0]), []byte(cfg.APIKey)) != 1 {
			logger.Warn(ctx, "Invalid API key", nil)
			return nil, status.Error(codes.Unauthenticated, "invalid API key")
		}

		if len(allowed) > 0 {
			clientIP := clientIPFromContext(ctx, md)
			if !isIPAllowed(clientIP, allowed) {
				logger.Warn(ctx, "IP address not allowed", map[string]interface{}{
					"ip": clientIP,
				})
				return nil, status.Error(codes.PermissionDenied, "IP address not allowed")
			}
		}

		return handler(ctx, req)
	}
}

// clientIPFromContext プロキシヘッダー、なければ接続元アドレスからIPを取得
func clientIPFromContext(ctx context.Context, md metadata.MD) string {
	if forwardedFor := md.Get("x-forwarded-for"); len(forwardedFor) > 0 {
		first, _, _ := strings.Cut(forwardedFor[0], ",")
		return strings.TrimSpace(first)
	}
	if realIP := md.Get("x-real-ip"); len(realIP) > 0 {
		return strings.TrimSpace(realIP[0])
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if addrPort, err := netip.ParseAddrPort(p.Addr.String()); err == nil {
			return addrPort.Addr().String()
		}
	}
	return ""
}

// parseAllowedIPs 許可リスト（単一IPまたはCIDR）を解析
func parseAllowedIPs(entries []string) []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return prefixes
}

func isIPAllowed(ip string, allowed []netip.Prefix) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range allowed {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}
