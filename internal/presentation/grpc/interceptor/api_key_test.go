package interceptor

import (
	"context"
	"net"
	"testing"

	"coin-wallet/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const adminPrefix = "/coinwallet.v1.AdminService/"

func TestAPIKeyInterceptor(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.AdminAPIConfig
		method   string
		md       metadata.MD
		peerAddr net.Addr
		wantCode codes.Code
	}{
		{
			name:     "正常系: 有効なAPIキー",
			cfg:      config.AdminAPIConfig{Enabled: true, APIKey: "secret"},
			method:   adminPrefix + "ExpireStalePayments",
			md:       metadata.Pairs("x-api-key", "secret"),
			wantCode: codes.OK,
		},
		{
			name:     "正常系: 対象外のサービスは素通し",
			cfg:      config.AdminAPIConfig{Enabled: false},
			method:   walletPrefix + "GetBalance",
			wantCode: codes.OK,
		},
		{
			name:     "正常系: CIDRで許可された接続元",
			cfg:      config.AdminAPIConfig{Enabled: true, APIKey: "secret", AllowedIPs: []string{"10.0.0.0/8"}},
			method:   adminPrefix + "ExpireStalePayments",
			md:       metadata.Pairs("x-api-key", "secret"),
			peerAddr: &net.TCPAddr{IP: net.ParseIP("10.1.2.3"), Port: 50000},
			wantCode: codes.OK,
		},
		{
			name:     "正常系: X-Forwarded-For の先頭を使う",
			cfg:      config.AdminAPIConfig{Enabled: true, APIKey: "secret", AllowedIPs: []string{"192.168.1.10"}},
			method:   adminPrefix + "ExpireStalePayments",
			md:       metadata.Pairs("x-api-key", "secret", "x-forwarded-for", "192.168.1.10, 10.0.0.1"),
			wantCode: codes.OK,
		},
		{
			name:     "異常系: 管理APIが無効",
			cfg:      config.AdminAPIConfig{Enabled: false, APIKey: "secret"},
			method:   adminPrefix + "ExpireStalePayments",
			md:       metadata.Pairs("x-api-key", "secret"),
			wantCode: codes.PermissionDenied,
		},
		{
			name:     "異常系: APIキーなし",
			cfg:      config.AdminAPIConfig{Enabled: true, APIKey: "secret"},
			method:   adminPrefix + "ExpireStalePayments",
			md:       metadata.MD{},
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "異常系: APIキー不一致",
			cfg:      config.AdminAPIConfig{Enabled: true, APIKey: "secret"},
			method:   adminPrefix + "ExpireStalePayments",
			md:       metadata.Pairs("x-api-key", "wrong"),
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "異常系: 許可リスト外の接続元",
			cfg:      config.AdminAPIConfig{Enabled: true, APIKey: "secret", AllowedIPs: []string{"10.0.0.0/8"}},
			method:   adminPrefix + "ExpireStalePayments",
			md:       metadata.Pairs("x-api-key", "secret"),
			peerAddr: &net.TCPAddr{IP: net.ParseIP("172.16.0.1"), Port: 50000},
			wantCode: codes.PermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			interceptor := APIKeyInterceptor(&cfg, newTestLogger(), adminPrefix)

			ctx := context.Background()
			if tt.md != nil {
				ctx = metadata.NewIncomingContext(ctx, tt.md)
			}
			if tt.peerAddr != nil {
				ctx = peer.NewContext(ctx, &peer.Peer{Addr: tt.peerAddr})
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return "success", nil
			}

			resp, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: tt.method}, handler)
			if tt.wantCode != codes.OK {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, status.Code(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "success", resp)
		})
	}
}
