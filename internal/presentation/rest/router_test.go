package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	authapp "coin-wallet/internal/application/auth"
	currencyapp "coin-wallet/internal/application/currency"
	historyapp "coin-wallet/internal/application/history"
	paymentapp "coin-wallet/internal/application/payment"
	rewardapp "coin-wallet/internal/application/reward"
	"coin-wallet/internal/domain/coin"
	"coin-wallet/internal/infrastructure/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPackageRepository 固定のパッケージを返すリポジトリ
type stubPackageRepository struct {
	packages []*coin.Package
}

func (r *stubPackageRepository) FindActive(ctx context.Context) ([]*coin.Package, error) {
	return r.packages, nil
}

func (r *stubPackageRepository) FindByID(ctx context.Context, packageID string) (*coin.Package, error) {
	for _, p := range r.packages {
		if p.ID() == packageID {
			return p, nil
		}
	}
	return nil, coin.ErrPackageNotFound
}

type stubPinger struct {
	err error
}

func (p stubPinger) PingContext(ctx context.Context) error {
	return p.err
}

func newTestConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:     "router-test-secret",
			Expiration: time.Hour,
			Issuer:     "coin-wallet",
		},
		AdminAPI: config.AdminAPIConfig{Enabled: false},
	}
}

func newTestRouter(t *testing.T, db Pinger) *Router {
	t.Helper()
	cfg := newTestConfig()
	packages := &stubPackageRepository{packages: []*coin.Package{
		coin.MustNewPackage("starter", "Starter", 100, 0, decimal.NewFromInt(5), false),
		coin.MustNewPackage("popular", "Popular", 2000, 200, decimal.NewFromInt(100), true),
	}}

	services := Services{
		Auth:     authapp.NewAuthApplicationService(&cfg.JWT, nil),
		Currency: currencyapp.NewCurrencyApplicationService(nil, packages, nil, nil),
		History:  historyapp.NewHistoryApplicationService(nil, nil, nil, 0),
		Payment:  paymentapp.NewPaymentApplicationService(nil, packages, nil, nil, nil, paymentapp.Settings{}, nil, nil),
		Reward:   rewardapp.NewRewardApplicationService(nil, nil, nil, nil),
	}

	router, err := NewRouter(cfg, nil, nil, services, db)
	require.NoError(t, err)
	return router
}

func issueToken(t *testing.T, h http.Handler, userID string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"user_id": userID})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	token, ok := resp["token"].(string)
	require.True(t, ok)
	return token
}

func TestNewRouter(t *testing.T) {
	t.Run("異常系: 認証サービスがない", func(t *testing.T) {
		router, err := NewRouter(newTestConfig(), nil, nil, Services{}, nil)
		assert.Error(t, err)
		assert.Nil(t, router)
	})
}

func TestRouter_Health(t *testing.T) {
	tests := []struct {
		name       string
		db         Pinger
		wantStatus int
		wantBody   string
	}{
		{
			name:       "正常系: DBなし",
			db:         nil,
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name:       "正常系: DB疎通あり",
			db:         stubPinger{},
			wantStatus: http.StatusOK,
			wantBody:   "ok",
		},
		{
			name:       "異常系: DB疎通失敗",
			db:         stubPinger{err: errors.New("connection refused")},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, tt.db)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()
			router.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantBody, body["status"])
		})
	}
}

func TestRouter_UserRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t, nil)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/coins/packages"},
		{http.MethodGet, "/api/v1/me/balance"},
		{http.MethodGet, "/api/v1/me/transactions"},
		{http.MethodPost, "/api/v1/purchases"},
		{http.MethodGet, "/api/v1/purchases/ORD-1"},
		{http.MethodGet, "/api/v1/me/tasks"},
		{http.MethodPost, "/api/v1/me/tasks/daily_login/claim"},
	}

	for _, r := range routes {
		t.Run("異常系: トークンなし "+r.method+" "+r.path, func(t *testing.T) {
			req := httptest.NewRequest(r.method, r.path, nil)
			rec := httptest.NewRecorder()
			router.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "unauthorized", body["error"])
		})
	}
}

func TestRouter_ListPackagesWithToken(t *testing.T) {
	router := newTestRouter(t, nil)
	token := issueToken(t, router.Handler(), "user123")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/coins/packages", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Packages []struct {
			PackageID  string `json:"package_id"`
			TotalCoins int64  `json:"total_coins"`
		} `json:"packages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Packages, 2)
	assert.Equal(t, "starter", body.Packages[0].PackageID)
	assert.Equal(t, int64(2200), body.Packages[1].TotalCoins)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestRouter_AdminDisabled(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/payments/expire", nil)
	req.Header.Set("X-API-Key", "anything")
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/unknown", nil)
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body["error"])
}

func TestRouter_OpenAPISpec(t *testing.T) {
	router := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	rec := httptest.NewRecorder()
	router.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/me/tasks/{task_id}/claim")
}
