package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	otelcodes "go.opentelemetry.io/otel/codes"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
)

func TestTracingMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		handler        echo.HandlerFunc
		expectedStatus otelcodes.Code
		expectError    bool
	}{
		{
			name: "正常系: 成功したリクエスト",
			handler: func(c echo.Context) error {
				c.Set(UserIDKey, "user123")
				return c.String(http.StatusOK, "ok")
			},
			expectedStatus: otelcodes.Unset,
		},
		{
			name: "異常系: ハンドラーのエラーを記録",
			handler: func(c echo.Context) error {
				return errors.New("boom")
			},
			expectedStatus: otelcodes.Error,
			expectError:    true,
		},
		{
			name: "異常系: 5xxレスポンス",
			handler: func(c echo.Context) error {
				return c.String(http.StatusBadGateway, "bad gateway")
			},
			expectedStatus: otelcodes.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := tracetest.NewSpanRecorder()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
			prev := otel.GetTracerProvider()
			otel.SetTracerProvider(tp)
			t.Cleanup(func() { otel.SetTracerProvider(prev) })

			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/me/balance", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetPath("/api/v1/me/balance")

			err := TracingMiddleware()(tt.handler)(c)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, "GET /api/v1/me/balance", spans[0].Name())
			assert.Equal(t, tt.expectedStatus, spans[0].Status().Code)
		})
	}
}

func TestMetricsMiddleware(t *testing.T) {
	otel.SetMeterProvider(metricnoop.NewMeterProvider())
	metrics, err := otelinfra.NewMetrics("test-meter")
	require.NoError(t, err)

	tests := []struct {
		name        string
		handler     echo.HandlerFunc
		expectError bool
		status      int
	}{
		{
			name:    "正常系: 200",
			handler: func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
			status:  http.StatusOK,
		},
		{
			name:    "正常系: 4xx",
			handler: func(c echo.Context) error { return c.String(http.StatusNotFound, "missing") },
			status:  http.StatusNotFound,
		},
		{
			name:        "異常系: ステータス未確定のエラー",
			handler:     func(c echo.Context) error { return errors.New("boom") },
			expectError: true,
			status:      http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/coins/packages", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetPath("/api/v1/coins/packages")

			err := MetricsMiddleware(metrics)(tt.handler)(c)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestMetricsMiddleware_NilMetrics(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	err := MetricsMiddleware(nil)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})(e.NewContext(req, rec))
	require.NoError(t, err)
}

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		handler       echo.HandlerFunc
		expectedLevel string
		expectedMsg   string
	}{
		{
			name: "正常系: 完了ログ",
			handler: func(c echo.Context) error {
				c.Set(UserIDKey, "user123")
				return c.String(http.StatusCreated, "created")
			},
			expectedLevel: `"level":"INFO"`,
			expectedMsg:   "HTTP request completed",
		},
		{
			name:          "異常系: ハンドラーエラー",
			handler:       func(c echo.Context) error { return errors.New("boom") },
			expectedLevel: `"level":"ERROR"`,
			expectedMsg:   "HTTP request failed",
		},
		{
			name:          "異常系: 5xxレスポンス",
			handler:       func(c echo.Context) error { return c.String(http.StatusServiceUnavailable, "down") },
			expectedLevel: `"level":"WARN"`,
			expectedMsg:   "HTTP request completed with server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := otelinfra.NewLoggerWithWriter(noop.NewTracerProvider().Tracer("test"), &buf)

			e := echo.New()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/purchases", nil)
			rec := httptest.NewRecorder()

			_ = LoggingMiddleware(logger)(tt.handler)(e.NewContext(req, rec))

			out := buf.String()
			assert.Contains(t, out, tt.expectedLevel)
			assert.Contains(t, out, tt.expectedMsg)
			assert.Contains(t, out, `"path":"/api/v1/purchases"`)
		})
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		https         bool
		expectedCSP   string
		expectHSTS    bool
		expectNoCache bool
	}{
		{
			name:          "正常系: APIパス",
			path:          "/api/v1/me/balance",
			expectedCSP:   apiCSP,
			expectNoCache: true,
		},
		{
			name:        "正常系: Swaggerパス",
			path:        "/swagger/index.html",
			expectedCSP: swaggerCSP,
		},
		{
			name:          "正常系: HTTPSではHSTSを付与",
			path:          "/api/v1/me/balance",
			https:         true,
			expectedCSP:   apiCSP,
			expectHSTS:    true,
			expectNoCache: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.https {
				req.Header.Set(echo.HeaderXForwardedProto, "https")
			}
			rec := httptest.NewRecorder()

			err := SecurityHeadersMiddleware()(func(c echo.Context) error {
				return c.String(http.StatusOK, "ok")
			})(e.NewContext(req, rec))
			require.NoError(t, err)

			h := rec.Header()
			assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
			assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
			assert.Equal(t, tt.expectedCSP, h.Get("Content-Security-Policy"))
			assert.Equal(t, tt.expectHSTS, h.Get("Strict-Transport-Security") != "")
			assert.Equal(t, tt.expectNoCache, h.Get("Cache-Control") == "no-store")
		})
	}
}
