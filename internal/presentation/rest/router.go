package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	authapp "coin-wallet/internal/application/auth"
	currencyapp "coin-wallet/internal/application/currency"
	historyapp "coin-wallet/internal/application/history"
	paymentapp "coin-wallet/internal/application/payment"
	rewardapp "coin-wallet/internal/application/reward"
	"coin-wallet/internal/infrastructure/config"
	otelinfra "coin-wallet/internal/infrastructure/observability/otel"
	"coin-wallet/internal/presentation/rest/handler"
	restmiddleware "coin-wallet/internal/presentation/rest/middleware"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Services ルーターが公開するアプリケーションサービス
type Services struct {
	Auth     *authapp.AuthApplicationService
	Currency *currencyapp.CurrencyApplicationService
	History  *historyapp.HistoryApplicationService
	Payment  *paymentapp.PaymentApplicationService
	Reward   *rewardapp.RewardApplicationService
}

// Pinger ヘルスチェックで疎通を確認する依存先（*sql.DB など）
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Router REST APIルーター
type Router struct {
	echo *echo.Echo
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	services Services,
	db Pinger,
) (*Router, error) {
	if services.Auth == nil {
		return nil, errors.New("auth service is required")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()

	// ミドルウェアの外で発生したエラー（Recover など）も同じ形式で返す
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		_ = restmiddleware.HandleError(c, err, logger)
	}

	setupMiddleware(e, logger, metrics)
	setupRoutes(e, cfg, logger, services, db)
	SetupSwagger(e)

	return &Router{echo: e}, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-API-Key"},
	}))
	e.Use(middleware.BodyLimit("64K"))
	e.Use(restmiddleware.SecurityHeadersMiddleware())
	e.Use(restmiddleware.TracingMiddleware())
	e.Use(restmiddleware.LoggingMiddleware(logger))
	e.Use(restmiddleware.MetricsMiddleware(metrics))
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func setupRoutes(e *echo.Echo, cfg *config.Config, logger *otelinfra.Logger, services Services, db Pinger) {
	authHandler := handler.NewAuthHandler(services.Auth)
	currencyHandler := handler.NewCurrencyHandler(services.Currency)
	historyHandler := handler.NewHistoryHandler(services.History)
	paymentHandler := handler.NewPaymentHandler(services.Payment)
	rewardHandler := handler.NewRewardHandler(services.Reward)

	api := e.Group("/api/v1")

	// 認証不要
	api.POST("/auth/token", authHandler.GenerateToken)
	api.POST("/payments/notifications", paymentHandler.HandleNotification)

	// ユーザーAPI（JWT）
	user := api.Group("", restmiddleware.AuthMiddleware(services.Auth, logger))
	user.GET("/coins/packages", currencyHandler.ListPackages)
	user.GET("/me/balance", currencyHandler.GetBalance)
	user.GET("/me/transactions", historyHandler.GetTransactionHistory)
	user.POST("/purchases", paymentHandler.CreatePurchase)
	user.GET("/purchases/:order_id", paymentHandler.GetPurchase)
	user.GET("/me/tasks", rewardHandler.ListTasks)
	user.POST("/me/tasks/:task_id/claim", rewardHandler.ClaimTask)

	// 運用API（APIキー）
	admin := api.Group("/admin", restmiddleware.APIKeyMiddleware(&cfg.AdminAPI, logger))
	admin.GET("/users/:user_id/balance", currencyHandler.GetBalanceAdmin)
	admin.GET("/users/:user_id/transactions", historyHandler.GetTransactionHistoryAdmin)
	admin.POST("/payments/:order_id/reconcile", paymentHandler.ReconcilePayment)
	admin.POST("/payments/expire", paymentHandler.ExpireStalePayments)

	e.GET("/health", healthHandler(db))
}

func healthHandler(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Handler http.Handler としてのルーター
func (r *Router) Handler() http.Handler {
	return r.echo
}
