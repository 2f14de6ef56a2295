package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config アプリケーション全体の設定
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	OpenTelemetry OpenTelemetryConfig
	AdminAPI      AdminAPIConfig
	Gateway       GatewayConfig
	Wallet        WalletConfig
	Environment   string
	LogLevel      string
}

// ServerConfig サーバー設定
type ServerConfig struct {
	Port            int
	GRPCPort        int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig データベース設定
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RedisConfig Redis設定（非同期タスクキューで使用）
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// JWTConfig JWT設定
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// OpenTelemetryConfig OpenTelemetry設定
type OpenTelemetryConfig struct {
	Enabled         bool
	ServiceName     string
	ServiceVersion  string
	Environment     string
	OTLPEndpoint    string
	OTLPInsecure    bool
	TraceExporter   string // "otlp", "none"
	MetricsExporter string // "otlp", "none"
	SampleRatio     float64
	MetricsInterval time.Duration
}

// AdminAPIConfig 管理API（APIキー認証）設定
type AdminAPIConfig struct {
	Enabled    bool
	APIKey     string
	AllowedIPs []string
}

// GatewayConfig 決済ゲートウェイ（Midtrans）設定
type GatewayConfig struct {
	Enabled    bool
	ServerKey  string
	ClientKey  string
	Production bool
	ScriptURL  string
	Timeout    time.Duration
}

// WalletConfig ウォレットの業務設定
type WalletConfig struct {
	TopUpMinRupees  int64
	TopUpMaxRupees  int64
	TopUpTiers      []int64
	PaymentExpiry   time.Duration
	ExpirySchedule  string // cron形式
	HistoryMaxLimit int
}

// Load 設定を読み込む
func Load() (*Config, error) {
	// .envファイルを読み込む（存在しない場合は無視）
	_ = godotenv.Load()

	env := getEnv("ENVIRONMENT", "development")
	production := getEnvAsBool("MIDTRANS_PRODUCTION", false)

	cfg := &Config{
		Environment: env,
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			GRPCPort:        getEnvAsInt("GRPC_PORT", 9090),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:  getEnvAsSlice("SERVER_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: databaseFromEnv(),
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", ""),
			Expiration: getEnvAsDuration("JWT_EXPIRATION", 24*time.Hour),
			Issuer:     getEnv("JWT_ISSUER", "coin-wallet"),
		},
		OpenTelemetry: OpenTelemetryConfig{
			Enabled:         getEnvAsBool("OTEL_ENABLED", true),
			ServiceName:     getEnv("OTEL_SERVICE_NAME", "coin-wallet"),
			ServiceVersion:  getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Environment:     env,
			OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			OTLPInsecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			TraceExporter:   getEnv("OTEL_TRACES_EXPORTER", "otlp"),
			MetricsExporter: getEnv("OTEL_METRICS_EXPORTER", "otlp"),
			SampleRatio:     getEnvAsFloat("OTEL_TRACES_SAMPLE_RATIO", 1.0),
			MetricsInterval: getEnvAsDuration("OTEL_METRIC_EXPORT_INTERVAL", 60*time.Second),
		},
		AdminAPI: AdminAPIConfig{
			Enabled:    getEnvAsBool("ADMIN_API_ENABLED", false),
			APIKey:     getEnv("ADMIN_API_KEY", ""),
			AllowedIPs: getEnvAsSlice("ADMIN_API_ALLOWED_IPS", nil),
		},
		Gateway: GatewayConfig{
			Enabled:    getEnvAsBool("MIDTRANS_ENABLED", true),
			ServerKey:  getEnv("MIDTRANS_SERVER_KEY", ""),
			ClientKey:  getEnv("MIDTRANS_CLIENT_KEY", ""),
			Production: production,
			ScriptURL:  getEnv("MIDTRANS_SCRIPT_URL", defaultScriptURL(production)),
			Timeout:    getEnvAsDuration("MIDTRANS_TIMEOUT", 10*time.Second),
		},
		Wallet: WalletConfig{
			TopUpMinRupees:  int64(getEnvAsInt("WALLET_TOPUP_MIN", 10)),
			TopUpMaxRupees:  int64(getEnvAsInt("WALLET_TOPUP_MAX", 10000)),
			TopUpTiers:      getEnvAsInt64Slice("WALLET_TOPUP_TIERS", []int64{100, 500, 1000}),
			PaymentExpiry:   getEnvAsDuration("WALLET_PAYMENT_EXPIRY", 30*time.Minute),
			ExpirySchedule:  getEnv("WALLET_EXPIRY_SCHEDULE", "*/5 * * * *"),
			HistoryMaxLimit: getEnvAsInt("WALLET_HISTORY_MAX_LIMIT", 1000),
		},
	}

	// 必須設定の検証
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadDatabase DB設定だけを読み込む（マイグレーションなどJWTやゲートウェイを使わないコマンド用）
func LoadDatabase() (*DatabaseConfig, error) {
	_ = godotenv.Load()

	cfg := databaseFromEnv()
	if cfg.Host == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}
	return &cfg, nil
}

func databaseFromEnv() DatabaseConfig {
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 3306),
		User:            getEnv("DB_USER", "root"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "coin_wallet"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
	}
}

// validate 設定の検証
func (c *Config) validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Gateway.Enabled && c.Gateway.ServerKey == "" {
		return fmt.Errorf("MIDTRANS_SERVER_KEY is required when MIDTRANS_ENABLED is true")
	}
	if c.AdminAPI.Enabled && c.AdminAPI.APIKey == "" {
		return fmt.Errorf("ADMIN_API_KEY is required when ADMIN_API_ENABLED is true")
	}
	if c.Wallet.TopUpMinRupees <= 0 || c.Wallet.TopUpMinRupees >= c.Wallet.TopUpMaxRupees {
		return fmt.Errorf("WALLET_TOPUP_MIN must be positive and below WALLET_TOPUP_MAX")
	}
	for _, tier := range c.Wallet.TopUpTiers {
		if tier < c.Wallet.TopUpMinRupees || tier > c.Wallet.TopUpMaxRupees {
			return fmt.Errorf("WALLET_TOPUP_TIERS value %d is outside the top-up bounds", tier)
		}
	}
	return nil
}

// DSN データベース接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address Redis接続アドレスを返す
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func defaultScriptURL(production bool) string {
	if production {
		return "https://app.midtrans.com/snap/snap.js"
	}
	return "https://app.sandbox.midtrans.com/snap/snap.js"
}

// getEnv 環境変数を取得（デフォルト値付き）
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt 環境変数を整数として取得
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat 環境変数を浮動小数点数として取得
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool 環境変数を真偽値として取得
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration 環境変数を時間として取得
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice カンマ区切りの環境変数を文字列スライスとして取得
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// getEnvAsInt64Slice カンマ区切りの環境変数を整数スライスとして取得
func getEnvAsInt64Slice(key string, defaultValue []int64) []int64 {
	parts := getEnvAsSlice(key, nil)
	if len(parts) == 0 {
		return defaultValue
	}
	values := make([]int64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return defaultValue
		}
		values = append(values, v)
	}
	return values
}
