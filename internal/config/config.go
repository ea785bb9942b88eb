package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config は環境変数から組み立てる実行時設定です。
// 金額はすべて最小通貨単位（セント）です。
type Config struct {
	Port string

	// DATABASE_URLがあればPOSTGRES_*より優先
	DatabaseURL      string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	CookieSecure    bool

	GoEnv    string
	FEURL    string // CORSの許可オリジン
	LogLevel string

	StripeSecretKey     string
	StripeWebhookSecret string
	Currency            string // 小文字のISO 4217

	LowStockThreshold     int64
	CheckoutTTL           time.Duration
	FreeShippingThreshold int64 // 小計がこれ以上ならstandard送料0
}

// 数値系の設定。未設定なら既定値
type intSetting struct {
	key string
	def int
	set func(*Config, int)
}

var intSettings = []intSetting{
	{"POSTGRES_PORT", 5432, func(c *Config, v int) { c.PostgresPort = v }},
	{"ACCESS_TOKEN_TTL_MINUTES", 15, func(c *Config, v int) { c.AccessTokenTTL = time.Duration(v) * time.Minute }},
	{"REFRESH_TOKEN_TTL_HOURS", 14 * 24, func(c *Config, v int) { c.RefreshTokenTTL = time.Duration(v) * time.Hour }},
	{"CHECKOUT_TTL_MINUTES", 30, func(c *Config, v int) { c.CheckoutTTL = time.Duration(v) * time.Minute }},
	{"LOW_STOCK_THRESHOLD", 5, func(c *Config, v int) { c.LowStockThreshold = int64(v) }},
	{"FREE_SHIPPING_THRESHOLD", 20000, func(c *Config, v int) { c.FreeShippingThreshold = int64(v) }},
}

func Load() (Config, error) {
	cfg := Config{
		Port:             os.Getenv("PORT"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret:    os.Getenv("JWT_SECRET"),
		CookieSecure: envBool("COOKIE_SECURE", true),

		GoEnv:    os.Getenv("GO_ENV"),
		FEURL:    os.Getenv("FE_URL"),
		LogLevel: strings.ToLower(getenv("LOG_LEVEL", "info")),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Currency:            strings.ToLower(getenv("CURRENCY", "usd")),
	}

	for _, s := range intSettings {
		v, err := optionalAtoi(s.key, s.def)
		if err != nil {
			return Config{}, err
		}
		s.set(&cfg, v)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	required := [][2]string{
		{"PORT", c.Port},
		{"JWT_SECRET", c.JWTSecret},
		{"GO_ENV", c.GoEnv},
		{"FE_URL", c.FEURL},
	}
	if c.DatabaseURL == "" {
		required = append(required,
			[2]string{"POSTGRES_USER", c.PostgresUser},
			[2]string{"POSTGRES_PASSWORD", c.PostgresPassword},
			[2]string{"POSTGRES_DB", c.PostgresDB},
			[2]string{"POSTGRES_HOST", c.PostgresHost},
		)
	}
	for _, r := range required {
		if r[1] == "" {
			return fmt.Errorf("%s is required", r[0])
		}
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug/info/warn/error")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 || c.CheckoutTTL <= 0 {
		return fmt.Errorf("token and checkout TTL must be positive")
	}
	if c.FreeShippingThreshold < 0 || c.LowStockThreshold < 0 {
		return fmt.Errorf("thresholds must not be negative")
	}
	return nil
}

// gorm(postgres)用
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func (c Config) IsProduction() bool {
	return c.GoEnv == "prod" || c.GoEnv == "production"
}

func optionalAtoi(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func getenv(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return b
}
