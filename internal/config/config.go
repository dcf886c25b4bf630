package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	Telemetry TelemetryConfig

	// OutboundTimeout bounds every call to a dependency (store, Stripe, SMTP, CRM).
	OutboundTimeout time.Duration

	AdminToken     string
	AdminTokenHash string

	PublicBaseURL  string
	AccessBaseURL  string
	SuccessURL     string
	CancelURL      string
	StorefrontFile string

	CatalogSeedOnStart bool

	Store     StoreConfig
	Stripe    StripeConfig
	MP        MercadoPagoConfig
	Email     EmailConfig
	Kommo     KommoConfig
	RateLimit RateLimitConfig
}

// TelemetryConfig follows the OTEL_* environment conventions; exporters are off
// unless OTEL_ENABLED is set.
type TelemetryConfig struct {
	LogLevel      string
	LogFormat     string
	OtelEnabled   bool
	OTLPEndpoint  string
	OTLPProtocol  string
	SamplingRatio float64
}

type StoreConfig struct {
	Driver    string
	KeyPrefix string

	RedisURL      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

type MercadoPagoConfig struct {
	AccessToken string
	Currency    string
	BaseURL     string
}

type EmailConfig struct {
	Provider     string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	ResendAPIKey string
	ResendFrom   string
	ResendURL    string
}

type KommoConfig struct {
	BaseURL         string
	APIToken        string
	PipelineID      int64
	StatusCompleted int64
	StatusExpired   int64
	StatusRejected  int64
	EmailFieldID    int64
	WhatsAppFieldID int64
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Rate          float64
	Burst         int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	publicBaseURL := strings.TrimRight(getenv("PUBLIC_BASE_URL", "https://tradingsinfronteras-shop.vercel.app"), "/")

	cfg := Config{
		AppName:            getenv("APP_SERVICE", "tsfshop"),
		AppVersion:         getenv("APP_VERSION", "0.1.0"),
		Environment:        getenv("ENVIRONMENT", "development"),
		HTTPAddr:           getenv("HTTP_ADDR", ":8080"),
		Telemetry: TelemetryConfig{
			LogLevel:      strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
			LogFormat:     strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
			OtelEnabled:   getenvBool("OTEL_ENABLED", false),
			OTLPEndpoint:  strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")),
			OTLPProtocol:  strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
			SamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		},
		OutboundTimeout:    getenvDuration("OUTBOUND_TIMEOUT", 10*time.Second),
		AdminToken:         strings.TrimSpace(getenv("ADMIN_TOKEN", "")),
		AdminTokenHash:     strings.TrimSpace(getenv("ADMIN_TOKEN_BCRYPT", "")),
		PublicBaseURL:      publicBaseURL,
		AccessBaseURL:      getenv("ACCESS_BASE_URL", publicBaseURL+"/access.html"),
		SuccessURL:         getenv("CHECKOUT_SUCCESS_URL", publicBaseURL+"/checkout-success-stripe.html"),
		CancelURL:          getenv("CHECKOUT_CANCEL_URL", publicBaseURL+"/cart.html"),
		StorefrontFile:     strings.TrimSpace(getenv("STOREFRONT_CONFIG", "")),
		CatalogSeedOnStart: getenvBool("CATALOG_SEED_ON_START", false),
		Store: StoreConfig{
			Driver:            strings.ToLower(getenv("STORE_DRIVER", "redis")),
			KeyPrefix:         getenv("STORE_KEY_PREFIX", "tsf:"),
			RedisURL:          strings.TrimSpace(getenv("REDIS_URL", "")),
			RedisAddr:         getenv("REDIS_ADDR", "localhost:6379"),
			RedisPassword:     strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			RedisDB:           getenvInt("REDIS_DB", 0),
			DBType:            getenv("DATABASE_TYPE", "sqlite"),
			DBHost:            getenv("DATABASE_HOST", "localhost"),
			DBPort:            getenv("DATABASE_PORT", "5432"),
			DBName:            getenv("DATABASE_NAME", "tsfshop"),
			DBUser:            getenv("DATABASE_USER", "postgres"),
			DBPassword:        getenv("DATABASE_PASSWORD", ""),
			DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
			DBPath:            getenv("DATABASE_PATH", "tsfshop.db"),
			DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
			DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
			DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		},
		Stripe: StripeConfig{
			SecretKey:     strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
			WebhookSecret: strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
			Currency:      strings.ToLower(getenv("STRIPE_CURRENCY", "usd")),
		},
		MP: MercadoPagoConfig{
			AccessToken: strings.TrimSpace(getenv("MP_ACCESS_TOKEN", "")),
			Currency:    strings.ToUpper(getenv("MP_CURRENCY", "ARS")),
			BaseURL:     strings.TrimRight(getenv("MP_BASE_URL", "https://api.mercadopago.com"), "/"),
		},
		Email: EmailConfig{
			Provider:     strings.ToLower(getenv("EMAIL_PROVIDER", "")),
			SMTPHost:     getenv("SMTP_HOST", "smtp.gmail.com"),
			SMTPPort:     getenvInt("SMTP_PORT", 587),
			SMTPUsername: strings.TrimSpace(getenv("SMTP_EMAIL", "")),
			SMTPPassword: strings.TrimSpace(getenv("SMTP_PASS", "")),
			SMTPFrom:     getenv("SMTP_FROM", ""),
			ResendAPIKey: strings.TrimSpace(getenv("RESEND_API_KEY", "")),
			ResendFrom:   getenv("RESEND_FROM", "TSF SHOP <no-reply@tradingsinfronteras.com>"),
			ResendURL:    strings.TrimSpace(getenv("RESEND_URL", "")),
		},
		Kommo: KommoConfig{
			BaseURL:         strings.TrimRight(strings.TrimSpace(getenv("KOMMO_BASE_URL", "")), "/"),
			APIToken:        strings.TrimSpace(getenv("KOMMO_API_TOKEN", "")),
			PipelineID:      getenvInt64("KOMMO_PIPELINE_ID", 0),
			StatusCompleted: getenvInt64("KOMMO_STATUS_ID_COMPLETADO", 0),
			StatusExpired:   getenvInt64("KOMMO_STATUS_ID_INCOMPLETO", 0),
			StatusRejected:  getenvInt64("KOMMO_STATUS_ID_RECHAZADO", 0),
			EmailFieldID:    getenvInt64("KOMMO_CF_EMAIL", 0),
			WhatsAppFieldID: getenvInt64("KOMMO_CF_WHATSAPP", 0),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     getenv("RATE_LIMIT_REDIS_ADDR", getenv("REDIS_ADDR", "localhost:6379")),
			RedisPassword: strings.TrimSpace(getenv("RATE_LIMIT_REDIS_PASSWORD", "")),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			Rate:          getenvFloat("RATE_LIMIT_RATE", 1),
			Burst:         getenvInt("RATE_LIMIT_BURST", 10),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
