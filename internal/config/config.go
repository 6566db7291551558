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

	Logger LoggerConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	OpenAIAPIKey      string
	AnthropicAPIKey   string
	GenerationTimeout time.Duration
	MaxOutputTokens   int

	StripeSecretKey     string
	StripeWebhookSecret string
	BaseURL             string

	// CreditPackageSize is the number of credits granted per completed
	// checkout. CreditPackagePrice is the package price in cents.
	CreditPackageSize  int64
	CreditPackagePrice int64
	Currency           string

	RateLimit RateLimitConfig
}

type LoggerConfig struct {
	Level string
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	GenerateRate  float64
	GenerateBurst int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "scribe"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		Logger: LoggerConfig{
			Level: getenv("LOG_LEVEL", "info"),
		},
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "scribe"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),

		OpenAIAPIKey:      strings.TrimSpace(getenv("OPENAI_API_KEY", "")),
		AnthropicAPIKey:   strings.TrimSpace(getenv("ANTHROPIC_API_KEY", "")),
		GenerationTimeout: time.Duration(getenvInt("GENERATION_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxOutputTokens:   getenvInt("GENERATION_MAX_OUTPUT_TOKENS", 1024),

		StripeSecretKey:     strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
		StripeWebhookSecret: strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
		BaseURL:             strings.TrimRight(getenv("BASE_URL", "http://localhost:8080"), "/"),

		CreditPackageSize:  getenvInt64("CREDIT_PACKAGE_SIZE", 300),
		CreditPackagePrice: getenvInt64("CREDIT_PACKAGE_PRICE_CENTS", 499),
		Currency:           strings.ToLower(getenv("CREDIT_PACKAGE_CURRENCY", "cad")),

		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword: getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			GenerateRate:  getenvFloat("RATE_LIMIT_GENERATE_RATE", 1),
			GenerateBurst: getenvInt("RATE_LIMIT_GENERATE_BURST", 5),
		},
	}

	return cfg
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
