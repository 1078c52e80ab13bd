package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	// Database
	StoreDriver string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// JWT issued by the local identity provider
	JWTSecret       string
	JWTAccessExpiry time.Duration

	// Admin
	AdminEmails  string
	AdminUserIDs string

	// Billing
	StripeSecretKey       string
	StripeWebhookSecret   string
	StripeMonthlyPriceID  string
	StripeAnnualPriceID   string
	PaymentIntentAmount   string
	PaymentIntentCurrency string
	CancelConcurrency     int
	AppBaseURL            string

	// Submissions / access
	SubmissionCooldownDays int
	RequireSubscription    bool

	// Server
	Port        string
	CORSOrigins string
	RedisURL    string

	// Observability
	SentryDSN string
	AppEnv    string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real env vars win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		StoreDriver: getEnv("STORE_DRIVER", StorePostgres),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "pullup_club"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTAccessExpiry: parseDuration(getEnv("JWT_ACCESS_EXPIRY", "1h"), time.Hour),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),

		StripeSecretKey:       getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:   getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripeMonthlyPriceID:  getEnv("STRIPE_MONTHLY_PRICE_ID", ""),
		StripeAnnualPriceID:   getEnv("STRIPE_ANNUAL_PRICE_ID", ""),
		PaymentIntentAmount:   getEnv("PAYMENT_INTENT_AMOUNT", "10.00"),
		PaymentIntentCurrency: getEnv("PAYMENT_INTENT_CURRENCY", "usd"),
		CancelConcurrency:     parseInt(getEnv("CANCEL_CONCURRENCY", "4"), 4),
		AppBaseURL:            getEnv("APP_BASE_URL", "http://localhost:5173"),

		SubmissionCooldownDays: parseInt(getEnv("SUBMISSION_COOLDOWN_DAYS", "30"), 30),
		RequireSubscription:    parseBool(getEnv("REQUIRE_SUBSCRIPTION", "true"), true),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		RedisURL:    getEnv("REDIS_URL", ""),

		SentryDSN: getEnv("SENTRY_DSN", ""),
		AppEnv:    getEnv("APP_ENV", "development"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// PriceIDs maps checkout plans to the billing provider's price identifiers.
func (c *Config) PriceIDs() map[string]string {
	return map[string]string{
		"monthly": c.StripeMonthlyPriceID,
		"annual":  c.StripeAnnualPriceID,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseBool(s string, fallback bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return b
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	}
	if c.StoreDriver != StoreMemory && c.DBPassword == "" {
		errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
	}
	if c.StoreDriver != StorePostgres && c.StoreDriver != StoreMemory {
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q", StorePostgres, StoreMemory))
	}
	if c.StripeSecretKey == "" {
		errs = append(errs, errors.New("STRIPE_SECRET_KEY environment variable is required"))
	}
	if c.StripeMonthlyPriceID == "" || c.StripeAnnualPriceID == "" {
		errs = append(errs, errors.New("STRIPE_MONTHLY_PRICE_ID and STRIPE_ANNUAL_PRICE_ID are required"))
	}
	return errors.Join(errs...)
}
