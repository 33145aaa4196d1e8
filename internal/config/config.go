package config

import (
	"os"
	"strconv"
	"time"
)

type PayPal struct {
	Business  string // receiver account the provider must report
	URL       string // where the hand-off form posts
	VerifyURL string // postback endpoint; empty disables verification
}

type Config struct {
	Port        string
	DBDSN       string
	LogFile     string
	ServiceName string
	Env         string
	BaseURL     string
	SessionTTL  time.Duration
	RateLimit   int
	PayPal      PayPal
}

func Load() Config {
	return Config{
		Port:        env("PORT", "8080"),
		DBDSN:       env("DB_DSN", "lacestore.db"), // sqlite file in project root
		LogFile:     os.Getenv("LOG_FILE"),
		ServiceName: env("SERVICE_NAME", "lacestore"),
		Env:         env("ENV", "dev"),
		BaseURL:     env("BASE_URL", "http://localhost:8080"),
		SessionTTL:  duration("SESSION_TTL", 24*time.Hour),
		RateLimit:   number("RATE_LIMIT", 60),
		PayPal: PayPal{
			Business:  env("PAYPAL_BUSINESS", "sales@lacestore.test"),
			URL:       env("PAYPAL_URL", "https://www.sandbox.paypal.com/cgi-bin/webscr"),
			VerifyURL: os.Getenv("PAYPAL_VERIFY_URL"),
		},
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func number(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
