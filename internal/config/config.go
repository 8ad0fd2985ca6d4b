package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	CRDBDSN      string
	MongoURI     string
	RedisAddr    string
	RabbitURL    string
	OTLPEndpoint string
	HTTPAddr     string

	LockTTL        time.Duration
	PaymentWindow  time.Duration
	RetentionGrace time.Duration
	JobStaleAfter  time.Duration

	LockSweepInterval      time.Duration
	BookingSweepInterval   time.Duration
	RetentionSweepInterval time.Duration
	OutboxInterval         time.Duration

	RefundPercent   int64
	Currency        string
	PaymentProvider string // "simulated" or "stripe"
	StripeKey       string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	return &Config{
		CRDBDSN:      os.Getenv("CRDB_DSN"),
		MongoURI:     os.Getenv("MONGO_URI"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RabbitURL:    os.Getenv("RABBIT_URL"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		HTTPAddr:     envString("HTTP_ADDR", ":8080"),

		LockTTL:        envDuration("LOCK_TTL", 5*time.Minute),
		PaymentWindow:  envDuration("PAYMENT_WINDOW", 10*time.Minute),
		RetentionGrace: envDuration("EVENT_RETENTION_GRACE", 48*time.Hour),
		JobStaleAfter:  envDuration("JOB_STALE_AFTER", 15*time.Minute),

		LockSweepInterval:      envDuration("LOCK_SWEEP_INTERVAL", time.Minute),
		BookingSweepInterval:   envDuration("BOOKING_SWEEP_INTERVAL", time.Minute),
		RetentionSweepInterval: envDuration("RETENTION_SWEEP_INTERVAL", time.Hour),
		OutboxInterval:         envDuration("OUTBOX_INTERVAL", 5*time.Second),

		RefundPercent:   envInt64("CANCEL_REFUND_PERCENT", 50),
		Currency:        envString("CURRENCY", "USD"),
		PaymentProvider: envString("PAYMENT_PROVIDER", "simulated"),
		StripeKey:       os.Getenv("STRIPE_SECRET_KEY"),
	}, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	d, _ := time.ParseDuration(os.Getenv(key))
	if d == 0 {
		return def
	}
	return d
}

func envInt64(key string, def int64) int64 {
	v, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return def
	}
	return v
}
