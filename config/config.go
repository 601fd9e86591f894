package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	LedgerPostgres = "postgres"
	LedgerRedis    = "redis"
	LedgerMemory   = "memory"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string
	RedisURL    string
	AutoMigrate bool

	OTPLedger              string
	OTPTTL                 time.Duration
	OTPSweepInterval       time.Duration
	ConcealUnknownAccounts bool

	JWTSecret      string
	JWTIssuer      string
	AccessTokenTTL time.Duration

	ResendAPIKey string
	EmailFrom    string
}

// Load reads .env when present, then the process environment.
func Load(logger logrus.FieldLogger) Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.WithError(err).Warn("error load env")
	}

	return Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		AutoMigrate: getBool(logger, "AUTO_MIGRATE", false),

		OTPLedger:              strings.ToLower(getEnv("OTP_LEDGER", LedgerPostgres)),
		OTPTTL:                 getDuration(logger, "OTP_TTL", 10*time.Minute),
		OTPSweepInterval:       getDuration(logger, "OTP_SWEEP_INTERVAL", 5*time.Minute),
		ConcealUnknownAccounts: getBool(logger, "PASSWORD_RESET_CONCEAL_UNKNOWN", false),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTIssuer:      getEnv("JWT_ISSUER", "fleetco-admin"),
		AccessTokenTTL: getDuration(logger, "ACCESS_TOKEN_TTL", 12*time.Hour),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom:    getEnv("EMAIL_FROM", "FleetCo Admin <no-reply@fleetco.io>"),
	}
}

func getEnv(key string, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getDuration(logger logrus.FieldLogger, key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		logger.WithField("key", key).WithField("value", raw).Warn("invalid duration, using default")
		return fallback
	}
	return value
}

func getBool(logger logrus.FieldLogger, key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		logger.WithField("key", key).WithField("value", raw).Warn("invalid boolean, using default")
		return fallback
	}
	return value
}
