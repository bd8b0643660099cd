package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "JOINTBANK_"

// parseEnv overlays JOINTBANK_* environment variables. A .env file in the
// working directory is loaded first if present; variables already set in the
// process environment win over it. Malformed numbers and durations are
// ignored and keep the previous value.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setString(&config.EndpointAddrHTTP, getEnv("HTTP_ADDR"))
	setString(&config.DatabaseDSN, getEnv("DATABASE_DSN"))
	setString(&config.SecretKey, getEnv("SECRET_KEY"))
	setString(&config.LogBackend, getEnv("LOG_BACKEND"))
	setString(&config.S3RootUser, getEnv("S3_ROOT_USER"))
	setString(&config.S3RootPassword, getEnv("S3_ROOT_PASSWORD"))
	setString(&config.S3Bucket, getEnv("S3_BUCKET"))
	setString(&config.S3Region, getEnv("S3_REGION"))
	setString(&config.S3BaseEndpoint, getEnv("S3_BASE_ENDPOINT"))

	setDuration(&config.AccessTokenValidityDuration, getEnv("ACCESS_TOKEN_TTL"))
	setDuration(&config.RefreshTokenValidityDuration, getEnv("REFRESH_TOKEN_TTL"))
	setDuration(&config.TxRetryBaseDelay, getEnv("TX_RETRY_BASE_DELAY"))

	if v, err := strconv.ParseUint(getEnv("MAX_TX_RETRIES"), 10, 64); err == nil {
		config.MaxTxRetries = v
	}
	if v, err := strconv.Atoi(getEnv("RATE_LIMIT_RPM")); err == nil {
		config.RateLimitRPM = v
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS"); v != "" {
		config.CORSAllowedOrigins = splitList(v)
	}
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

func setDuration(dst *time.Duration, v string) {
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
