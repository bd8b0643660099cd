package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseEnv_Overlay(t *testing.T) {
	t.Setenv("JOINTBANK_HTTP_ADDR", ":9999")
	t.Setenv("JOINTBANK_SECRET_KEY", "env-secret")
	t.Setenv("JOINTBANK_ACCESS_TOKEN_TTL", "2m")
	t.Setenv("JOINTBANK_MAX_TX_RETRIES", "11")
	t.Setenv("JOINTBANK_RATE_LIMIT_RPM", "30")
	t.Setenv("JOINTBANK_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":9999", cfg.EndpointAddrHTTP)
	assert.Equal(t, "env-secret", cfg.SecretKey)
	assert.Equal(t, 2*time.Minute, cfg.AccessTokenValidityDuration)
	assert.Equal(t, uint64(11), cfg.MaxTxRetries)
	assert.Equal(t, 30, cfg.RateLimitRPM)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "statements", cfg.S3Bucket, "unset variables keep defaults")
}

func TestParseEnv_MalformedValuesIgnored(t *testing.T) {
	t.Setenv("JOINTBANK_REFRESH_TOKEN_TTL", "tomorrow")
	t.Setenv("JOINTBANK_MAX_TX_RETRIES", "-1")
	t.Setenv("JOINTBANK_RATE_LIMIT_RPM", "lots")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenValidityDuration)
	assert.Equal(t, uint64(5), cfg.MaxTxRetries)
	assert.Equal(t, 600, cfg.RateLimitRPM)
}
