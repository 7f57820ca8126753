package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDRESS", "KAFKA_BROKERS", "REFRESH_INTERVAL", "JWT_SECRET", "LOG_PRETTY"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	require.Equal(t, ":3000", cfg.HTTPAddress)
	require.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	require.Empty(t, cfg.JWTSecret)
	require.False(t, cfg.LogPretty)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")
	t.Setenv("REFRESH_INTERVAL", "30s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "nope")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("REFRESH_NOTIFY_URL", "http://localhost:8080/refresh")

	cfg := Load()
	require.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	require.Equal(t, 30*time.Second, cfg.RefreshInterval)
	require.Equal(t, 2.5, cfg.RateLimitRPS)
	require.Equal(t, 20, cfg.RateLimitBurst)
	require.True(t, cfg.LogPretty)
	require.Equal(t, "http://localhost:8080/refresh", cfg.RefreshNotifyURL)
}
