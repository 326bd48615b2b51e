package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("ENV", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, "https://meet.jit.si", cfg.MeetingBaseURL)
	require.Equal(t, time.Minute, cfg.SlotSweepInterval)
	require.Equal(t, 720*time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, 3, cfg.NotifyMaxRetries)
	require.False(t, cfg.AllowEarlyStart)
	require.True(t, cfg.GeneratedSecret)
	require.Len(t, cfg.JWTSecret, 64)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("STORAGE", "postgres")
	t.Setenv("DB_DSN", "postgres://localhost/tutor")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ALLOW_EARLY_START", "true")
	t.Setenv("SLOT_SWEEP_INTERVAL", "30s")
	t.Setenv("TIMEZONE", "Europe/Moscow")
	t.Setenv("NOTIFY_QUEUE_SIZE", "10")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "s3cret", cfg.JWTSecret)
	require.False(t, cfg.GeneratedSecret)
	require.True(t, cfg.AllowEarlyStart)
	require.Equal(t, 30*time.Second, cfg.SlotSweepInterval)
	require.Equal(t, 10, cfg.NotifyQueueSize)

	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, "Europe/Moscow", loc.String())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"secret required in production": {"ENV": "production", "STORAGE": "memory", "JWT_SECRET": ""},
		"dsn required for postgres":     {"ENV": "development", "STORAGE": "postgres", "DB_DSN": ""},
		"unknown storage":               {"ENV": "development", "STORAGE": "mongo"},
		"bad timezone":                  {"ENV": "development", "STORAGE": "memory", "TIMEZONE": "Mars/Base"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}
