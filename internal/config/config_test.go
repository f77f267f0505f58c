package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("FullConfig", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfig(t, `
server:
  port: 9090
  widget_secret: "s3cret"
database:
  path: "`+filepath.Join(dir, "db", "test.db")+`"
booking_service:
  base_url: "https://booking.example.com"
  api_key: "bk-key"
  timeout_seconds: 5
  cache_ttl_seconds: 60
notifications:
  endpoint: "https://notify.example.com/hook"
  signing_secret: "sign-me"
holds:
  ttl_minutes: 15
  sweep_interval_minutes: 2
rate_limit:
  per_minute: 120
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "s3cret", cfg.Server.WidgetSecret)
		assert.Equal(t, 5*time.Second, cfg.BookingServiceTimeout())
		assert.Equal(t, time.Minute, cfg.BookingServiceCacheTTL())
		assert.Equal(t, 15*time.Minute, cfg.HoldTTL())
		assert.Equal(t, 2*time.Minute, cfg.HoldSweepInterval())
		assert.Equal(t, 120, cfg.RateLimit.PerMinute)
		assert.DirExists(t, filepath.Join(dir, "db"))
	})

	t.Run("Defaults", func(t *testing.T) {
		dir := t.TempDir()
		path := writeConfig(t, `
server:
  widget_secret: "s3cret"
database:
  path: "`+filepath.Join(dir, "reserva.db")+`"
booking_service:
  base_url: "https://booking.example.com"
`)

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 10*time.Second, cfg.BookingServiceTimeout())
		assert.Equal(t, 10*time.Minute, cfg.HoldTTL())
		assert.Equal(t, 5*time.Minute, cfg.HoldSweepInterval())
		assert.Equal(t, 20.0, cfg.Notifications.RatePerSecond)
		assert.Equal(t, 30, cfg.Notifications.Burst)
	})

	t.Run("EnvExpansion", func(t *testing.T) {
		t.Setenv("TEST_WIDGET_SECRET", "from-env")
		dir := t.TempDir()
		path := writeConfig(t, `
server:
  widget_secret: "${TEST_WIDGET_SECRET}"
database:
  path: "`+filepath.Join(dir, "reserva.db")+`"
booking_service:
  base_url: "https://booking.example.com"
`)

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "from-env", cfg.Server.WidgetSecret)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		cfg.Server.WidgetSecret = "s3cret"
		cfg.BookingService.BaseURL = "https://booking.example.com"
		return cfg
	}

	t.Run("OK", func(t *testing.T) {
		assert.NoError(t, base().Validate())
	})

	t.Run("MissingWidgetSecret", func(t *testing.T) {
		cfg := base()
		cfg.Server.WidgetSecret = ""
		assert.ErrorContains(t, cfg.Validate(), "widget_secret")
	})

	t.Run("MissingBookingBaseURL", func(t *testing.T) {
		cfg := base()
		cfg.BookingService.BaseURL = ""
		assert.ErrorContains(t, cfg.Validate(), "base_url")
	})

	t.Run("EndpointWithoutSigningSecret", func(t *testing.T) {
		cfg := base()
		cfg.Notifications.Endpoint = "https://notify.example.com/hook"
		assert.ErrorContains(t, cfg.Validate(), "signing_secret")
	})
}
