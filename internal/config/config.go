package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         int    `yaml:"port"`
		WidgetSecret string `yaml:"widget_secret"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	BookingService struct {
		BaseURL         string `yaml:"base_url"`
		APIKey          string `yaml:"api_key"`
		TimeoutSeconds  int    `yaml:"timeout_seconds"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"booking_service"`

	Notifications struct {
		Endpoint      string  `yaml:"endpoint"`
		APIKey        string  `yaml:"api_key"`
		SigningSecret string  `yaml:"signing_secret"`
		RatePerSecond float64 `yaml:"rate_per_second"`
		Burst         int     `yaml:"burst"`
	} `yaml:"notifications"`

	RateLimit struct {
		PerMinute int `yaml:"per_minute"`
	} `yaml:"rate_limit"`

	Holds struct {
		TTLMinutes           int `yaml:"ttl_minutes"`
		SweepIntervalMinutes int `yaml:"sweep_interval_minutes"`
	} `yaml:"holds"`

	Backups struct {
		Enabled       bool   `yaml:"enabled"`
		StoragePath   string `yaml:"storage_path"`
		IntervalHours int    `yaml:"interval_hours"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backups"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/reserva.db"
	}
	if c.BookingService.TimeoutSeconds <= 0 {
		c.BookingService.TimeoutSeconds = 10
	}
	if c.Notifications.RatePerSecond <= 0 {
		c.Notifications.RatePerSecond = 20
	}
	if c.Notifications.Burst <= 0 {
		c.Notifications.Burst = 30
	}
	if c.Holds.TTLMinutes <= 0 {
		c.Holds.TTLMinutes = 10
	}
	if c.Holds.SweepIntervalMinutes <= 0 {
		c.Holds.SweepIntervalMinutes = 5
	}
	if c.Backups.StoragePath == "" {
		c.Backups.StoragePath = "data/backups"
	}
	if c.Backups.IntervalHours <= 0 {
		c.Backups.IntervalHours = 24
	}
	if c.Backups.RetentionDays <= 0 {
		c.Backups.RetentionDays = 14
	}
}

// Validate checks required settings once at startup. Secrets and URLs are
// rejected here rather than failing lazily on the first request that needs
// them.
func (c *Config) Validate() error {
	if c.Server.WidgetSecret == "" {
		return fmt.Errorf("server.widget_secret is required")
	}
	if c.BookingService.BaseURL == "" {
		return fmt.Errorf("booking_service.base_url is required")
	}
	if c.Notifications.Endpoint != "" && c.Notifications.SigningSecret == "" {
		return fmt.Errorf("notifications.signing_secret is required when notifications.endpoint is set")
	}
	return nil
}

func (c *Config) BookingServiceTimeout() time.Duration {
	return time.Duration(c.BookingService.TimeoutSeconds) * time.Second
}

func (c *Config) BookingServiceCacheTTL() time.Duration {
	return time.Duration(c.BookingService.CacheTTLSeconds) * time.Second
}

func (c *Config) HoldTTL() time.Duration {
	return time.Duration(c.Holds.TTLMinutes) * time.Minute
}

func (c *Config) HoldSweepInterval() time.Duration {
	return time.Duration(c.Holds.SweepIntervalMinutes) * time.Minute
}
