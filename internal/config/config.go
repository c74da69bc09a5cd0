package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/nurpe/freight-sync/internal/model"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type ESIConfig struct {
	BaseURL string
	Token   string
}

// FreightConfig carries the sync behavior knobs: ingest scope, notification
// sinks and the timing windows.
type FreightConfig struct {
	OperationMode       model.OperationMode
	WebhookURL          string
	CustomerWebhookURL  string
	HoursUntilStale     int
	SyncGraceMinutes    int
	SyncIntervalMinutes int
	FullRouteNames      bool
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	ESI         ESIConfig
	Freight     FreightConfig
}

func (c *Config) StalenessWindow() time.Duration {
	return time.Duration(c.Freight.HoursUntilStale) * time.Hour
}

func (c *Config) SyncGrace() time.Duration {
	return time.Duration(c.Freight.SyncGraceMinutes) * time.Minute
}

func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.Freight.SyncIntervalMinutes) * time.Minute
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		ESI: ESIConfig{
			BaseURL: v.GetString("ESI_BASE_URL"),
			Token:   v.GetString("ESI_TOKEN"),
		},
		Freight: FreightConfig{
			OperationMode:       model.OperationMode(v.GetString("FREIGHT_OPERATION_MODE")),
			WebhookURL:          v.GetString("FREIGHT_WEBHOOK_URL"),
			CustomerWebhookURL:  v.GetString("FREIGHT_CUSTOMER_WEBHOOK_URL"),
			HoursUntilStale:     v.GetInt("FREIGHT_HOURS_UNTIL_STALE_STATUS"),
			SyncGraceMinutes:    v.GetInt("FREIGHT_SYNC_GRACE_MINUTES"),
			SyncIntervalMinutes: v.GetInt("FREIGHT_SYNC_INTERVAL_MINUTES"),
			FullRouteNames:      v.GetBool("FREIGHT_FULL_ROUTE_NAMES"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if cfg.ESI.BaseURL == "" {
		cfg.ESI.BaseURL = "https://esi.evetech.net/latest"
	}
	if cfg.Freight.OperationMode == "" {
		cfg.Freight.OperationMode = model.ModeMyAlliance
	}
	if cfg.Freight.HoursUntilStale == 0 {
		cfg.Freight.HoursUntilStale = 24
	}
	if cfg.Freight.SyncGraceMinutes == 0 {
		cfg.Freight.SyncGraceMinutes = 30
	}
	if cfg.Freight.SyncIntervalMinutes == 0 {
		cfg.Freight.SyncIntervalMinutes = 10
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if !cfg.Freight.OperationMode.Valid() {
		return fmt.Errorf("FREIGHT_OPERATION_MODE %q is not a known mode", cfg.Freight.OperationMode)
	}
	return nil
}
