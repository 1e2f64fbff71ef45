package config

import (
	"time"
)

// Config holds runtime settings for AllergoZyme.
type Config struct {
	// DatabasePath is the local SQLite file (the browser context).
	DatabasePath string `json:"database_path"`

	// Backend is "local" or "remote". Remote needs RemoteDSN and JWTSecret;
	// without them the facade falls back to local.
	Backend        string   `json:"backend"`
	RemoteDSN      string   `json:"remote_dsn"`
	JWTSecret      string   `json:"jwt_secret"`
	AccessTokenTTL Duration `json:"access_token_ttl"`

	PasswordAlgorithm string `json:"password_algorithm"`

	GeocodeEndpoint      string  `json:"geocode_endpoint"`
	GeocodeUserAgent     string  `json:"geocode_user_agent"`
	GeocodeRatePerSecond float64 `json:"geocode_rate_per_second"`

	OutboxMaxAttempts int      `json:"outbox_max_attempts"`
	OutboxInterval    Duration `json:"outbox_interval"`
	OutboxBackoff     Duration `json:"outbox_backoff"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
	LogFile   string `json:"log_file"`

	BackupProvider  string `json:"backup_provider"` // "", "s3" or "minio"
	BackupEndpoint  string `json:"backup_endpoint"`
	BackupRegion    string `json:"backup_region"`
	BackupBucket    string `json:"backup_bucket"`
	BackupAccessKey string `json:"backup_access_key"`
	BackupSecretKey string `json:"backup_secret_key"`
	BackupUseSSL    bool   `json:"backup_use_ssl"`

	EventsProvider string `json:"events_provider"` // "", "amqp" or "mqtt"
	EventsURL      string `json:"events_url"`
	EventsTopic    string `json:"events_topic"`
}

const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = "allergozyme.db"
	c.Backend = BackendLocal
	c.AccessTokenTTL = Duration{time.Hour}
	c.PasswordAlgorithm = "sha256"
	c.GeocodeEndpoint = "https://nominatim.openstreetmap.org/search"
	c.GeocodeUserAgent = "allergozyme/1.2.0"
	c.GeocodeRatePerSecond = 1
	c.OutboxMaxAttempts = 5
	c.OutboxInterval = Duration{5 * time.Second}
	c.OutboxBackoff = Duration{500 * time.Millisecond}
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.BackupRegion = "us-east-1"
	c.BackupBucket = "allergozyme-exports"
	c.BackupUseSSL = true
	c.EventsTopic = "allergozyme"
}

// RemoteConfigured reports whether the remote backend was asked for and
// has what it needs.
func (c *Config) RemoteConfigured() bool {
	return c.Backend == BackendRemote && c.RemoteDSN != "" && c.JWTSecret != ""
}

// LoadConfig builds a Config from defaults, then the JSON file at path (if
// path is not empty), then AZ_* environment variables. A .env file in the
// working directory is loaded into the environment first when present.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, path); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
