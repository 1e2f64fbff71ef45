package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// envPrefix namespaces the environment variables read by parseEnv.
const envPrefix = "AZ_"

type envSetter func(cfg *Config, v string) error

func str(dst func(*Config) *string) envSetter {
	return func(cfg *Config, v string) error { *dst(cfg) = v; return nil }
}

func dur(dst func(*Config) *Duration) envSetter {
	return func(cfg *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst(cfg) = Duration{d}
		return nil
	}
}

var envVars = map[string]envSetter{
	"DATABASE_PATH":      str(func(c *Config) *string { return &c.DatabasePath }),
	"BACKEND":            str(func(c *Config) *string { return &c.Backend }),
	"REMOTE_DSN":         str(func(c *Config) *string { return &c.RemoteDSN }),
	"JWT_SECRET":         str(func(c *Config) *string { return &c.JWTSecret }),
	"ACCESS_TOKEN_TTL":   dur(func(c *Config) *Duration { return &c.AccessTokenTTL }),
	"PASSWORD_ALGORITHM": str(func(c *Config) *string { return &c.PasswordAlgorithm }),
	"GEOCODE_ENDPOINT":   str(func(c *Config) *string { return &c.GeocodeEndpoint }),
	"GEOCODE_USER_AGENT": str(func(c *Config) *string { return &c.GeocodeUserAgent }),
	"GEOCODE_RATE": func(c *Config, v string) error {
		f, err := strconv.ParseFloat(v, 64)
		c.GeocodeRatePerSecond = f
		return err
	},
	"OUTBOX_MAX_ATTEMPTS": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		c.OutboxMaxAttempts = n
		return err
	},
	"OUTBOX_INTERVAL":   dur(func(c *Config) *Duration { return &c.OutboxInterval }),
	"OUTBOX_BACKOFF":    dur(func(c *Config) *Duration { return &c.OutboxBackoff }),
	"LOG_LEVEL":         str(func(c *Config) *string { return &c.LogLevel }),
	"LOG_FORMAT":        str(func(c *Config) *string { return &c.LogFormat }),
	"LOG_FILE":          str(func(c *Config) *string { return &c.LogFile }),
	"BACKUP_PROVIDER":   str(func(c *Config) *string { return &c.BackupProvider }),
	"BACKUP_ENDPOINT":   str(func(c *Config) *string { return &c.BackupEndpoint }),
	"BACKUP_REGION":     str(func(c *Config) *string { return &c.BackupRegion }),
	"BACKUP_BUCKET":     str(func(c *Config) *string { return &c.BackupBucket }),
	"BACKUP_ACCESS_KEY": str(func(c *Config) *string { return &c.BackupAccessKey }),
	"BACKUP_SECRET_KEY": str(func(c *Config) *string { return &c.BackupSecretKey }),
	"BACKUP_USE_SSL": func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		c.BackupUseSSL = b
		return err
	},
	"EVENTS_PROVIDER": str(func(c *Config) *string { return &c.EventsProvider }),
	"EVENTS_URL":      str(func(c *Config) *string { return &c.EventsURL }),
	"EVENTS_TOPIC":    str(func(c *Config) *string { return &c.EventsTopic }),
}

// loadDotenv is a seam for tests.
var loadDotenv = func() { _ = godotenv.Load() }

// parseEnv overlays cfg with AZ_* variables. A malformed value is an error
// naming the variable.
func parseEnv(cfg *Config) error {
	loadDotenv()
	for name, set := range envVars {
		v, ok := os.LookupEnv(envPrefix + name)
		if !ok {
			continue
		}
		if err := set(cfg, v); err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
	}
	return nil
}
