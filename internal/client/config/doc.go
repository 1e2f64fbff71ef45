// Package config loads runtime configuration for AllergoZyme.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file given with --config/-c.
//  3. AZ_* environment variables; a .env file is read first when present.
//  4. Command-line overrides (see Overrides), applied by the CLI.
//
// # JSON schema
//
// Keys are the snake_case field names. Durations accept strings like "3s" or
// integer nanoseconds:
//
//	{
//	  "database_path": "allergozyme.db",
//	  "backend": "remote",
//	  "remote_dsn": "postgres://az:az@localhost:5432/az?sslmode=disable",
//	  "jwt_secret": "change-me",
//	  "outbox_interval": "5s"
//	}
package config
