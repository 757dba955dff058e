// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zone data for hosts without a system database

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
// Fields are populated from environment variables.
type Config struct {
	// Server settings
	Port int    // HTTP port to listen on
	Env  string // development, staging, production

	// Database
	DatabasePath string // Path to SQLite file

	// Authentication
	APIKey string // API key for write endpoints

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// School calendar
	SchoolID string // default school scope; empty means global events only
	RestDay  string // weekly rest day name, e.g. saturday
	Timezone string // IANA zone used to decide what "today" is
}

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Load reads configuration from environment variables.
// In development, it first loads from .env file if present.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Port:         v.GetInt("port"),
		Env:          v.GetString("env"),
		DatabasePath: v.GetString("database_path"),
		APIKey:       v.GetString("api_key"),
		LogLevel:     v.GetString("log_level"),
		LogFormat:    v.GetString("log_format"),
		SchoolID:     v.GetString("school_id"),
		RestDay:      strings.ToLower(v.GetString("rest_day")),
		Timezone:     v.GetString("timezone"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("env", EnvDevelopment)
	v.SetDefault("database_path", "./data/school.db")
	v.SetDefault("api_key", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("school_id", "")
	v.SetDefault("rest_day", "saturday")
	v.SetDefault("timezone", "Asia/Kathmandu")
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	switch c.Env {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// Valid
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of: development, staging, production; got %q", c.Env))
	}

	if c.DatabasePath == "" {
		errs = append(errs, errors.New("DATABASE_PATH is required"))
	}

	// API key is required in production
	if c.Env == EnvProduction && c.APIKey == "" {
		errs = append(errs, errors.New("API_KEY is required in production"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", c.LogLevel))
	}

	switch c.LogFormat {
	case "json", "text":
		// Valid
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: json, text; got %q", c.LogFormat))
	}

	if _, err := ParseWeekday(c.RestDay); err != nil {
		errs = append(errs, fmt.Errorf("REST_DAY: %w", err))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// RestWeekday returns the configured weekly rest day, Saturday if unset or invalid.
func (c *Config) RestWeekday() time.Weekday {
	wd, err := ParseWeekday(c.RestDay)
	if err != nil {
		return time.Saturday
	}
	return wd
}

// Location returns the configured time zone, UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseWeekday converts an English weekday name (any case) to time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(wd.String(), name) {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}
