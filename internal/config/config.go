// Package config loads server settings from defaults, an optional YAML file,
// a local .env file and WORKTIME_* environment variables, in that order of
// increasing precedence.
package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	Company  CompanyConfig  `yaml:"company"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Log      LogConfig      `yaml:"log"`

	location *time.Location
	minRate  decimal.Decimal
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     []string      `yaml:"cors_origins"`
}

type StorageConfig struct {
	// Driver is one of json, sqlite or postgres.
	Driver      string `yaml:"driver"`
	Path        string `yaml:"path"`
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresURL string `yaml:"postgres_url"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	// Required makes a bearer token mandatory outside the public routes.
	Required bool `yaml:"required"`
}

type CompanyConfig struct {
	Name         string  `yaml:"name"`
	Latitude     float64 `yaml:"latitude"`
	Longitude    float64 `yaml:"longitude"`
	Radius       float64 `yaml:"radius"`
	Address      string  `yaml:"address"`
	LocationName string  `yaml:"location_name"`
	// Override replaces the stored company on every start.
	Override bool `yaml:"override"`
}

type ScheduleConfig struct {
	TimeZone                string        `yaml:"time_zone"`
	ClockInLead             time.Duration `yaml:"clock_in_lead"`
	DefaultMonthlyGoalHours float64       `yaml:"default_monthly_goal_hours"`
	MinimumHourlyRate       string        `yaml:"minimum_hourly_rate"`
	EnforceGeofence         bool          `yaml:"enforce_geofence"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the configuration used when nothing else is provided.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver:      "json",
			Path:        "data/db.json",
			SQLitePath:  "data/worktime.db",
			AutoMigrate: true,
		},
		Auth: AuthConfig{
			Issuer:   "worktime",
			TokenTTL: 12 * time.Hour,
		},
		Company: CompanyConfig{
			Name:         "WorkTime",
			Latitude:     52.2297,
			Longitude:    21.0122,
			Radius:       100,
			LocationName: "Siedziba",
		},
		Schedule: ScheduleConfig{
			TimeZone:                "Europe/Warsaw",
			ClockInLead:             30 * time.Minute,
			DefaultMonthlyGoalHours: 160,
			MinimumHourlyRate:       "28.10",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Location returns the company time zone. It is UTC until Validate succeeds.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// MinimumHourlyRate returns the parsed minimum rate.
func (c *Config) MinimumHourlyRate() decimal.Decimal {
	return c.minRate
}

// StorageDSN returns the location of the configured backend.
func (c *Config) StorageDSN() string {
	switch c.Storage.Driver {
	case "sqlite":
		return c.Storage.SQLitePath
	case "postgres":
		return c.Storage.PostgresURL
	default:
		return c.Storage.Path
	}
}
