package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// DotEnvFile is read from the working directory before the environment is consulted.
const DotEnvFile = ".env"

// Load builds the configuration. path may be empty; a YAML file is then not
// read. ${VAR} references in the file are expanded from the environment.
//
// Invalid values are collected and reported together.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("nie można odczytać pliku konfiguracji: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("nieprawidłowy plik konfiguracji: %w", err)
		}
	}

	invalid := applyEnvOverrides(cfg)
	invalid = append(invalid, cfg.validate()...)

	if len(invalid) > 0 {
		return nil, fmt.Errorf("nieprawidłowe wartości konfiguracji: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("nieprawidłowy plik %s: %w", path, err)
}

func applyEnvOverrides(cfg *Config) []string {
	e := envReader{}

	e.str("WORKTIME_HOST", &cfg.Server.Host)
	e.integer("WORKTIME_PORT", &cfg.Server.Port)
	e.duration("WORKTIME_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	e.duration("WORKTIME_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	e.list("WORKTIME_CORS_ORIGINS", &cfg.Server.CORSOrigins)

	e.str("WORKTIME_STORAGE_DRIVER", &cfg.Storage.Driver)
	e.str("WORKTIME_STORAGE_PATH", &cfg.Storage.Path)
	e.str("WORKTIME_SQLITE_PATH", &cfg.Storage.SQLitePath)
	e.str("WORKTIME_POSTGRES_URL", &cfg.Storage.PostgresURL)
	e.boolean("WORKTIME_AUTO_MIGRATE", &cfg.Storage.AutoMigrate)

	e.str("WORKTIME_JWT_SECRET", &cfg.Auth.JWTSecret)
	e.str("WORKTIME_JWT_ISSUER", &cfg.Auth.Issuer)
	e.duration("WORKTIME_TOKEN_TTL", &cfg.Auth.TokenTTL)
	e.boolean("WORKTIME_AUTH_REQUIRED", &cfg.Auth.Required)

	e.str("WORKTIME_COMPANY_NAME", &cfg.Company.Name)
	e.float("WORKTIME_COMPANY_LATITUDE", &cfg.Company.Latitude)
	e.float("WORKTIME_COMPANY_LONGITUDE", &cfg.Company.Longitude)
	e.float("WORKTIME_COMPANY_RADIUS", &cfg.Company.Radius)
	e.str("WORKTIME_COMPANY_ADDRESS", &cfg.Company.Address)
	e.str("WORKTIME_COMPANY_LOCATION_NAME", &cfg.Company.LocationName)
	e.boolean("WORKTIME_COMPANY_OVERRIDE", &cfg.Company.Override)

	e.str("WORKTIME_TIME_ZONE", &cfg.Schedule.TimeZone)
	e.duration("WORKTIME_CLOCK_IN_LEAD", &cfg.Schedule.ClockInLead)
	e.float("WORKTIME_DEFAULT_MONTHLY_GOAL_HOURS", &cfg.Schedule.DefaultMonthlyGoalHours)
	e.str("WORKTIME_MIN_HOURLY_RATE", &cfg.Schedule.MinimumHourlyRate)
	e.boolean("WORKTIME_ENFORCE_GEOFENCE", &cfg.Schedule.EnforceGeofence)

	e.str("WORKTIME_LOG_LEVEL", &cfg.Log.Level)
	e.str("WORKTIME_LOG_FORMAT", &cfg.Log.Format)

	return e.invalid
}

func (c *Config) validate() []string {
	var invalid []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		invalid = append(invalid, "server.port")
	}

	switch c.Storage.Driver {
	case "json":
		if strings.TrimSpace(c.Storage.Path) == "" {
			invalid = append(invalid, "storage.path")
		}
	case "sqlite":
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			invalid = append(invalid, "storage.sqlite_path")
		}
	case "postgres":
		if strings.TrimSpace(c.Storage.PostgresURL) == "" {
			invalid = append(invalid, "storage.postgres_url")
		}
	default:
		invalid = append(invalid, "storage.driver")
	}

	if c.Auth.Required && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		invalid = append(invalid, "auth.jwt_secret")
	}
	if c.Auth.TokenTTL <= 0 {
		invalid = append(invalid, "auth.token_ttl")
	}

	if math.IsNaN(c.Company.Latitude) || c.Company.Latitude < -90 || c.Company.Latitude > 90 {
		invalid = append(invalid, "company.latitude")
	}
	if math.IsNaN(c.Company.Longitude) || c.Company.Longitude < -180 || c.Company.Longitude > 180 {
		invalid = append(invalid, "company.longitude")
	}
	if !(c.Company.Radius > 0) {
		invalid = append(invalid, "company.radius")
	}

	if loc, err := time.LoadLocation(c.Schedule.TimeZone); err != nil {
		invalid = append(invalid, "schedule.time_zone")
	} else {
		c.location = loc
	}
	if c.Schedule.ClockInLead < 0 {
		invalid = append(invalid, "schedule.clock_in_lead")
	}
	if !(c.Schedule.DefaultMonthlyGoalHours > 0) {
		invalid = append(invalid, "schedule.default_monthly_goal_hours")
	}
	if rate, err := decimal.NewFromString(strings.TrimSpace(c.Schedule.MinimumHourlyRate)); err != nil || rate.IsNegative() {
		invalid = append(invalid, "schedule.minimum_hourly_rate")
	} else {
		c.minRate = rate
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		invalid = append(invalid, "log.level")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		invalid = append(invalid, "log.format")
	}

	return invalid
}

// envReader applies WORKTIME_* variables, remembering the ones it could not parse.
type envReader struct {
	invalid []string
}

func (e *envReader) lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) str(key string, dst *string) {
	if v, ok := e.lookup(key); ok {
		*dst = v
	}
}

func (e *envReader) integer(key string, dst *int) {
	if v, ok := e.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.invalid = append(e.invalid, key)
			return
		}
		*dst = n
	}
}

func (e *envReader) float(key string, dst *float64) {
	if v, ok := e.lookup(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.invalid = append(e.invalid, key)
			return
		}
		*dst = f
	}
}

func (e *envReader) boolean(key string, dst *bool) {
	if v, ok := e.lookup(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.invalid = append(e.invalid, key)
			return
		}
		*dst = b
	}
}

func (e *envReader) duration(key string, dst *time.Duration) {
	if v, ok := e.lookup(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.invalid = append(e.invalid, key)
			return
		}
		*dst = d
	}
}

func (e *envReader) list(key string, dst *[]string) {
	if v, ok := e.lookup(key); ok {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		*dst = out
	}
}
