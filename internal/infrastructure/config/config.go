package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	SRS      SRSConfig      `mapstructure:"srs"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	GRPCPort    int      `mapstructure:"grpc_port"`
	HTTPPort    int      `mapstructure:"http_port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	// Driver is one of postgres, pgx or sqlite3.
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
	// Path is the sqlite database file.
	Path     string `mapstructure:"path"`
	MaxConns int32  `mapstructure:"max_conns"`
	LogSQL   bool   `mapstructure:"log_sql"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SRSConfig tunes scheduling and attempt logging.
type SRSConfig struct {
	// MaxIntervalDays caps review intervals. Zero leaves them uncapped.
	MaxIntervalDays int           `mapstructure:"max_interval_days"`
	ConflictRetries int           `mapstructure:"conflict_retries"`
	RecordTimeout   time.Duration `mapstructure:"record_timeout"`
	// ReconcileRate limits problems reconciled per second in a sweep.
	ReconcileRate float64 `mapstructure:"reconcile_rate"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	return LoadWith(viper.GetViper())
}

// LoadWith reads configuration through v, so callers can bind flags first.
func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "dsasheet")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "dsasheet.db")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.log_sql", false)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Scheduling defaults
	v.SetDefault("srs.max_interval_days", 0)
	v.SetDefault("srs.conflict_retries", 3)
	v.SetDefault("srs.record_timeout", 10*time.Second)
	v.SetDefault("srs.reconcile_rate", 50)
}

// Validate rejects settings the services cannot run with.
func (c *Config) Validate() error {
	switch c.DatabaseDriver() {
	case "postgres", "pgx", "sqlite3":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.SRS.MaxIntervalDays < 0 {
		return fmt.Errorf("srs.max_interval_days must not be negative")
	}
	if c.SRS.ConflictRetries < 1 {
		return fmt.Errorf("srs.conflict_retries must be at least 1")
	}
	if c.SRS.ReconcileRate < 0 {
		return fmt.Errorf("srs.reconcile_rate must not be negative")
	}
	return nil
}

// DatabaseDriver returns the normalized database driver name.
func (c *Config) DatabaseDriver() string {
	driver := strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if driver == "sqlite" {
		return "sqlite3"
	}
	return driver
}

// DatabaseURL returns the connection string for the configured driver.
func (c *Config) DatabaseURL() string {
	if c.DatabaseDriver() == "sqlite3" {
		return fmt.Sprintf("file:%s?_fk=1&_busy_timeout=5000", c.Database.Path)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}
