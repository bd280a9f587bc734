// Package config loads runtime configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Protect  ProtectConfig  `mapstructure:"protect"`
	LogLevel string         `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"gte=1,lte=65535"`
	Mode            string        `mapstructure:"mode"             validate:"required,oneof=development production"`
	StaticDir       string        `mapstructure:"static_dir"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string { return fmt.Sprintf(":%d", s.Port) }

// IsProduction reports whether the server runs in production mode.
func (s ServerConfig) IsProduction() bool { return s.Mode == ModeProduction }

// DatabaseConfig holds the connection settings. Missing fields are not a load error:
// the connection provider turns them into connection failures at query time.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"              validate:"gte=0,lte=65535"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"           validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// Complete reports whether every required connection field is present.
func (d DatabaseConfig) Complete() bool {
	return d.Host != "" && d.Name != "" && d.User != "" && d.Password != ""
}

// ProtectConfig configures the admission oracle. When URL and Key are both set the
// remote oracle is used, otherwise requests are judged locally.
type ProtectConfig struct {
	URL        string        `mapstructure:"url"         validate:"omitempty,url"`
	Key        string        `mapstructure:"key"`
	RefillRate int           `mapstructure:"refill_rate" validate:"gt=0"`
	Interval   time.Duration `mapstructure:"interval"    validate:"gt=0"`
	Capacity   int           `mapstructure:"capacity"    validate:"gt=0"`
}

// Remote reports whether a remote oracle is configured.
func (p ProtectConfig) Remote() bool { return p.URL != "" && p.Key != "" }

var envBindings = map[string]string{
	"server.port":                "PORT",
	"server.mode":                "APP_ENV",
	"server.static_dir":          "STATIC_DIR",
	"server.read_timeout":        "HTTP_READ_TIMEOUT",
	"server.write_timeout":       "HTTP_WRITE_TIMEOUT",
	"server.shutdown_timeout":    "SHUTDOWN_TIMEOUT",
	"database.host":              "PGHOST",
	"database.port":              "PGPORT",
	"database.name":              "PGDATABASE",
	"database.user":              "PGUSER",
	"database.password":          "PGPASSWORD",
	"database.sslmode":           "PGSSLMODE",
	"database.max_open_conns":    "DB_MAX_OPEN_CONNS",
	"database.max_idle_conns":    "DB_MAX_IDLE_CONNS",
	"database.conn_max_lifetime": "DB_CONN_MAX_LIFETIME",
	"protect.url":                "PROTECT_URL",
	"protect.key":                "PROTECT_KEY",
	"protect.refill_rate":        "PROTECT_REFILL_RATE",
	"protect.interval":           "PROTECT_INTERVAL",
	"protect.capacity":           "PROTECT_CAPACITY",
	"log_level":                  "LOG_LEVEL",
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", 3000)
	vip.SetDefault("server.mode", ModeDevelopment)
	vip.SetDefault("server.static_dir", "frontend/dist")
	vip.SetDefault("server.read_timeout", 15*time.Second)
	vip.SetDefault("server.write_timeout", 15*time.Second)
	vip.SetDefault("server.shutdown_timeout", 10*time.Second)
	vip.SetDefault("database.port", 0)
	vip.SetDefault("database.sslmode", "require")
	vip.SetDefault("database.max_open_conns", 10)
	vip.SetDefault("database.max_idle_conns", 5)
	vip.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	vip.SetDefault("protect.refill_rate", 5)
	vip.SetDefault("protect.interval", 10*time.Second)
	vip.SetDefault("protect.capacity", 10)
	vip.SetDefault("log_level", "info")
}

// Load reads envFiles with godotenv (missing files are ignored), then binds the
// process environment over the defaults and validates the result.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	vip := viper.New()
	setDefaults(vip)
	for key, env := range envBindings {
		if err := vip.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}
