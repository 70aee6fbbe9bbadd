package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Session  SessionConfig  `mapstructure:"session"`
}

// DatabaseConfig locates the exposure-site database. Credentials are not part
// of it; each session supplies its own.
type DatabaseConfig struct {
	URL              string        `mapstructure:"url"`
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`
	MaxConns         int32         `mapstructure:"max_conns"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type SessionConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	Capacity int           `mapstructure:"capacity"`
}

func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL:              "postgresql://postgres-5.svc.valeria.science:5432/ul_val_prj_canmet_asr",
			StatementTimeout: 30 * time.Second,
			MaxConns:         4,
		},
		Server: ServerConfig{
			Port: "8080",
		},
		Session: SessionConfig{
			TTL:      30 * time.Minute,
			Capacity: 256,
		},
	}
}

// Load reads configuration from the working directory.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom layers defaults, an optional explorer.yaml in dir, and EXPLORER_*
// environment variables (DATABASE_URL and PORT are honored too).
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("explorer")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix("EXPLORER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("database.url", "EXPLORER_DATABASE_URL", "DATABASE_URL")
	v.BindEnv("server.port", "EXPLORER_SERVER_PORT", "PORT")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config file")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.statement_timeout", d.Database.StatementTimeout)
	v.SetDefault("database.max_conns", d.Database.MaxConns)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("session.ttl", d.Session.TTL)
	v.SetDefault("session.capacity", d.Session.Capacity)
}

// minSessionCapacity is the smallest session cache that admits entries.
const minSessionCapacity = 16

func Validate(cfg *Config) error {
	var errs []string
	if cfg.Database.URL == "" {
		errs = append(errs, "database.url is required")
	}
	if cfg.Database.StatementTimeout <= 0 {
		errs = append(errs, "database.statement_timeout must be positive")
	}
	if cfg.Database.MaxConns <= 0 {
		errs = append(errs, "database.max_conns must be positive")
	}
	if cfg.Server.Port == "" {
		errs = append(errs, "server.port is required")
	}
	if cfg.Session.TTL <= 0 {
		errs = append(errs, "session.ttl must be positive")
	}
	if cfg.Session.Capacity < minSessionCapacity {
		errs = append(errs, fmt.Sprintf("session.capacity must be at least %d", minSessionCapacity))
	}
	if len(errs) > 0 {
		return errors.Newf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%s", c.Server.Port)
}
