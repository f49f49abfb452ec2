package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/vancomm/minesweeper-engine/internal/mines"
)

type Duration struct{ time.Duration }

// [Duration] implements [json.Marshaler]
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		return err
	default:
		return errors.New("invalid duration")
	}
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if n, err := time.ParseDuration(s); err == nil {
		d.Duration = n
		return nil
	}
	var ns int64
	if err := node.Decode(&ns); err != nil {
		return errors.New("invalid duration")
	}
	d.Duration = time.Duration(ns)
	return nil
}

type LogConfig struct {
	Level      string `json:"level" yaml:"level"`
	File       string `json:"file" yaml:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
}

type PostgresConfig struct {
	Host         string `json:"host" yaml:"host"`
	Port         uint   `json:"port" yaml:"port"`
	User         string `json:"user" yaml:"user"`
	Password     string `json:"password" yaml:"password"`
	PasswordFile string `json:"password_file" yaml:"password_file"`
	DbName       string `json:"db_name" yaml:"db_name"`
	SSLMode      string `json:"ssl_mode" yaml:"ssl_mode"`
}

type StorageConfig struct {
	Driver      string         `json:"driver" yaml:"driver"`
	SQLitePath  string         `json:"sqlite_path" yaml:"sqlite_path"`
	DatabaseURL string         `json:"database_url" yaml:"database_url"`
	Postgres    PostgresConfig `json:"postgres" yaml:"postgres"`
}

type JwtConfig struct {
	Secret        string   `json:"secret" yaml:"secret"`
	SecretFile    string   `json:"secret_file" yaml:"secret_file"`
	TokenLifetime Duration `json:"token_lifetime" yaml:"token_lifetime"`
}

type Config struct {
	Mode           string                  `json:"mode" yaml:"mode"`
	Addr           string                  `json:"addr" yaml:"addr"`
	AllowedOrigins []string                `json:"allowed_origins" yaml:"allowed_origins"`
	Log            LogConfig               `json:"log" yaml:"log"`
	Storage        StorageConfig           `json:"storage" yaml:"storage"`
	Jwt            JwtConfig               `json:"jwt" yaml:"jwt"`
	Presets        map[string]mines.Params `json:"presets" yaml:"presets"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func Default() *Config {
	return &Config{
		Mode:           "development",
		Addr:           ":8080",
		AllowedOrigins: []string{"*"},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			SQLitePath: "mines.db",
			Postgres: PostgresConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "disable",
			},
		},
		Jwt: JwtConfig{
			TokenLifetime: Duration{24 * time.Hour},
		},
	}
}

// Load reads a JSON or YAML (by extension) config file on top of [Default],
// then applies DATABASE_URL and JWT_SECRET from the environment.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config %s: %w", path, err)
	}
	return Parse(b, filepath.Ext(path))
}

func Parse(data []byte, ext string) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unable to parse yaml config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("unable to parse json config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if dbURL, ok := os.LookupEnv("DATABASE_URL"); ok {
		c.Storage.DatabaseURL = dbURL
	}
	if secret, ok := os.LookupEnv("JWT_SECRET"); ok {
		c.Jwt.Secret = secret
	}
}

func (c *Config) Validate() error {
	if c.Mode != "development" && c.Mode != "production" {
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if !slices.Contains([]string{DriverSQLite, DriverPostgres}, c.Storage.Driver) {
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == DriverSQLite && c.Storage.SQLitePath == "" {
		return errors.New("storage.sqlite_path is required for the sqlite driver")
	}
	if c.Jwt.Secret == "" && c.Jwt.SecretFile == "" {
		return errors.New("no jwt.secret, jwt.secret_file or JWT_SECRET set")
	}
	for name, p := range c.Presets {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("invalid preset %q: %w", name, err)
		}
	}
	return nil
}

func (c Config) Production() bool {
	return c.Mode == "production"
}

func (c Config) Development() bool {
	return c.Mode != "production"
}

// AllPresets merges the configured presets over the built-in ones.
func (c Config) AllPresets() map[string]mines.Params {
	presets := mines.Presets()
	for name, p := range c.Presets {
		presets[strings.ToLower(name)] = p
	}
	return presets
}

func (c Config) Fields() logrus.Fields {
	return map[string]any{
		"mode":               c.Mode,
		"addr":               c.Addr,
		"allowed_origins":    c.AllowedOrigins,
		"log_level":          c.Log.Level,
		"log_file":           c.Log.File,
		"storage_driver":     c.Storage.Driver,
		"sqlite_path":        c.Storage.SQLitePath,
		"pg_host":            c.Storage.Postgres.Host,
		"pg_port":            c.Storage.Postgres.Port,
		"pg_user":            c.Storage.Postgres.User,
		"pg_db_name":         c.Storage.Postgres.DbName,
		"jwt_token_lifetime": c.Jwt.TokenLifetime.String(),
		"presets":            len(c.Presets),
	}
}
