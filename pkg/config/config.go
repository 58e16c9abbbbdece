// Package config loads the server's YAML configuration file, expanding
// environment variable references before parsing and filling in
// defaults for anything the file leaves unset.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig is the HTTP listener configuration.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Timeout        string `yaml:"timeout"`
	MaxConnections int    `yaml:"max_connections"`
}

// DatabaseConfig names the SQL driver and DSN the account/stats/icons
// repositories connect with. Driver is one of "mysql", "postgres" or
// "sqlite3"; DSN is passed straight to sql.Open.
type DatabaseConfig struct {
	Driver          string `yaml:"driver"`
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime"`
}

// RedisConfig is the shared key/value store connection. Address is
// empty when the in-memory store should be used instead (tests, local
// development).
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level    string          `yaml:"level"`
	Format   string          `yaml:"format"`
	Output   string          `yaml:"output"`
	File     *FileConfig     `yaml:"file,omitempty"`
	Journald *JournaldConfig `yaml:"journald,omitempty"`
}

// FileConfig represents file logging configuration.
type FileConfig struct {
	Directory string `yaml:"directory"`
	Filename  string `yaml:"filename"`
	MaxSize   string `yaml:"max_size"`
	MaxFiles  int    `yaml:"max_files"`
	MaxAge    string `yaml:"max_age"`
	Compress  bool   `yaml:"compress"`
}

// JournaldConfig represents journald logging configuration.
type JournaldConfig struct {
	Identifier string            `yaml:"identifier"`
	Fields     map[string]string `yaml:"fields"`
}

// MetricsConfig represents metrics configuration.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// RestrictionConfig carries the restriction notification templates.
// Message is the text the restrict broadcast handler sends a
// newly-restricted session; FrozenMessage (with a
// "{time_until_restriction}" placeholder) is loaded but not read by
// any other code.
type RestrictionConfig struct {
	Message       string `yaml:"message"`
	FrozenMessage string `yaml:"frozen_message"`
}

// OuiConfig controls the hardware-adapter OUI lookup cache.
type OuiConfig struct {
	Enabled bool `yaml:"enabled"`
}

// BanchoConfig is the full configuration for the bancho server.
type BanchoConfig struct {
	Version     string             `yaml:"version"`
	Server      *ServerConfig      `yaml:"server"`
	Database    *DatabaseConfig    `yaml:"database"`
	Redis       *RedisConfig       `yaml:"redis"`
	Logging     *LoggingConfig     `yaml:"logging"`
	Metrics     *MetricsConfig     `yaml:"metrics"`
	Restriction *RestrictionConfig `yaml:"restriction"`
	Oui         *OuiConfig         `yaml:"oui"`
}

// Load reads configPath, expands ${VAR}/$VAR environment references,
// parses the YAML and fills in defaults for anything left unset.
func Load(configPath string) (*BanchoConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg BanchoConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// applyDefaults fills in every unset field with the value bancho ships
// with out of the box.
func applyDefaults(cfg *BanchoConfig) {
	if cfg.Version == "" {
		cfg.Version = "0.1.0"
	}

	if cfg.Server == nil {
		cfg.Server = &ServerConfig{}
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5001
	}
	if cfg.Server.Timeout == "" {
		cfg.Server.Timeout = "60s"
	}
	if cfg.Server.MaxConnections == 0 {
		cfg.Server.MaxConnections = 4096
	}

	if cfg.Database == nil {
		cfg.Database = &DatabaseConfig{}
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite3"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "bancho.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 10
	}
	if cfg.Database.ConnMaxLifetime == "" {
		cfg.Database.ConnMaxLifetime = "30m"
	}

	if cfg.Redis == nil {
		cfg.Redis = &RedisConfig{}
	}

	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{Enabled: true, Port: 9100}
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9100
	}

	if cfg.Restriction == nil {
		cfg.Restriction = &RestrictionConfig{}
	}
	if cfg.Restriction.Message == "" {
		cfg.Restriction.Message = "Your account is currently restricted."
	}
	if cfg.Restriction.FrozenMessage == "" {
		cfg.Restriction.FrozenMessage = "Your account will be automatically restricted in {time_until_restriction} unless you contact staff."
	}

	if cfg.Oui == nil {
		cfg.Oui = &OuiConfig{Enabled: true}
	}
}

// ParseDuration parses a duration string with a fallback for an empty
// or malformed value.
func ParseDuration(durationStr string, fallback time.Duration) time.Duration {
	if duration, err := time.ParseDuration(durationStr); err == nil {
		return duration
	}
	return fallback
}
