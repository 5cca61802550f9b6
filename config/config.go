// Package config loads the settings a provider is opened with: the database
// to connect to, the entity model file and the table names.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultTablePrefix is prepended to entity table names.
	DefaultTablePrefix = "dobee"
	// DefaultLogTable stores version records.
	DefaultLogTable = "log_storage"
	// DefaultFile is the config file looked up by the command line.
	DefaultFile = "dobee.yaml"
)

// Config holds the provider settings. It is read-only once loaded.
type Config struct {
	Database           DatabaseConfig `yaml:"database"`
	Model              string         `yaml:"model,omitempty"`
	TablePrefix        string         `yaml:"table_prefix,omitempty"`
	LogTable           string         `yaml:"log_table,omitempty"`
	Debug              bool           `yaml:"debug,omitempty"`
	SlowQueryThreshold time.Duration  `yaml:"slow_query_threshold,omitempty"`
}

// DatabaseConfig locates the MySQL server. A non-empty DSN wins over the
// individual fields.
type DatabaseConfig struct {
	DSN      string            `yaml:"dsn,omitempty"`
	Host     string            `yaml:"host,omitempty"`
	Port     int               `yaml:"port,omitempty"`
	User     string            `yaml:"user,omitempty"`
	Password string            `yaml:"password,omitempty"`
	Name     string            `yaml:"name,omitempty"`
	Params   map[string]string `yaml:"params,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host: "localhost",
			Port: 3306,
		},
		TablePrefix: DefaultTablePrefix,
		LogTable:    DefaultLogTable,
	}
}

// Load reads a YAML config file over the defaults and applies environment
// overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dsn := os.Getenv("DOBEE_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if pw := os.Getenv("DOBEE_DB_PASSWORD"); pw != "" {
		c.Database.Password = pw
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	if c.TablePrefix == "" {
		return fmt.Errorf("config: table_prefix must not be empty")
	}
	if c.LogTable == "" {
		return fmt.Errorf("config: log_table must not be empty")
	}
	if c.SlowQueryThreshold < 0 {
		return fmt.Errorf("config: negative slow_query_threshold %s", c.SlowQueryThreshold)
	}
	if c.Database.DSN == "" && c.Database.Name == "" {
		return fmt.Errorf("config: database name or dsn required")
	}
	return nil
}

// FormatDSN returns the MySQL data source name.
func (d DatabaseConfig) FormatDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	mc := mysql.NewConfig()
	mc.User = d.User
	mc.Passwd = d.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	mc.DBName = d.Name
	if len(d.Params) > 0 {
		mc.Params = make(map[string]string, len(d.Params))
		for k, v := range d.Params {
			mc.Params[k] = v
		}
	}
	return mc.FormatDSN()
}
