package config

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/homelab/hostdb/internal/datastore"
)

// Config holds all configuration for the hostdb service
type Config struct {
	DBPath  string        `yaml:"db_path"`
	Port    string        `yaml:"port"`
	Logging LoggingConfig `yaml:"logging"`
	DNS     DNSConfig     `yaml:"dns"`
}

// LoggingConfig controls the structured logger
type LoggingConfig struct {
	Level     string `yaml:"level"`     // debug, info, warn, error
	Format    string `yaml:"format"`    // text or json
	Output    string `yaml:"output"`    // stdout, stderr or file
	FilePath  string `yaml:"file_path"` // used when Output is "file"
	AddSource bool   `yaml:"add_source"`
}

// DNSConfig controls nameserver lookups for domains
type DNSConfig struct {
	// QueryLocalNameservers asks the servers from ResolvConf instead of
	// the configured Nameservers.
	QueryLocalNameservers bool          `yaml:"query_local_nameservers"`
	ResolvConf            string        `yaml:"resolv_conf"`
	Nameservers           []string      `yaml:"nameservers"`
	Timeout               time.Duration `yaml:"timeout"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		DBPath: "~/hostdb/data/hostdb.db",
		Port:   "8080",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		DNS: DNSConfig{
			QueryLocalNameservers: false,
			ResolvConf:            "/etc/resolv.conf",
			Timeout:               2 * time.Second,
		},
	}
}

// Load reads a YAML config file on top of the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(cfg.expandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging format %q", c.Logging.Format)
	}
	if c.Logging.Output == "file" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging.file_path is required when output is file")
	}
	if c.DNS.Timeout <= 0 {
		return fmt.Errorf("dns.timeout must be positive")
	}
	return nil
}

// InitializeDatabase creates and configures the database connection
func (c *Config) InitializeDatabase() (*sql.DB, error) {
	dbPath := c.expandPath(c.DBPath)

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Foreign keys are set per connection, so request them in the DSN
	ds, err := datastore.New("file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	OptimizeDatabaseConnection(ds.DB)

	if err := ApplyPragmaOptimizations(ds.DB); err != nil {
		ds.Close()
		return nil, fmt.Errorf("failed to apply performance optimizations: %w", err)
	}

	return ds.DB, nil
}

// expandPath expands ~ to home directory
func (c *Config) expandPath(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(homeDir, path[2:])
}
